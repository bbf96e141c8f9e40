package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"linecat/internal/pkg/log"
	"linecat/internal/pkg/protocol"
	"linecat/internal/pkg/reference"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

const (
	// DefaultThrottle is the pause between opening a connection and sending the request.
	DefaultThrottle = 3 * time.Second
	// DefaultWindow is how long Run keeps probing.
	DefaultWindow = 30 * time.Second
	// DefaultIOTimeout bounds the request write and response read of a probe.
	DefaultIOTimeout = 10 * time.Second
)

// Result is the outcome of checking a line against the reference file.
type Result int

// Check results.
const (
	Missing Result = iota
	OK
)

func (r Result) String() string {
	if r == OK {
		return "OK"
	}
	return "MISSING"
}

// Dialer opens connections to the server.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Client implements the probing behaviour of linecat.
type Client struct {
	serverAddr    string
	referencePath string

	throttle    time.Duration
	window      time.Duration
	iterations  int
	dialTimeout time.Duration
	ioTimeout   time.Duration

	dialer Dialer
	out    io.Writer
}

// Cfg configures a Client.
type Cfg func(*Client) error

// WithServerAddr sets the server host and port to connect to.
func WithServerAddr(host string, port uint16) Cfg {
	return func(c *Client) error {
		c.serverAddr = net.JoinHostPort(host, strconv.Itoa(int(port)))
		return nil
	}
}

// WithReferenceFile sets the path of the file received lines are checked against.
func WithReferenceFile(path string) Cfg {
	return func(c *Client) error {
		c.referencePath = path
		return nil
	}
}

// WithThrottle sets the pause between connecting and sending the request.
func WithThrottle(d time.Duration) Cfg {
	return func(c *Client) error {
		if d < 0 {
			return errors.Errorf("negative throttle %s", d)
		}
		c.throttle = d
		return nil
	}
}

// WithWindow sets how long Run keeps probing. Zero means until the context is done.
func WithWindow(d time.Duration) Cfg {
	return func(c *Client) error {
		if d < 0 {
			return errors.Errorf("negative window %s", d)
		}
		c.window = d
		return nil
	}
}

// WithIterations caps the number of probes made by Run. Zero means no cap.
func WithIterations(n int) Cfg {
	return func(c *Client) error {
		if n < 0 {
			return errors.Errorf("negative iterations %d", n)
		}
		c.iterations = n
		return nil
	}
}

// WithDialTimeout bounds how long a connection attempt may take. Zero means no bound.
func WithDialTimeout(d time.Duration) Cfg {
	return func(c *Client) error {
		c.dialTimeout = d
		return nil
	}
}

// WithIOTimeout bounds the request write and response read of a probe. Zero means no bound.
func WithIOTimeout(d time.Duration) Cfg {
	return func(c *Client) error {
		c.ioTimeout = d
		return nil
	}
}

// WithDialer replaces the dialer used to reach the server.
func WithDialer(d Dialer) Cfg {
	return func(c *Client) error {
		c.dialer = d
		return nil
	}
}

// WithOutput sets where probe results are printed.
func WithOutput(w io.Writer) Cfg {
	return func(c *Client) error {
		c.out = w
		return nil
	}
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfgs ...Cfg) (*Client, error) {
	client := &Client{
		throttle:  DefaultThrottle,
		window:    DefaultWindow,
		ioTimeout: DefaultIOTimeout,
		dialer:    &net.Dialer{},
		out:       os.Stdout,
	}
	for _, cfg := range cfgs {
		if err := cfg(client); err != nil {
			return nil, errors.Wrap(err, "apply Client cfg failed")
		}
	}
	if client.serverAddr == "" {
		return nil, ErrNoServerAddr
	}
	if client.referencePath == "" {
		return nil, ErrNoReferenceFile
	}
	return client, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fetch requests one line from the server over a fresh connection.
// The throttle is applied after the connection attempt even when it fails,
// so a run against an unreachable server does not spin.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	id := uuid.New()
	dialCtx := ctx
	if c.dialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.dialTimeout)
		defer cancel()
	}
	conn, dialErr := c.dialer.DialContext(dialCtx, "tcp", c.serverAddr)
	if dialErr == nil {
		defer conn.Close()
	}
	l := logger.WithFields(log.ConnToFields(id, conn))

	if err := sleep(ctx, c.throttle); err != nil {
		return "", errors.Wrap(err, "throttle interrupted")
	}
	if dialErr != nil {
		return "", protocol.NewError(protocol.ConnectionFailed, errors.Wrapf(dialErr, "connect to %s failed", c.serverAddr))
	}

	if c.ioTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.ioTimeout)); err != nil {
			return "", protocol.NewError(protocol.ConnectionFailed, errors.Wrap(err, "set deadline failed"))
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := protocol.WriteRequest(conn, protocol.RequestToken); err != nil {
		return "", errors.Wrap(err, "send request failed")
	}
	l.WithFields(log.RequestToFields(protocol.RequestToken)).Debug("sent request")
	line, err := protocol.ReadResponse(protocol.NewReader(conn))
	if err != nil {
		return "", errors.Wrap(err, "read response failed")
	}
	l.WithFields(log.ResponseToFields(line)).Debug("received line")
	return line, nil
}

// Check fetches one line and looks it up in the reference file.
// The reference file is read again on every call.
func (c *Client) Check(ctx context.Context) (Result, string, error) {
	line, err := c.Fetch(ctx)
	if err != nil {
		return Missing, "", errors.Wrap(err, "fetch line failed")
	}
	ok, err := reference.Contains(c.referencePath, line)
	if err != nil {
		return Missing, line, errors.Wrap(err, "check reference failed")
	}
	if ok {
		return OK, line, nil
	}
	return Missing, line, nil
}

// Run probes the server until the window elapses, the iteration cap is
// reached or ctx is done, printing one result line per probe.
// It returns an error when probes were attempted and none succeeded.
func (c *Client) Run(ctx context.Context) error {
	start := time.Now()
	var attempted, succeeded int
	var lastErr error
	for c.iterations == 0 || attempted < c.iterations {
		if c.window > 0 && time.Since(start) >= c.window {
			break
		}
		if ctx.Err() != nil {
			break
		}
		res, line, err := c.Check(ctx)
		if ctx.Err() != nil {
			// an interrupted probe has no result to report
			break
		}
		attempted++
		if err != nil {
			lastErr = err
			kind := protocol.KindOf(err)
			logger.WithFields(log.ErrorToFields(err)).Error("probe failed")
			fmt.Fprintf(c.out, "ERROR %s: %v\n", kind, err)
			continue
		}
		succeeded++
		logger.WithFields(logrus.Fields{
			"line":   line,
			"result": res.String(),
		}).Info("probe completed")
		fmt.Fprintln(c.out, res)
	}
	logger.WithFields(logrus.Fields{
		"attempted": attempted,
		"succeeded": succeeded,
		"elapsed":   time.Since(start).String(),
	}).Info("client finished")
	if attempted > 0 && succeeded == 0 {
		return errors.Wrap(lastErr, "no probe succeeded")
	}
	return nil
}
