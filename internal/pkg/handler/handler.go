package handler

import (
	"context"
	"net"
	"strings"
	"time"

	"linecat/internal/pkg/log"
	"linecat/internal/pkg/protocol"
	"linecat/internal/pkg/source"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// DefaultReadTimeout bounds how long a handler waits for a request and writes its response.
const DefaultReadTimeout = 10 * time.Second

// RejectSourceUnavailable is the rejection reason sent when no line can be produced.
const RejectSourceUnavailable = "line source unavailable"

// RejectInvalidLine is the rejection reason sent when the next line does not fit in a frame.
const RejectInvalidLine = "line cannot be framed"

// ErrUnknownRequest indicates a request frame that does not hold the request token.
var ErrUnknownRequest = errors.New("unknown request")

// ErrNoSource indicates a handler configured without a line source.
var ErrNoSource = errors.New("no line source")

// Handler answers the single request carried by a connection.
type Handler struct {
	source      source.Source
	readTimeout time.Duration
}

// HandlerCfg configures a Handler.
type HandlerCfg func(*Handler) error

// WithSource sets the line source.
func WithSource(src source.Source) HandlerCfg {
	return func(h *Handler) error {
		h.source = src
		return nil
	}
}

// WithReadTimeout sets the deadline for reading the request and writing the response.
// Zero disables the deadline.
func WithReadTimeout(d time.Duration) HandlerCfg {
	return func(h *Handler) error {
		if d < 0 {
			return errors.Errorf("negative read timeout %s", d)
		}
		h.readTimeout = d
		return nil
	}
}

// NewHandler creates a new Handler.
func NewHandler(cfgs ...HandlerCfg) (*Handler, error) {
	h := &Handler{
		readTimeout: DefaultReadTimeout,
	}
	for _, cfg := range cfgs {
		if err := cfg(h); err != nil {
			return nil, errors.Wrap(err, "apply handler cfg failed")
		}
	}
	if h.source == nil {
		return nil, ErrNoSource
	}
	return h, nil
}

// Handle reads one request from conn and writes one response.
// It returns the uppercased line sent, or an error describing why no line was sent.
// The caller owns conn and must close it.
func (h *Handler) Handle(ctx context.Context, conn net.Conn) (string, error) {
	id := uuid.New()
	l := logger.WithFields(log.ConnToFields(id, conn))

	if h.readTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(h.readTimeout)); err != nil {
			return "", protocol.NewError(protocol.ConnectionFailed, errors.Wrap(err, "set deadline failed"))
		}
	}
	// unblock any pending read or write once ctx is done
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	token, err := protocol.ReadRequest(protocol.NewReader(conn))
	if err != nil {
		if protocol.KindOf(err) == protocol.ProtocolMismatch {
			h.reject(l, conn, err.Error())
		}
		return "", errors.Wrap(err, "read request failed")
	}
	l.WithFields(log.RequestToFields(token)).Debug("received request")

	if token != protocol.RequestToken {
		h.reject(l, conn, protocol.RejectUnknownRequest)
		return "", protocol.NewError(protocol.ProtocolMismatch, errors.Wrapf(ErrUnknownRequest, "%q", token))
	}

	line, err := h.source.Next()
	if err != nil {
		h.reject(l, conn, RejectSourceUnavailable)
		return "", protocol.NewError(protocol.FileUnavailable, errors.Wrap(err, "next line failed"))
	}
	line = protocol.Upper(line)
	if err := protocol.WriteLine(conn, line); err != nil {
		if errors.Is(err, protocol.ErrInvalidLine) {
			h.reject(l, conn, RejectInvalidLine)
		}
		return "", errors.Wrap(err, "write line failed")
	}
	l.WithFields(log.ResponseToFields(line)).Debug("sent line")
	return line, nil
}

// reject sends a rejection frame on a best effort basis; the peer may already be gone.
func (h *Handler) reject(l logrus.FieldLogger, conn net.Conn, reason string) {
	if len(reason) > protocol.MaxLineLength {
		reason = reason[:protocol.MaxLineLength]
	}
	reason = strings.ReplaceAll(reason, "\n", " ")
	if err := protocol.WriteReject(conn, reason); err != nil {
		l.WithError(err).Debug("send rejection failed")
	}
}
