package server

import (
	"context"
	"net"
	"sync"
	"time"

	"linecat/internal/pkg/handler"
	"linecat/internal/pkg/log"
	"linecat/internal/pkg/protocol"
	"linecat/internal/pkg/source"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// ErrNoSource indicates a server configured without a line source.
var ErrNoSource = errors.New("no line source")

// Stats counts the outcome of handled connections.
type Stats struct {
	Served   uint64
	Rejected uint64
	Failed   uint64
}

// Server accepts connections one at a time and answers each with the next line of its source.
type Server struct {
	source      source.Source
	readTimeout time.Duration
	handler     *handler.Handler

	mu    sync.Mutex
	stats Stats
}

// Cfg configures a Server.
type Cfg func(*Server) error

// WithSource sets the line source for the server.
func WithSource(src source.Source) Cfg {
	return func(s *Server) error {
		s.source = src
		return nil
	}
}

// WithReadTimeout sets how long the server waits for a request on an accepted connection.
func WithReadTimeout(d time.Duration) Cfg {
	return func(s *Server) error {
		s.readTimeout = d
		return nil
	}
}

// NewServer creates a new Server with the given configuration.
func NewServer(cfgs ...Cfg) (*Server, error) {
	server := &Server{
		readTimeout: handler.DefaultReadTimeout,
	}
	for _, cfg := range cfgs {
		if err := cfg(server); err != nil {
			return nil, errors.Wrap(err, "apply Server cfg failed")
		}
	}
	if server.source == nil {
		return nil, ErrNoSource
	}
	h, err := handler.NewHandler(
		handler.WithSource(server.source),
		handler.WithReadTimeout(server.readTimeout),
	)
	if err != nil {
		return nil, errors.Wrap(err, "new handler failed")
	}
	server.handler = h
	return server, nil
}

// Listen opens a TCP listener on addr.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, protocol.NewError(protocol.ConnectionFailed, errors.Wrapf(err, "listen on %s failed", addr))
	}
	return ln, nil
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := Listen(addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or ln is closed.
// Connections are handled sequentially, one request each.
// Serve closes ln before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	logger.WithField("addr", ln.Addr().String()).Info("server listening")
	defer func() {
		logger.WithFields(s.statsFields()).Info("server stopped")
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logger.WithError(err).Warn("accept timed out")
				continue
			}
			return protocol.NewError(protocol.ConnectionFailed, errors.Wrap(err, "accept failed"))
		}
		s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	line, err := s.handler.Handle(ctx, conn)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.stats.Served++
		logger.WithFields(log.ResponseToFields(line)).Info("served line")
		return
	}
	if protocol.KindOf(err) == protocol.ProtocolMismatch {
		s.stats.Rejected++
		logger.WithFields(log.ErrorToFields(err)).Warn("rejected request")
		return
	}
	s.stats.Failed++
	logger.WithFields(log.ErrorToFields(err)).Error("handle connection failed")
}

// Stats returns the outcome counters so far.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Server) statsFields() logrus.Fields {
	stats := s.Stats()
	return logrus.Fields{
		"served":   stats.Served,
		"rejected": stats.Rejected,
		"failed":   stats.Failed,
	}
}
