package apps

import (
	"context"
	"net"
	"strconv"
	"time"

	"linecat/internal/pkg/server"
	"linecat/internal/pkg/source"
	"linecat/internal/pkg/validate"

	"github.com/pkg/errors"
)

// ServerAppCfg configures a ServerApp.
type ServerAppCfg interface {
	ApplyServerApp(*ServerApp) error
}

// ServerApp serves the lines of a file to linecat clients.
type ServerApp struct {
	SourceFile  string        `validate:"required"`
	Host        string        `validate:"omitempty,hostname_rfc1123|ip"`
	Port        uint16        `validate:"required"`
	ReadTimeout time.Duration `validate:"min=0"`
}

// NewServerApp creates a new ServerApp.
func NewServerApp(cfgs ...ServerAppCfg) (*ServerApp, error) {
	app := &ServerApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplyServerApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ServerApp cfg failed")
		}
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ServerApp failed")
	}
	return app, nil
}

// Addr returns the address the server listens on.
func (app *ServerApp) Addr() string {
	return net.JoinHostPort(app.Host, strconv.Itoa(int(app.Port)))
}

// Run serves until ctx is done.
func (app *ServerApp) Run(ctx context.Context) error {
	src, err := source.Open(app.SourceFile)
	if err != nil {
		return errors.Wrap(err, "open line source failed")
	}
	s, err := server.NewServer(
		server.WithSource(src),
		server.WithReadTimeout(app.ReadTimeout),
	)
	if err != nil {
		return errors.Wrap(err, "create server failed")
	}
	if err := s.ListenAndServe(ctx, app.Addr()); err != nil {
		return errors.Wrap(err, "serve failed")
	}
	return nil
}
