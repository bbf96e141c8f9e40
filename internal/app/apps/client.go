package apps

import (
	"context"
	"io"
	"os"
	"time"

	"linecat/internal/pkg/client"
	"linecat/internal/pkg/validate"

	"github.com/pkg/errors"
)

// ClientAppCfg configures a ClientApp.
type ClientAppCfg interface {
	ApplyClientApp(*ClientApp) error
}

// ClientApp probes a linecat server and checks each line against a reference file.
type ClientApp struct {
	ReferenceFile string        `validate:"required"`
	Host          string        `validate:"required,hostname_rfc1123|ip"`
	Port          uint16        `validate:"required"`
	Throttle      time.Duration `validate:"min=0"`
	Window        time.Duration `validate:"min=0"`
	Iterations    int           `validate:"min=0"`
	DialTimeout   time.Duration `validate:"min=0"`
	IOTimeout     time.Duration `validate:"min=0"`
	Output        io.Writer
}

// NewClientApp creates a new ClientApp.
func NewClientApp(cfgs ...ClientAppCfg) (*ClientApp, error) {
	app := &ClientApp{
		Throttle:  client.DefaultThrottle,
		Window:    client.DefaultWindow,
		IOTimeout: client.DefaultIOTimeout,
		Output:    os.Stdout,
	}
	for _, cfg := range cfgs {
		if err := cfg.ApplyClientApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ClientApp cfg failed")
		}
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ClientApp failed")
	}
	return app, nil
}

// Run probes the server until the window elapses.
func (app *ClientApp) Run(ctx context.Context) error {
	c, err := client.NewClient(
		client.WithServerAddr(app.Host, app.Port),
		client.WithReferenceFile(app.ReferenceFile),
		client.WithThrottle(app.Throttle),
		client.WithWindow(app.Window),
		client.WithIterations(app.Iterations),
		client.WithDialTimeout(app.DialTimeout),
		client.WithIOTimeout(app.IOTimeout),
		client.WithOutput(app.Output),
	)
	if err != nil {
		return errors.Wrap(err, "create client failed")
	}
	if err := c.Run(ctx); err != nil {
		return errors.Wrap(err, "run client failed")
	}
	return nil
}
