package cfg

import (
	"io"
	"time"

	"linecat/internal"
	"linecat/internal/app/apps"
)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// ClientTimingCfg controls how often and for how long a client probes.
type ClientTimingCfg struct {
	Throttle    time.Duration
	Window      time.Duration
	Iterations  int
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

// ClientTimingFromEnv creates a new ClientTimingCfg from the current environment.
func ClientTimingFromEnv() *ClientTimingCfg {
	return &ClientTimingCfg{
		Throttle:    ms(internal.ClientThrottleMS),
		Window:      ms(internal.ClientWindowMS),
		Iterations:  internal.ClientIterations,
		DialTimeout: ms(internal.ClientDialTimeoutMS),
		IOTimeout:   ms(internal.ClientIOTimeoutMS),
	}
}

// ApplyClientApp applies the ClientTimingCfg to a ClientApp.
func (cfg ClientTimingCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.Throttle = cfg.Throttle
	app.Window = cfg.Window
	app.Iterations = cfg.Iterations
	app.DialTimeout = cfg.DialTimeout
	app.IOTimeout = cfg.IOTimeout
	return nil
}

// ServerTimingCfg controls how long a server waits on a connection.
type ServerTimingCfg struct {
	ReadTimeout time.Duration
}

// ServerTimingFromEnv creates a new ServerTimingCfg from the current environment.
func ServerTimingFromEnv() *ServerTimingCfg {
	return &ServerTimingCfg{
		ReadTimeout: ms(internal.ServerReadTimeoutMS),
	}
}

// ApplyServerApp applies the ServerTimingCfg to a ServerApp.
func (cfg ServerTimingCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.ReadTimeout = cfg.ReadTimeout
	return nil
}

// OutputCfg is where a client prints its results.
type OutputCfg struct {
	w io.Writer
}

// NewOutputCfg creates a new OutputCfg.
func NewOutputCfg(w io.Writer) *OutputCfg {
	return &OutputCfg{
		w: w,
	}
}

// ApplyClientApp applies the OutputCfg to a ClientApp.
func (cfg OutputCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.Output = cfg.w
	return nil
}
