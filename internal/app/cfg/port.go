// Package cfg implements functionaltiy to configure an app.
//
// The configuration objects defined here need only be implemented once,
// but can be applied to multiple types.
//
// In order to add support for a new type, the configuration
// need only implement an ApplyX method.
//
package cfg

import (
	"strconv"

	"linecat/internal/app/apps"
	"linecat/internal/pkg/protocol"

	"github.com/pkg/errors"
)

// PortCfg is configuration for the linecat server port.
type PortCfg struct {
	port uint16
}

// NewPortCfg creates a new PortCfg from the given config.
func NewPortCfg(port uint16) *PortCfg {
	return &PortCfg{
		port: port,
	}
}

// PortFromArg creates a new PortCfg from a command line argument.
func PortFromArg(arg string) (*PortCfg, error) {
	port, err := strconv.ParseUint(arg, 10, 16)
	if err != nil {
		return nil, protocol.NewError(protocol.ArgumentError, errors.Wrapf(err, "parse port %q failed", arg))
	}
	if port == 0 {
		return nil, protocol.NewError(protocol.ArgumentError, errors.New("port must be between 1 and 65535"))
	}
	return NewPortCfg(uint16(port)), nil
}

// ApplyClientApp applies the PortCfg to a ClientApp.
func (cfg PortCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.Port = cfg.port
	return nil
}

// ApplyServerApp applies the PortCfg to a ServerApp.
func (cfg PortCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.Port = cfg.port
	return nil
}
