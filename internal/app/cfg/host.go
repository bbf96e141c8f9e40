package cfg

import "linecat/internal/app/apps"

// HostCfg is the host a client connects to, or the interface a server binds.
type HostCfg struct {
	host string
}

// NewHostCfg creates a new HostCfg.
func NewHostCfg(host string) *HostCfg {
	return &HostCfg{
		host: host,
	}
}

// ApplyClientApp applies the HostCfg to a ClientApp.
func (cfg HostCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.Host = cfg.host
	return nil
}

// ApplyServerApp applies the HostCfg to a ServerApp.
func (cfg HostCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.Host = cfg.host
	return nil
}
