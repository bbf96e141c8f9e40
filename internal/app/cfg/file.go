package cfg

import "linecat/internal/app/apps"

// FileCfg names the file an app reads lines from:
// the line source of a server, or the reference file of a client.
type FileCfg struct {
	path string
}

// NewFileCfg creates a new FileCfg.
func NewFileCfg(path string) *FileCfg {
	return &FileCfg{
		path: path,
	}
}

// ApplyClientApp applies the FileCfg to a ClientApp.
func (cfg FileCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.ReferenceFile = cfg.path
	return nil
}

// ApplyServerApp applies the FileCfg to a ServerApp.
func (cfg FileCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.SourceFile = cfg.path
	return nil
}
