// Package apps wires the linecat client and server into runnable applications.
package apps

import "context"

// App is a runnable application.
type App interface {
	Run(ctx context.Context) error
}
