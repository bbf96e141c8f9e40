// Package client implements the client side of the linecat protocol.
//
// The client performs the following steps on every probe:
//	1. Opens a fresh connection to the server.
//	2. Waits for the throttle interval (3 seconds by default), whether or not the connection succeeded.
//	3. Sends the request token.
//	4. Reads one framed response holding the next line of the server's source.
//	5. Loads the reference file and checks whether it contains the line, ignoring case.
//	6. Prints OK when it does and MISSING when it does not.
//
// A probe that fails prints an ERROR line naming the failure kind instead, so an unreachable server
// is never mistaken for a missing line.
//
// Run repeats probes until the window elapses (30 seconds by default), the iteration limit is hit or
// the context is done. The window is only checked between probes, so the last probe always completes
// unless the context is cancelled.
//
package client
