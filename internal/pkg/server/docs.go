// Package server implements the server side of the linecat protocol.
//
// The server performs the following steps:
// 	1. Opens a TCP listener on the configured address.
// 	2. Accepts exactly one connection.
// 	3. Reads a single request frame from it. If the frame holds the request token, the next line
// 	   of the line source is uppercased and sent back. Any other token is answered with a rejection.
// 	4. Closes the connection and goes back to accepting.
//
// Connections are never handled concurrently: the cursor of the line source only moves from the
// accept loop. The loop ends when the context passed to Serve is done, which also closes the listener.
//
// The read timeout bounds how long a silent client can hold the accept loop.
package server
