// Package client implements a minimal RESP client used by the CLI commands
// and the benchmark tool. It supports exactly what the server speaks: one
// request, one reply, pipelining through sequential calls.
package client
