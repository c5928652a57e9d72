// Package server implements the RESP front end: it accepts TCP client
// connections, parses commands with the resp/protocol package and executes
// them against the structure engine.
//
// Each connection is served by one goroutine and processes its commands
// strictly in order, so pipelined clients observe their own writes. MULTI,
// EXEC and DISCARD map a queued command batch onto a single backend
// transaction.
package server
