package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// --------------------------------------------------------------------------
// Request Parsing
// --------------------------------------------------------------------------

// ErrProtocol marks malformed client input. The connection is closed after
// reporting it; resynchronizing a binary-framed stream is not worth it.
var ErrProtocol = errors.New("protocol error")

// limits protect the server from absurd frames
const (
	maxArgCount = 1024 * 1024
	maxBulkLen  = 512 * 1024 * 1024
)

// ReadCommand reads one client command from the stream: either an array of
// bulk strings ("*2\r\n$3\r\nGET\r\n$1\r\nk\r\n") or an inline command
// ("PING\r\n"). It blocks until a full command is available.
//
// io.EOF is passed through unchanged so the caller can distinguish a clean
// disconnect from a protocol violation.
func ReadCommand(reader *bufio.Reader) ([][]byte, error) {
	line, err := readLine(reader)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty command line", ErrProtocol)
	}

	if line[0] != '*' {
		// inline command, split on spaces
		var args [][]byte
		for _, f := range bytes.Fields(line) {
			args = append(args, f)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: blank inline command", ErrProtocol)
		}
		return args, nil
	}

	count, err := strconv.Atoi(string(line[1:]))
	if err != nil || count < 0 || count > maxArgCount {
		return nil, fmt.Errorf("%w: invalid multibulk length %q", ErrProtocol, line[1:])
	}

	args := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		arg, err := readBulkString(reader)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

// readBulkString reads one "$<len>\r\n<payload>\r\n" element.
func readBulkString(reader *bufio.Reader) ([]byte, error) {
	line, err := readLine(reader)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 || line[0] != '$' {
		return nil, fmt.Errorf("%w: expected bulk string, got %q", ErrProtocol, line)
	}

	length, err := strconv.Atoi(string(line[1:]))
	if err != nil || length < 0 || length > maxBulkLen {
		return nil, fmt.Errorf("%w: invalid bulk length %q", ErrProtocol, line[1:])
	}

	// payload plus trailing CRLF
	buf := make([]byte, length+2)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return nil, err
	}
	if buf[length] != '\r' || buf[length+1] != '\n' {
		return nil, fmt.Errorf("%w: bulk string not CRLF terminated", ErrProtocol)
	}
	return buf[:length], nil
}

// readLine reads one CRLF-terminated line without the terminator.
func readLine(reader *bufio.Reader) ([]byte, error) {
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, fmt.Errorf("%w: line not CRLF terminated", ErrProtocol)
	}
	return line[:len(line)-2], nil
}
