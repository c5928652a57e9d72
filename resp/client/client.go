package client

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// --------------------------------------------------------------------------
// Reply Value
// --------------------------------------------------------------------------

// Kind discriminates the reply variants of the protocol.
type Kind byte

const (
	KindStatus Kind = '+'
	KindError  Kind = '-'
	KindInt    Kind = ':'
	KindBulk   Kind = '$'
	KindArray  Kind = '*'
)

// Value is one decoded server reply.
type Value struct {
	Kind  Kind
	Str   []byte
	Int   int64
	Array []Value
	// Null is true for the null bulk/array reply
	Null bool
}

// Err returns the reply as an error if it is an error reply.
func (v Value) Err() error {
	if v.Kind == KindError {
		return fmt.Errorf("%s", v.Str)
	}
	return nil
}

// Text renders the value for human consumption.
func (v Value) Text() string {
	switch v.Kind {
	case KindStatus, KindError:
		return string(v.Str)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBulk:
		if v.Null {
			return "(nil)"
		}
		return string(v.Str)
	case KindArray:
		if v.Null {
			return "(nil)"
		}
		out := ""
		for i, e := range v.Array {
			if i > 0 {
				out += "\n"
			}
			out += fmt.Sprintf("%d) %s", i+1, e.Text())
		}
		if out == "" {
			return "(empty array)"
		}
		return out
	}
	return ""
}

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

// Client is a single connection to the server. It is not safe for concurrent
// use; pool clients instead of sharing one.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer
	timeout time.Duration
}

// Dial connects to a server. The timeout applies to connect and to every
// request/reply round trip.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		writer:  bufio.NewWriter(conn),
		timeout: timeout,
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends one command and reads its reply.
func (c *Client) Do(args ...[]byte) (Value, error) {
	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return Value{}, err
		}
	}

	if err := c.writeCommand(args); err != nil {
		return Value{}, err
	}
	return c.readReply()
}

// DoString is Do with string arguments.
func (c *Client) DoString(args ...string) (Value, error) {
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	return c.Do(raw...)
}

// --------------------------------------------------------------------------
// Wire Encoding
// --------------------------------------------------------------------------

func (c *Client) writeCommand(args [][]byte) error {
	fmt.Fprintf(c.writer, "*%d\r\n", len(args))
	for _, arg := range args {
		fmt.Fprintf(c.writer, "$%d\r\n", len(arg))
		c.writer.Write(arg)
		c.writer.WriteString("\r\n")
	}
	return c.writer.Flush()
}

func (c *Client) readReply() (Value, error) {
	line, err := c.readLine()
	if err != nil {
		return Value{}, err
	}
	if len(line) == 0 {
		return Value{}, fmt.Errorf("empty reply line")
	}

	kind, rest := line[0], line[1:]
	switch Kind(kind) {
	case KindStatus, KindError:
		return Value{Kind: Kind(kind), Str: rest}, nil

	case KindInt:
		n, err := strconv.ParseInt(string(rest), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("bad integer reply: %q", line)
		}
		return Value{Kind: KindInt, Int: n}, nil

	case KindBulk:
		n, err := strconv.ParseInt(string(rest), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("bad bulk length: %q", line)
		}
		if n < 0 {
			return Value{Kind: KindBulk, Null: true}, nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(c.reader, buf); err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBulk, Str: buf[:n]}, nil

	case KindArray:
		n, err := strconv.ParseInt(string(rest), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("bad array length: %q", line)
		}
		if n < 0 {
			return Value{Kind: KindArray, Null: true}, nil
		}
		elems := make([]Value, 0, n)
		for i := int64(0); i < n; i++ {
			e, err := c.readReply()
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, e)
		}
		return Value{Kind: KindArray, Array: elems}, nil

	default:
		return Value{}, fmt.Errorf("unknown reply type %q", kind)
	}
}

func (c *Client) readLine() ([]byte, error) {
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, fmt.Errorf("malformed reply line")
	}
	return line[:len(line)-2], nil
}
