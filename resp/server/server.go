package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/redikv/lib/backend"
	"github.com/ValentinKolb/redikv/lib/backend/memkv"
	"github.com/ValentinKolb/redikv/lib/backend/tikv"
	"github.com/ValentinKolb/redikv/lib/engine"
	"github.com/ValentinKolb/redikv/lib/logging"
	"github.com/ValentinKolb/redikv/lib/metrics"
	"github.com/ValentinKolb/redikv/resp/protocol"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	// Read/write buffer size per client connection.
	defaultBufferSize = 64 * 1024
)

var logger = logging.GetLogger("server")

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

// Server accepts RESP client connections and executes commands against the
// structure engine. One goroutine serves each connection; commands on a
// single connection run strictly in order.
type Server struct {
	config Config
	engine *engine.Engine
	pool   *engine.SessionPool

	listener net.Listener
	clients  *xsync.MapOf[uint64, *session]
	nextID   atomic.Uint64
	closed   atomic.Bool
	wg       sync.WaitGroup
	profiler profiler
}

// New creates a server for the given configuration. The backend is not
// contacted until Serve is called.
func New(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()

	var dialer backend.IDialer
	switch cfg.BackendKind {
	case BackendTiKV:
		dialer = tikv.NewDialer()
	case BackendMemory:
		dialer = memkv.NewDialer(memkv.NewStore())
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.BackendKind)
	}

	pool := engine.NewSessionPool(dialer)
	eng := engine.New(pool, engine.NewKeyEncoder(cfg.MetaSlots), cfg.TxnRetries, 0)

	return &Server{
		config:  cfg,
		engine:  eng,
		pool:    pool,
		clients: xsync.NewMapOf[uint64, *session](),
	}, nil
}

// Engine exposes the structure engine, mainly for tests.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// Addr returns the bound listen address ("" before Serve).
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve connects the backend session pool, binds the listen socket and
// accepts connections until the context is cancelled or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	logger.Infof("Configuration: %s", s.config.String())

	// Connect all backend sessions up front, a server that cannot reach
	// its backend must not accept clients
	connectCtx, cancel := context.WithTimeout(ctx, s.config.Backend.Timeout)
	err := s.pool.Connect(connectCtx, s.config.Backend, s.config.Concurrency)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect backend: %w", err)
	}
	logger.Infof("Connected %d backend sessions (%s)", s.pool.Size(), s.config.BackendKind)

	if s.config.MetricsAddr != "" {
		metrics.Serve(s.config.MetricsAddr)
	}
	metrics.RegisterConnectionGauge(func() float64 {
		return float64(s.clients.Size())
	})

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	s.listener = listener
	logger.Infof("Listening on %s", listener.Addr())

	// Close the listener when the context ends so Accept unblocks
	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed.Load() {
				break
			}
			logger.Errorf("Accept error: %v", err)
			continue
		}
		s.upgradeConnection(conn)

		id := s.nextID.Add(1)
		sess := newSession(id, conn, s)
		s.clients.Store(id, sess)
		metrics.ConnectionsProcessed.Inc()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(sess)
		}()
	}

	s.wg.Wait()
	return s.pool.Close()
}

// Close stops accepting connections and closes all active clients.
func (s *Server) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.clients.Range(func(_ uint64, sess *session) bool {
		_ = sess.conn.Close()
		return true
	})
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// upgradeConnection applies performance settings to a TCP connection
func (s *Server) upgradeConnection(conn net.Conn) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if err := tcpConn.SetNoDelay(true); err != nil {
		logger.Warnf("Failed to set TCP_NODELAY: %v", err)
	}
	if err := tcpConn.SetKeepAlive(true); err == nil {
		_ = tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}
}

// handleConnection reads commands for one connection until EOF
func (s *Server) handleConnection(sess *session) {
	defer func() {
		s.clients.Delete(sess.id)
		_ = sess.conn.Close()
	}()

	logger.Debugf("Client %d connected from %s", sess.id, sess.conn.RemoteAddr())

	for {
		args, err := protocol.ReadCommand(sess.reader)

		// Case EOF: connection closed by client
		if err == io.EOF || errors.Is(err, net.ErrClosed) {
			logger.Debugf("Client %d disconnected", sess.id)
			return
		}

		// Case protocol error: report and close, the stream can no
		// longer be trusted to be in sync
		if errors.Is(err, protocol.ErrProtocol) {
			_ = sess.write(protocol.MakeErrorReply(err.Error()))
			return
		}

		// Case other error (read timeout, reset): log and close
		if err != nil {
			logger.Debugf("Client %d read error: %v", sess.id, err)
			return
		}

		if len(args) == 0 {
			continue
		}

		reply, quit := s.dispatch(context.Background(), sess, args)
		if reply != nil {
			if err := sess.write(reply); err != nil {
				logger.Debugf("Client %d write error: %v", sess.id, err)
				return
			}
		}
		if quit {
			return
		}
	}
}

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

// session holds the per-connection state: buffered IO and the MULTI queue.
type session struct {
	id     uint64
	conn   net.Conn
	srv    *Server
	reader *bufio.Reader
	writer *bufio.Writer

	// MULTI state. queued holds the verbatim command lines between
	// MULTI and EXEC; dirty marks a queueing error that aborts EXEC;
	// txn is non-nil only while an EXEC batch runs.
	inMulti bool
	dirty   bool
	queued  [][][]byte
	txn     backend.ITxn
}

func newSession(id uint64, conn net.Conn, srv *Server) *session {
	return &session{
		id:     id,
		conn:   conn,
		srv:    srv,
		reader: bufio.NewReaderSize(&countingReader{r: conn}, defaultBufferSize),
		writer: bufio.NewWriterSize(conn, defaultBufferSize),
	}
}

// write serializes a reply and flushes it to the client
func (s *session) write(reply protocol.Reply) error {
	b := reply.Bytes()
	metrics.TrafficOut.Add(len(b))
	if _, err := s.writer.Write(b); err != nil {
		return err
	}
	return s.writer.Flush()
}

// countingReader feeds the inbound traffic counter
type countingReader struct {
	r io.Reader
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		metrics.TrafficIn.Add(n)
	}
	return n, err
}
