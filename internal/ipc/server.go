package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/owlbrowser/core/internal/logging"
)

// maxLineBytes bounds a single request line, matching the largest
// expected payload (e.g. a base64 screenshot sent as a param).
const maxLineBytes = 32 * 1024 * 1024

// responseBufPool reuses the []byte backing each encoded Response
// across connections instead of letting json.Marshal allocate fresh on
// every command; commands run often enough on a busy context pool that
// the allocations show up under GC pressure.
var responseBufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

func getResponseBuf() *bytes.Buffer {
	buf := responseBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putResponseBuf(buf *bytes.Buffer) {
	if buf.Cap() > 1<<20 {
		return
	}
	responseBufPool.Put(buf)
}

// Dispatcher routes a decoded method call to the action surface. It is
// responsible for its own per-context serialization (e.g. by resolving
// context_id out of params and holding that context's mutex for the
// call) — the server itself stays unaware of context affinity.
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, params map[string]interface{}) (interface{}, error)
}

// Config controls transport and rate limiting.
type Config struct {
	SocketPath     string
	StdioFallback  bool
	MaxConns       int
	RateLimitPerS  float64
	RateBurst      int
}

// Server is the accept loop plus per-connection worker pool.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	logger     *logging.Logger

	listener net.Listener

	activeConns  atomic.Int64
	totalCmds    atomic.Int64
	connSem      chan struct{}

	mu       sync.Mutex
	shutdown bool
	wg       sync.WaitGroup
}

// New builds a Server bound to a dispatcher. Call Serve to start accepting.
func New(cfg Config, dispatcher Dispatcher, logger *logging.Logger) *Server {
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 64
	}
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
		connSem:    make(chan struct{}, cfg.MaxConns),
	}
}

// Serve starts the UNIX socket accept loop (removing any stale socket
// file first) and, if configured, a parallel stdin/stdout worker. It
// prints the MULTI_IPC_READY marker to stdout once the socket is
// listening, for launching supervisors to detect readiness. Serve
// blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s.cfg.SocketPath != "" {
		_ = os.Remove(s.cfg.SocketPath)
		ln, err := net.Listen("unix", s.cfg.SocketPath)
		if err != nil {
			return fmt.Errorf("ipc: listen on %s: %w", s.cfg.SocketPath, err)
		}
		s.listener = ln
	}

	fmt.Println("MULTI_IPC_READY")

	var acceptErr error
	if s.listener != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			acceptErr = s.acceptLoop(ctx)
		}()
	}

	if s.cfg.StdioFallback {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, stdioConn{})
		}()
	}

	<-ctx.Done()
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return acceptErr
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			shuttingDown := s.shutdown
			s.mu.Unlock()
			if shuttingDown {
				return nil
			}
			return err
		}

		select {
		case s.connSem <- struct{}{}:
		default:
			s.logger.Warn("ipc: connection rejected, max_conns reached")
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-s.connSem }()
			s.serveConn(ctx, conn)
		}()
	}
}

// ActiveConnections returns the current open-connection count.
func (s *Server) ActiveConnections() int64 { return s.activeConns.Load() }

// TotalCommands returns the total commands processed since startup.
func (s *Server) TotalCommands() int64 { return s.totalCmds.Load() }

// stdioConn adapts os.Stdin/os.Stdout to the io.ReadWriteCloser shape
// serveConn expects, so the fallback transport shares all framing and
// dispatch logic with the socket transport.
type stdioConn struct{}

func (stdioConn) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioConn) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioConn) Close() error                { return nil }

func (s *Server) serveConn(ctx context.Context, conn io.ReadWriteCloser) {
	s.activeConns.Add(1)
	defer s.activeConns.Add(-1)
	defer conn.Close()

	limiter := rate.NewLimiter(rate.Limit(s.cfg.RateLimitPerS), s.cfg.RateBurst)
	if s.cfg.RateLimitPerS <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	scanner := bufio.NewScanner(conn)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineBytes)

	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.handleLine(ctx, limiter, line)
		s.totalCmds.Add(1)

		buf := getResponseBuf()
		err := json.NewEncoder(buf).Encode(resp)
		if err != nil {
			putResponseBuf(buf)
			continue
		}
		writer.Write(buf.Bytes())
		putResponseBuf(buf)
		if err := writer.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) handleLine(ctx context.Context, limiter *rate.Limiter, line []byte) Response {
	req, err := decodeRequest(line)
	if err != nil {
		return Response{Error: fmt.Sprintf("malformed request: %v", err)}
	}

	if err := limiter.Wait(ctx); err != nil {
		return Response{ID: req.ID, Error: "rate limited: " + err.Error()}
	}

	if req.Method == "" {
		return Response{ID: req.ID, Error: "missing method"}
	}

	params, err := req.ParamsMap()
	if err != nil {
		return Response{ID: req.ID, Error: fmt.Sprintf("malformed params: %v", err)}
	}

	result, err := s.dispatcher.Dispatch(ctx, req.Method, params)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}
