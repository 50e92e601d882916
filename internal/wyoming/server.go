package wyoming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"sync"

	"github.com/pitabwire/frame/workerpool"
	"github.com/pitabwire/util"
	"github.com/rs/xid"
)

// Handler processes the events of one client connection.
type Handler interface {
	// HandleEvent processes one incoming event. Returning an error drops
	// the connection.
	HandleEvent(ctx context.Context, ev Event) error
	// Disconnect is called once when the connection ends.
	Disconnect(ctx context.Context)
}

// HandlerFactory builds a handler for a new connection. Replies are
// written through w.
type HandlerFactory func(w *Writer, clientID string) Handler

// Server accepts Wyoming connections on a tcp://host:port, unix://path
// or stdio:// URI and runs one handler per connection.
type Server struct {
	uri        string
	newHandler HandlerFactory
	pool       workerpool.WorkerPool

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
}

// NewServer creates a server for the given URI. The worker pool is
// optional; without one, connections are handled on plain goroutines.
func NewServer(uri string, pool workerpool.WorkerPool, factory HandlerFactory) *Server {
	return &Server{
		uri:        uri,
		newHandler: factory,
		pool:       pool,
	}
}

// Addr returns the bound listener address, or nil before Run has
// started listening (and always for stdio).
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run serves connections until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	parsed, err := url.Parse(s.uri)
	if err != nil {
		return fmt.Errorf("parse server URI %q: %w", s.uri, err)
	}

	switch parsed.Scheme {
	case "stdio":
		s.serveConn(ctx, stdioConn{})
		return nil
	case "tcp":
		return s.serveListener(ctx, "tcp", parsed.Host)
	case "unix":
		path := parsed.Path
		if path == "" {
			path = parsed.Host
		}
		// A stale socket from a previous run blocks the bind.
		_ = os.Remove(path)
		return s.serveListener(ctx, "unix", path)
	default:
		return fmt.Errorf("unsupported server URI scheme %q", parsed.Scheme)
	}
}

func (s *Server) serveListener(ctx context.Context, network, address string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, network, address)
	if err != nil {
		return fmt.Errorf("listen on %s %s: %w", network, address, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	slog.InfoContext(ctx, "wyoming server listening",
		slog.String("network", network),
		slog.String("address", ln.Addr().String()),
	)

	go func() {
		<-ctx.Done()
		ln.Close()
		// Live connections sit blocked in ReadEvent; closing them is
		// what makes shutdown prompt.
		s.closeConns()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.trackConn(conn)
		serve := func() {
			defer s.untrackConn(conn)
			defer conn.Close()
			s.serveConn(ctx, conn)
		}
		if s.pool != nil {
			if err := s.pool.Submit(ctx, serve); err != nil {
				util.Log(ctx).WithError(err).Error("wyoming: submit connection to pool")
				s.untrackConn(conn)
				conn.Close()
			}
		} else {
			go serve()
		}
	}
}

func (s *Server) trackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[conn] = struct{}{}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) serveConn(ctx context.Context, conn io.ReadWriter) {
	clientID := xid.New().String()
	slog.DebugContext(ctx, "client connected", slog.String("client_id", clientID))

	reader := NewReader(conn)
	writer := NewWriter(conn)
	handler := s.newHandler(writer, clientID)
	defer handler.Disconnect(ctx)
	defer slog.DebugContext(ctx, "client disconnected", slog.String("client_id", clientID))

	for {
		if ctx.Err() != nil {
			return
		}
		ev, err := reader.ReadEvent()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				util.Log(ctx).WithError(err).Error("wyoming: read event")
			}
			return
		}
		if err := handler.HandleEvent(ctx, ev); err != nil {
			util.Log(ctx).WithError(err).Error("wyoming: handle event")
			return
		}
	}
}

// stdioConn adapts the process stdin/stdout pair to io.ReadWriter.
type stdioConn struct{}

func (stdioConn) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioConn) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
