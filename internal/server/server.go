package server

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/atomicswap/atomengine/internal/engine"
	"github.com/atomicswap/atomengine/internal/protocol"
	"github.com/atomicswap/atomengine/pkg/logging"
)

// Version is logged when the listener comes up. It is not sent on the wire.
const Version = "0.1.1"

// readChunkSize is the per-read buffer for a connection.
const readChunkSize = 4096

// ErrNoPort reports a zero listen port at startup.
var ErrNoPort = errors.New("need set a port")

// Server accepts wallet client connections and funnels their commands
// through a single coarse mutex: each command's store mutation, log append,
// reply, and fan-out run as one critical section, so the engine state only
// ever moves in a total order that matches the command log.
type Server struct {
	port     int
	store    *engine.Store
	clog     *engine.CommandLog
	registry *Registry
	disp     *Dispatcher
	log      *logging.Logger

	mu   sync.Mutex // serializes commands, registry changes, and sends
	ln   net.Listener
	wg   sync.WaitGroup
	quit chan struct{}
}

// New creates a server over a recovered store and its command log.
func New(port int, store *engine.Store, clog *engine.CommandLog, log *logging.Logger) *Server {
	registry := NewRegistry(log)
	return &Server{
		port:     port,
		store:    store,
		clog:     clog,
		registry: registry,
		disp:     NewDispatcher(store, clog, registry, log),
		log:      log,
		quit:     make(chan struct{}),
	}
}

// Start binds the listener and begins accepting connections. A zero port is
// a startup failure.
func (s *Server) Start() error {
	if s.port == 0 {
		return ErrNoPort
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	s.ln = ln

	s.wg.Add(1)
	go s.acceptLoop()

	s.log.Info("Atom engine was started", "port", s.port, "version", Version)
	return nil
}

// Stop closes the listener and every client connection, then waits for the
// connection goroutines to drain.
func (s *Server) Stop() {
	close(s.quit)
	if s.ln != nil {
		_ = s.ln.Close()
	}

	s.mu.Lock()
	s.registry.CloseAll()
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("Atom engine was closed")
}

// Addr returns the listener address, for tests.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stats returns the active connection, order, and trade counts.
func (s *Server) Stats() (conns, orders, trades int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Len(), s.store.OrderCount(), s.store.TradeCount()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn owns one connection: it registers a session, frames inbound
// bytes into LF-terminated commands, and executes each command under the
// command mutex. The session's partial-line buffer dies with the connection.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	s.mu.Lock()
	sess := s.registry.Add(conn)
	active := s.registry.Len()
	s.mu.Unlock()
	s.log.Info("New connection", "conn", sess.id, "active", active)

	chunk := make([]byte, readChunkSize)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			s.mu.Lock()
			sess.buf = append(sess.buf, chunk[:n]...)
			lines, rest := protocol.ExtractLines(sess.buf)
			for _, line := range lines {
				if len(line) == 0 {
					continue
				}
				s.disp.Dispatch(sess, line)
			}
			if lines != nil {
				sess.buf = append(sess.buf[:0:0], rest...)
			}
			s.mu.Unlock()
		}
		if err != nil {
			break
		}
	}

	s.mu.Lock()
	s.registry.Remove(sess.id)
	active = s.registry.Len()
	s.mu.Unlock()
	_ = conn.Close()
	s.log.Info("Client disconnected", "conn", sess.id, "active", active)
}
