// Package server implements the TCP session layer of the atom engine: the
// listener, the session registry with its address routing index, and the
// command dispatcher with its fan-out policy.
package server

import (
	"net"
	"time"

	"github.com/atomicswap/atomengine/pkg/logging"
)

// writeTimeout bounds a single frame write to a peer socket.
const writeTimeout = 10 * time.Second

// session tracks one client connection and its receive-side byte buffer.
// The buffer holds the bytes after the last LF and dies with the session.
type session struct {
	id   int64
	conn net.Conn
	buf  []byte
}

// Registry tracks open connections and the address claim index. Addresses
// are last-writer-wins: the connection that most recently named an address
// owns it, and every claim by a connection is dropped when it closes.
//
// All methods are called with the server's command mutex held.
type Registry struct {
	conns  map[int64]*session
	addrs  map[string]int64
	nextID int64
	log    *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		conns: make(map[int64]*session),
		addrs: make(map[string]int64),
		log:   log,
	}
}

// Add registers a connection under the next connection id.
func (r *Registry) Add(conn net.Conn) *session {
	r.nextID++
	s := &session{id: r.nextID, conn: conn}
	r.conns[s.id] = s
	return s
}

// Remove drops the session's buffer, every address claim pointing at it, and
// the connection record. Commands running after Remove never observe a
// dangling address.
func (r *Registry) Remove(id int64) {
	s, ok := r.conns[id]
	if !ok {
		return
	}
	for addr, owner := range r.addrs {
		if owner == id {
			delete(r.addrs, addr)
		}
	}
	s.buf = nil
	delete(r.conns, id)
}

// Claim records the connection as the current owner of addr.
func (r *Registry) Claim(addr string, id int64) {
	r.addrs[addr] = id
}

// Owner returns the connection id that last claimed addr, regardless of
// whether that connection is still open.
func (r *Registry) Owner(addr string) (int64, bool) {
	id, ok := r.addrs[addr]
	return id, ok
}

// Lookup resolves addr to an open connection id.
func (r *Registry) Lookup(addr string) (int64, bool) {
	id, ok := r.addrs[addr]
	if !ok {
		return 0, false
	}
	if _, open := r.conns[id]; !open {
		return 0, false
	}
	return id, true
}

// Len returns the number of open connections.
func (r *Registry) Len() int {
	return len(r.conns)
}

// Send writes one frame to the given connection. Frames to unknown or dead
// connections are silently dropped; a write error is logged and the command
// proceeds.
func (r *Registry) Send(id int64, frame []byte) {
	s, ok := r.conns[id]
	if !ok {
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := s.conn.Write(frame); err != nil {
		r.log.Debug("dropping frame for peer", "conn", id, "error", err)
	}
}

// Broadcast sends a frame to every open connection except the given ids.
func (r *Registry) Broadcast(frame []byte, except ...int64) {
	for id := range r.conns {
		skip := false
		for _, ex := range except {
			if id == ex {
				skip = true
				break
			}
		}
		if !skip {
			r.Send(id, frame)
		}
	}
}

// CloseAll closes every open connection. Used during shutdown.
func (r *Registry) CloseAll() {
	for id, s := range r.conns {
		_ = s.conn.Close()
		r.Remove(id)
	}
}
