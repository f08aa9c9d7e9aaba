package relay

import "sync"

// Pusher is the write side of a live connection: a non-blocking, best-effort
// send. A false return means the payload was dropped because the peer is slow
// or gone; callers never retry.
type Pusher interface {
	TrySend(payload []byte) bool
}

// Registry maps a user identity to its single live connection. It is created
// once in the composition root and handed by reference to every handler that
// needs live push. Each method is one atomic step under the lock; no I/O ever
// happens while it is held.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Pusher
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Pusher)}
}

// Announce binds identity to conn, displacing any previous binding.
// Last announce wins; repeating the same announce is a no-op.
func (r *Registry) Announce(identity string, conn Pusher) {
	r.mu.Lock()
	r.conns[identity] = conn
	r.mu.Unlock()
}

// Lookup returns the live connection bound to identity, if any.
func (r *Registry) Lookup(identity string) (Pusher, bool) {
	r.mu.RLock()
	conn, ok := r.conns[identity]
	r.mu.RUnlock()
	return conn, ok
}

// Remove unbinds identity only while conn is still the connection on file.
// A late close event from a displaced connection must not evict its
// replacement.
func (r *Registry) Remove(identity string, conn Pusher) {
	r.mu.Lock()
	if cur, ok := r.conns[identity]; ok && cur == conn {
		delete(r.conns, identity)
	}
	r.mu.Unlock()
}

// Online reports whether identity currently has a live connection.
func (r *Registry) Online(identity string) bool {
	r.mu.RLock()
	_, ok := r.conns[identity]
	r.mu.RUnlock()
	return ok
}
