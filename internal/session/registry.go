// Package session tracks which authenticated user owns which live
// connection. The registry is the only component that mutates this state;
// it is created at server start and injected into the realtime gateway.
package session

import (
	"sync"
)

// Registry is a bidirectional, in-memory map between connection ids and user
// ids. Entries are ephemeral: they exist only while a connection is open and
// are lost on process restart.
type Registry struct {
	mu         sync.RWMutex
	userByConn map[string]uint
	connByUser map[uint]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		userByConn: make(map[string]uint),
		connByUser: make(map[uint]string),
	}
}

// Register records the (connection, user) pair. A repeated register for the
// same connection overwrites the prior entry, and a user's newest connection
// wins for targeted delivery.
func (r *Registry) Register(connID string, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Drop a stale reverse entry if this connection was registered before.
	if prevUser, ok := r.userByConn[connID]; ok && r.connByUser[prevUser] == connID {
		delete(r.connByUser, prevUser)
	}

	r.userByConn[connID] = userID
	r.connByUser[userID] = connID
}

// Unregister removes both directions of the mapping atomically and returns
// the freed user id so callers can clean up per-user state.
func (r *Registry) Unregister(connID string) (uint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.userByConn[connID]
	if !ok {
		return 0, false
	}

	delete(r.userByConn, connID)
	// Only clear the reverse mapping if it still points at this connection;
	// a newer connection for the same user must keep its entry.
	if r.connByUser[userID] == connID {
		delete(r.connByUser, userID)
	}
	return userID, true
}

// LookupUser resolves a connection id to its authenticated user.
func (r *Registry) LookupUser(connID string) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.userByConn[connID]
	return userID, ok
}

// LookupConnection resolves a user to their current connection, if online.
func (r *Registry) LookupConnection(userID uint) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.connByUser[userID]
	return connID, ok
}

// Len reports the number of live connections, used by health reporting.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.userByConn)
}
