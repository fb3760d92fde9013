package chat

import (
	"sync"

	"RoomieChat/tools/safe"
)

// DeliveryResult classifies the outcome of one realtime push attempt.
// Delivery never fails an overall send operation; NotConnected and
// TransportError are absorbed by callers after cleanup.
type DeliveryResult int

const (
	Delivered DeliveryResult = iota
	NotConnected
	TransportError
)

func (r DeliveryResult) String() string {
	switch r {
	case Delivered:
		return "delivered"
	case NotConnected:
		return "not-connected"
	case TransportError:
		return "transport-error"
	}
	return "unknown"
}

// Registry holds at most one live client per user identity. It is the only
// shared mutable state between connection loops; everything goes through
// its methods, the map itself is never handed out.
type Registry struct {
	mu     sync.RWMutex
	byUser map[int64]*Client

	// onEvict runs (on its own goroutine) after a client is removed because
	// a send failed mid-flight, so presence can announce the loss.
	onEvict func(*Client)
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[int64]*Client)}
}

// OnEvict installs the transport-failure hook. Set once during wiring,
// before connections are accepted.
func (r *Registry) OnEvict(f func(*Client)) { r.onEvict = f }

// Register installs c as the current connection for its user and returns
// the replaced client, if any. The registry stops routing to the old client
// immediately; closing it is the caller's job.
func (r *Registry) Register(c *Client) (prev *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.byUser[c.UserID]
	r.byUser[c.UserID] = c
	return prev
}

// Unregister removes the mapping only when connID still identifies the
// stored client, so a stale disconnect cannot evict a newer session.
// Reports whether a removal happened.
func (r *Registry) Unregister(userID int64, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[userID]
	if !ok || c.ConnID != connID {
		return false
	}
	delete(r.byUser, userID)
	return true
}

// Lookup never blocks on I/O.
func (r *Registry) Lookup(userID int64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// Snapshot returns the current clients; used by broadcast paths, which must
// tolerate entries disconnecting after the snapshot was taken.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byUser))
	for _, c := range r.byUser {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Send pushes payload to the user's live connection. A transport-level
// failure (closed client, stalled queue) evicts the entry and reports
// TransportError; the error itself never reaches the caller.
func (r *Registry) Send(userID int64, payload []byte) DeliveryResult {
	c, ok := r.Lookup(userID)
	if !ok {
		return NotConnected
	}
	if err := c.Enqueue(payload); err != nil {
		if r.Unregister(userID, c.ConnID) && r.onEvict != nil {
			hook := r.onEvict
			safe.Go(func() { hook(c) })
		}
		c.Close()
		return TransportError
	}
	return Delivered
}
