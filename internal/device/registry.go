// Package device tracks live glasses connections and speaks the websocket
// transport the glasses client uses. Display writes are best-effort: the
// device may vanish at any moment and the conversation must not care.
package device

import "sync"

// Handle pushes text to one connected device's display.
type Handle interface {
	// ShowText replaces the device text wall. The returned error exists so
	// callers can discard it deliberately; a failed write must never abort
	// a turn.
	ShowText(text string) error
	Close() error
}

// Registry maps user identities to their live device handle. One handle per
// user; a reconnect replaces the previous handle (last writer wins).
type Registry struct {
	mu      sync.RWMutex
	handles map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// Register installs the handle for a user and returns the handle it
// replaced, if any. The caller decides what to do with the stale handle.
func (r *Registry) Register(userID string, h Handle) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.handles[userID]
	r.handles[userID] = h
	return old
}

// UnregisterIf removes the user's handle only when it still is h. A stale
// disconnect arriving after a reconnect must not evict the new connection.
func (r *Registry) UnregisterIf(userID string, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handles[userID] != h {
		return false
	}
	delete(r.handles, userID)
	return true
}

// IsConnected reports whether the user has a live device.
func (r *Registry) IsConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handles[userID]
	return ok
}

// Lookup returns the user's handle when connected.
func (r *Registry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[userID]
	return h, ok
}

// Count returns the number of connected devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
