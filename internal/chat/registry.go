package chat

import (
	"sort"
	"strings"
	"sync"
)

// Registry is the directory of currently connected, authenticated sessions,
// keyed by username. Every operation takes the lock, so callers always see a
// consistent view: a lookup never observes a half-inserted entry, and a
// snapshot never aliases the live map.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register binds username to s. At most one live session per username: a
// second login under an in-use name is rejected with ErrUsernameTaken.
func (r *Registry) Register(username string, s *Session) error {
	username = strings.TrimSpace(username)
	if !ValidUsername(username) {
		return ErrUsernameInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[username]; exists {
		return ErrUsernameTaken
	}
	s.Username = username
	r.sessions[username] = s
	ConnectedClients.Set(float64(len(r.sessions)))
	return nil
}

// Unregister removes username from the directory. No-op when absent, so the
// teardown path may call it unconditionally.
func (r *Registry) Unregister(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[username]; !ok {
		return
	}
	delete(r.sessions, username)
	ConnectedClients.Set(float64(len(r.sessions)))
}

// Lookup returns the live session for username, if any.
func (r *Registry) Lookup(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[username]
	return s, ok
}

// Snapshot returns a point-in-time copy of all live sessions. Callers may
// iterate it while the registry keeps mutating.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Usernames returns the sorted names of all live sessions.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ValidUsername reports whether a name can be registered. Commas are refused
// because the credential file is comma-separated.
func ValidUsername(username string) bool {
	return username != "" && len(username) <= 16 && !strings.Contains(username, ",")
}
