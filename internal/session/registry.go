// Package session tracks the browser sessions a server has opened and which
// one tool calls act on.
package session

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
)

// ErrNoActiveSession is returned by Driver when no current session is set or
// the current id no longer names a live entry.
var ErrNoActiveSession = errors.New("no active browser session")

// Registry maps session ids to driver handles and remembers the current
// session. The zero value is not usable; call NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]browser.Driver
	current string
	logger  *zap.Logger
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		drivers: make(map[string]browser.Driver),
		logger:  logger,
	}
}

// AddDriver stores d under id, replacing any existing entry.
func (r *Registry) AddDriver(id string, d browser.Driver) {
	r.mu.Lock()
	_, replaced := r.drivers[id]
	r.drivers[id] = d
	r.mu.Unlock()

	r.logger.Debug("session added", zap.String("session_id", id), zap.Bool("replaced", replaced))
}

// SetCurrentSession makes id current. The id is not checked; a dangling
// current id surfaces later as ErrNoActiveSession.
func (r *Registry) SetCurrentSession(id string) {
	r.mu.Lock()
	r.current = id
	r.mu.Unlock()
}

// CurrentSession returns the current id and whether one is set.
func (r *Registry) CurrentSession() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.current != ""
}

// Driver returns the handle of the current session.
func (r *Registry) Driver() (browser.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == "" {
		return nil, ErrNoActiveSession
	}
	d, ok := r.drivers[r.current]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return d, nil
}

// Lookup returns the handle stored under id.
func (r *Registry) Lookup(id string) (browser.Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[id]
	return d, ok
}

// RemoveDriver deletes id. If id is the current session, current is cleared
// as well. Removing an unknown id is a no-op.
func (r *Registry) RemoveDriver(id string) {
	r.mu.Lock()
	_, existed := r.drivers[id]
	delete(r.drivers, id)
	wasCurrent := r.current == id && id != ""
	if wasCurrent {
		r.current = ""
	}
	r.mu.Unlock()

	if existed {
		r.logger.Debug("session removed", zap.String("session_id", id), zap.Bool("was_current", wasCurrent))
	}
}

// ClearDrivers drops every entry without quitting the handles.
func (r *Registry) ClearDrivers() {
	r.mu.Lock()
	r.drivers = make(map[string]browser.Driver)
	r.mu.Unlock()
}

// ResetCurrentSession unsets the current session.
func (r *Registry) ResetCurrentSession() {
	r.mu.Lock()
	r.current = ""
	r.mu.Unlock()
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drivers)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.drivers))
	for id := range r.drivers {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of the id to handle map.
func (r *Registry) Snapshot() map[string]browser.Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]browser.Driver, len(r.drivers))
	for id, d := range r.drivers {
		out[id] = d
	}
	return out
}
