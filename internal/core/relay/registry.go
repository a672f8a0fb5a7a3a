package relay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/colonyops/danmaku/internal/core/comment"
)

// ErrUnknownWindow is returned for an index that was never registered.
var ErrUnknownWindow = errors.New("unknown window")

// Target is a window that can host comments.
type Target interface {
	// Deliver hands a comment to the window. It must not block.
	Deliver(d comment.Delivery)
	// RelayResult tells the window whether the comment it asked to relay was
	// accepted by a later window. It must not block.
	RelayResult(commentID int64, relayed bool)
}

type slot struct {
	target Target
	alive  bool
}

// Registry is an arena of windows indexed by position in the relay chain.
// Destroyed windows leave a dead slot behind; indices are never reused or
// compacted, so an index stays valid for the life of the process.
type Registry struct {
	mu    sync.RWMutex
	slots []slot
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a live window and returns its index.
func (r *Registry) Add(t Target) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots = append(r.slots, slot{target: t, alive: true})
	return len(r.slots) - 1
}

// Destroy marks the window at i dead. Destroying a dead window is a no-op.
func (r *Registry) Destroy(i int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.slots) {
		return fmt.Errorf("destroy %d: %w", i, ErrUnknownWindow)
	}
	r.slots[i].alive = false
	return nil
}

// Alive reports whether the window at i exists and has not been destroyed.
func (r *Registry) Alive(i int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return i >= 0 && i < len(r.slots) && r.slots[i].alive
}

// Get returns the live window at i.
func (r *Registry) Get(i int) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.slots) || !r.slots[i].alive {
		return nil, false
	}
	return r.slots[i].target, true
}

// NextAlive returns the lowest index j > i whose window is alive. The search
// only moves forward and never wraps.
func (r *Registry) NextAlive(i int) (int, Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for j := max(i+1, 0); j < len(r.slots); j++ {
		if r.slots[j].alive {
			return j, r.slots[j].target, true
		}
	}
	return -1, nil, false
}

// FirstAlive returns the live window with the lowest index.
func (r *Registry) FirstAlive() (int, Target, bool) {
	return r.NextAlive(-1)
}

// Len returns the number of slots, dead or alive.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// AliveIndices returns the indices of all live windows in order.
func (r *Registry) AliveIndices() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []int
	for i, s := range r.slots {
		if s.alive {
			out = append(out, i)
		}
	}
	return out
}
