// Package relay moves comments between overlay windows: a registry of live
// windows, the per-occupancy state machine, and the dispatcher service that
// assigns ids and forwards comments across window boundaries.
package relay

import (
	"errors"
	"fmt"

	"github.com/colonyops/danmaku/internal/core/comment"
)

// ErrInvalidTransition is returned when an occupancy is moved along an edge
// the state machine does not allow.
var ErrInvalidTransition = errors.New("invalid relay transition")

// State is the lifecycle of one comment inside one window.
type State int

const (
	// StateSpawned: placed at the right edge, not moving yet.
	StateSpawned State = iota
	// StateScrolling: running the first segment towards the left edge.
	StateScrolling
	// StateArrived: the leading edge reached the left edge; relay requested.
	StateArrived
	// StateRelayed: the next window accepted the comment.
	StateRelayed
	// StateTerminated: the chain ended in this window.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateSpawned:
		return "spawned"
	case StateScrolling:
		return "scrolling"
	case StateArrived:
		return "arrived"
	case StateRelayed:
		return "relayed"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Final reports whether no further transitions are possible.
func (s State) Final() bool {
	return s == StateRelayed || s == StateTerminated
}

var transitions = map[State][]State{
	StateSpawned:   {StateScrolling, StateTerminated},
	StateScrolling: {StateArrived, StateTerminated},
	StateArrived:   {StateRelayed, StateTerminated},
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Occupancy tracks a comment hosted by one window.
type Occupancy struct {
	Comment comment.Comment
	Info    comment.RendererInfo
	state   State
}

// NewOccupancy creates an occupancy in StateSpawned.
func NewOccupancy(c comment.Comment, info comment.RendererInfo) *Occupancy {
	return &Occupancy{Comment: c, Info: info, state: StateSpawned}
}

// State returns the current state.
func (o *Occupancy) State() State {
	return o.state
}

// Transition moves the occupancy to the given state.
func (o *Occupancy) Transition(to State) error {
	if !CanTransition(o.state, to) {
		return fmt.Errorf("%w: comment %d window %d: %s -> %s",
			ErrInvalidTransition, o.Comment.ID, o.Info.WindowIndex, o.state, to)
	}
	o.state = to
	return nil
}

// Terminate ends the occupancy from any non-final state. Returns false when it
// had already ended.
func (o *Occupancy) Terminate() bool {
	if o.state.Final() {
		return false
	}
	o.state = StateTerminated
	return true
}
