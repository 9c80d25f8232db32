// Package pipeline turns one user input into one spoken assistant reply,
// driving either transport mode through a strict per-turn step order.
package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a conversation turn.
type State int

const (
	// StateOpen - turn started, no backend result yet.
	StateOpen State = iota
	// StateTranscribed - user audio recognized as text (voice turns only).
	StateTranscribed
	// StateResponded - assistant text received; history updated.
	StateResponded
	// StateSpoken - synthesized audio handed to the player. Terminal.
	StateSpoken
	// StateFailed - the turn was aborted; no further steps run. Terminal.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateTranscribed:
		return "TRANSCRIBED"
	case StateResponded:
		return "RESPONDED"
	case StateSpoken:
		return "SPOKEN"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (SPOKEN or FAILED).
func (s State) IsTerminal() bool {
	return s == StateSpoken || s == StateFailed
}

// Errors for invalid turn transitions.
var (
	ErrTurnFinished       = errors.New("turn already finished")
	ErrOutOfOrderStep     = errors.New("pipeline step out of order")
	ErrAlreadyTranscribed = errors.New("transcription already recorded for this turn")
)

// Lifecycle manages the state machine for a single turn.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	OPEN → TRANSCRIBED → RESPONDED → SPOKEN
//	  │                      ↑
//	  └──────────────────────┘  (text turns skip transcription)
//
// Fail() moves any non-terminal state to FAILED. Steps are strictly
// sequential within a turn; there is no speculative overlap.
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

// NewLifecycle creates a turn lifecycle in OPEN state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateOpen}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// MarkTranscribed records the transcription step. Voice turns only; valid
// from OPEN.
func (l *Lifecycle) MarkTranscribed() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateOpen:
		l.state = StateTranscribed
		return nil
	case StateTranscribed:
		return ErrAlreadyTranscribed
	case StateSpoken, StateFailed:
		return ErrTurnFinished
	default:
		return ErrOutOfOrderStep
	}
}

// MarkResponded records the assistant reply. Valid from OPEN (text turns)
// or TRANSCRIBED (voice turns).
func (l *Lifecycle) MarkResponded() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateOpen, StateTranscribed:
		l.state = StateResponded
		return nil
	case StateSpoken, StateFailed:
		return ErrTurnFinished
	default:
		return ErrOutOfOrderStep
	}
}

// MarkSpoken records playback of the synthesized reply. Valid from
// RESPONDED only.
func (l *Lifecycle) MarkSpoken() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateResponded:
		l.state = StateSpoken
		return nil
	case StateSpoken, StateFailed:
		return ErrTurnFinished
	default:
		return ErrOutOfOrderStep
	}
}

// Fail aborts the turn. Valid from any non-terminal state; returns true if
// the turn was moved to FAILED, false if it was already terminal.
// A failure never crosses the turn boundary.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateFailed
	return true
}
