// Package session holds the client-side conversation state: a session
// identifier and an append-only conversation history.
package session

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"voice-assistant-client/internal/models"
)

// Session correlates a client's conversation and uploaded files with
// backend-side context. The id is generated client-side; it is not
// guaranteed globally unique, only collision-improbable.
//
// All methods are safe for concurrent use. History must be read at the
// moment of send (not cached earlier) since Reset can happen between
// user actions.
type Session struct {
	mu      sync.Mutex
	id      string
	history []models.Message
}

// New creates a session with a fresh id and empty history.
func New() *Session {
	return &Session{id: generateID()}
}

func generateID() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), randomSuffix(13))
}

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}

// ID returns the current session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Append adds one message to the history. Existing entries are never
// mutated.
func (s *Session) Append(role models.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, models.Message{Role: role, Content: content})
}

// History returns a copy of the conversation history in insertion order.
func (s *Session) History() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.Message, len(s.history))
	copy(cp, s.history)
	return cp
}

// Len returns the number of history entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Reset replaces the session wholesale: new id, empty history. The backend
// is not notified; it simply sees the new id on the next message. Returns
// the new id.
func (s *Session) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = generateID()
	s.history = nil
	return s.id
}
