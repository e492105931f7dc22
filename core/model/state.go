// Package model provides the shared estimator-state abstraction. Every
// estimator in the library composes a StateManager to track whether it has
// been fitted, so accessors can fail with a NotFittedError instead of
// returning garbage.
package model

import "sync"

// StateManager tracks the fitted state of an estimator. Safe for concurrent
// readers; fitting itself is a single-writer operation.
type StateManager struct {
	mu     sync.RWMutex
	fitted bool
}

// NewStateManager creates a StateManager in the not-fitted state.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether the estimator has been successfully fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the estimator as fitted. Called by estimator
// implementations after a successful fit, never by end users.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	s.fitted = true
	s.mu.Unlock()
}

// Reset returns the estimator to the not-fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	s.fitted = false
	s.mu.Unlock()
}
