package server

import (
	"sync"

	"github.com/kanungos/fundgrid/internal/pipeline"
)

// State holds the latest run result for the API. The pipeline publishes a
// complete result atomically; readers always see either nothing or a full
// consistent run.
type State struct {
	mu     sync.RWMutex
	latest *pipeline.RunResult
}

// NewState creates an empty state holder.
func NewState() *State {
	return &State{}
}

// Publish replaces the latest run result.
func (s *State) Publish(result *pipeline.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = result
}

// Latest returns the most recent run result, nil before the first run.
func (s *State) Latest() *pipeline.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
