package store

import (
	"context"
	"sync"

	"chem-ca/internal/evolve"
)

// MemoryRecorder keeps every recorded frame in memory.
type MemoryRecorder struct {
	mu     sync.Mutex
	frames []evolve.Frame
}

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record implements evolve.Recorder.
func (m *MemoryRecorder) Record(_ context.Context, f evolve.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, f)
	return nil
}

// Frames returns the recorded frames in order.
func (m *MemoryRecorder) Frames() []evolve.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]evolve.Frame(nil), m.frames...)
}

// Last returns the most recent frame.
func (m *MemoryRecorder) Last() (evolve.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return evolve.Frame{}, false
	}
	return m.frames[len(m.frames)-1], true
}
