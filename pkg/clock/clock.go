// Package clock supplies per-tick time deltas to state machines.
//
// A host advances a clock once per frame; machines read the delta for the
// time mode of their running transition. Scaled time follows the host's time
// scale (slow motion, speed up, freeze). Unscaled time is real elapsed time.
package clock

import (
	"sync"
	"time"

	"github.com/aretw0/vsm/pkg/domain"
)

// Source returns the delta of the current tick for a time mode.
type Source interface {
	Delta(mode domain.TimeMode) time.Duration
}

// Frame is a Source driven by real elapsed time and a time scale.
// Safe for concurrent use.
type Frame struct {
	mu       sync.RWMutex
	scale    float64
	scaled   time.Duration
	unscaled time.Duration
}

// NewFrame creates a frame clock with a time scale of 1.
func NewFrame() *Frame {
	return &Frame{scale: 1}
}

// Advance starts a new tick that lasted real of wall time.
func (f *Frame) Advance(real time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unscaled = real
	f.scaled = time.Duration(float64(real) * f.scale)
}

// SetScale changes the time scale from the next Advance on.
// Negative values are clamped to 0, which freezes scaled time.
func (f *Frame) SetScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scale = scale
}

// Scale returns the current time scale.
func (f *Frame) Scale() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.scale
}

// Delta implements Source.
func (f *Frame) Delta(mode domain.TimeMode) time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if mode == domain.TimeModeUnscaled {
		return f.unscaled
	}
	return f.scaled
}

// Manual is a Source whose deltas are set explicitly.
// Used by tests and scripted runs.
type Manual struct {
	Scaled   time.Duration
	Unscaled time.Duration
}

// NewManual creates a manual clock where both deltas equal step.
func NewManual(step time.Duration) *Manual {
	return &Manual{Scaled: step, Unscaled: step}
}

// Set changes both deltas.
func (m *Manual) Set(scaled, unscaled time.Duration) {
	m.Scaled = scaled
	m.Unscaled = unscaled
}

// Delta implements Source.
func (m *Manual) Delta(mode domain.TimeMode) time.Duration {
	if mode == domain.TimeModeUnscaled {
		return m.Unscaled
	}
	return m.Scaled
}

// Stopped is a Source that never advances.
var Stopped Source = stopped{}

type stopped struct{}

func (stopped) Delta(domain.TimeMode) time.Duration { return 0 }
