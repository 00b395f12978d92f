// Package scheduler coalesces redraw requests onto animation frames. Any
// number of state changes or asynchronous load completions within a frame
// collapse into a single draw; a request arriving while a draw is running
// schedules exactly one trailing frame, so late tiles always appear without
// polling.
package scheduler

import "sync"

// debugLog is nil unless the host installs a hook.
var debugLog func(args ...interface{})

// SetDebugLog installs a logging hook for scheduling diagnostics.
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// RequestFrame asks the host for one callback on the next animation frame.
// The wasm client backs this with requestAnimationFrame; tests drive it by
// hand.
type RequestFrame func(callback func())

// Scheduler owns the per-frame draw function.
type Scheduler struct {
	mu        sync.Mutex
	request   RequestFrame
	frame     func()
	scheduled bool
}

// New creates a scheduler on the given frame source.
func New(request RequestFrame) *Scheduler {
	return &Scheduler{request: request}
}

// OnFrame sets the function run once per scheduled frame.
func (s *Scheduler) OnFrame(fn func()) {
	s.mu.Lock()
	s.frame = fn
	s.mu.Unlock()
}

// MarkDirty schedules a frame if none is pending. Safe to call from any
// goroutine; an asynchronous tile load calls it to trigger the trailing
// redraw that paints the late-arriving pixels.
func (s *Scheduler) MarkDirty() {
	s.mu.Lock()
	if s.scheduled {
		s.mu.Unlock()
		return
	}
	s.scheduled = true
	request := s.request
	s.mu.Unlock()

	if debugLog != nil {
		debugLog("[scheduler] frame scheduled")
	}
	request(s.runFrame)
}

func (s *Scheduler) runFrame() {
	s.mu.Lock()
	s.scheduled = false
	frame := s.frame
	s.mu.Unlock()

	if frame != nil {
		frame()
	}
}
