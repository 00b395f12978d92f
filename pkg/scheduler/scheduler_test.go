package scheduler

import "testing"

// manualFrames queues frame callbacks for explicit pumping.
type manualFrames struct {
	queue []func()
}

func (m *manualFrames) request(cb func()) {
	m.queue = append(m.queue, cb)
}

func (m *manualFrames) pump() {
	q := m.queue
	m.queue = nil
	for _, cb := range q {
		cb()
	}
}

func TestMarkDirtyCoalesces(t *testing.T) {
	var frames manualFrames
	s := New(frames.request)

	draws := 0
	s.OnFrame(func() { draws++ })

	s.MarkDirty()
	s.MarkDirty()
	s.MarkDirty()

	if len(frames.queue) != 1 {
		t.Fatalf("expected 1 scheduled frame, got %d", len(frames.queue))
	}
	frames.pump()
	if draws != 1 {
		t.Errorf("expected 1 draw, got %d", draws)
	}
}

func TestDirtyDuringDrawSchedulesTrailingFrame(t *testing.T) {
	var frames manualFrames
	s := New(frames.request)

	draws := 0
	s.OnFrame(func() {
		draws++
		if draws == 1 {
			// A tile load finishing mid-draw wants one more frame.
			s.MarkDirty()
		}
	})

	s.MarkDirty()
	frames.pump()
	if len(frames.queue) != 1 {
		t.Fatalf("expected a trailing frame, got %d", len(frames.queue))
	}
	frames.pump()
	if draws != 2 {
		t.Errorf("expected 2 draws, got %d", draws)
	}
	if len(frames.queue) != 0 {
		t.Errorf("no further frames expected, got %d", len(frames.queue))
	}
}

func TestIdleAfterFrame(t *testing.T) {
	var frames manualFrames
	s := New(frames.request)
	s.OnFrame(func() {})

	s.MarkDirty()
	frames.pump()

	s.MarkDirty()
	if len(frames.queue) != 1 {
		t.Errorf("expected a fresh frame after idle, got %d", len(frames.queue))
	}
}
