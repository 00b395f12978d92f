package input

import "github.com/conundrumer/all-isbns/pkg/geom"

// DeltaMode is the unit a raw wheel event reports its deltas in.
type DeltaMode int

const (
	DeltaPixel DeltaMode = iota
	DeltaLine
	DeltaPage
)

// Per-mode factors approximating a consistent visual scroll speed.
const (
	lineFactor = 16
	pageFactor = 100
)

// WheelEvent is one normalized wheel delivery: deltas accumulated over the
// frame, plus the source classification.
type WheelEvent struct {
	Delta    geom.Point
	Pinch    bool // trackpad pinch-to-zoom gesture
	Trackpad bool // source classified as a trackpad
}

// WheelSample is a raw wheel observation. Ctrl is the modifier browsers set
// on trackpad pinch gestures.
type WheelSample struct {
	DeltaX float64
	DeltaY float64
	Mode   DeltaMode
	Ctrl   bool
}

type wheelState struct {
	pending  *WheelEvent
	sent     bool
	trackpad bool // one-way latch for the whole session
}

// WheelInput ingests one raw wheel sample. Deltas arriving within the same
// frame accumulate; the classification latches to trackpad as soon as any
// sample reports motion on both axes simultaneously, and never unlatches.
func (n *Normalizer) WheelInput(s WheelSample) {
	dx, dy := s.DeltaX, s.DeltaY
	switch s.Mode {
	case DeltaLine:
		dx *= lineFactor
		dy *= lineFactor
	case DeltaPage:
		dx *= pageFactor
		dy *= pageFactor
	}

	if dx != 0 && dy != 0 {
		n.wheel.trackpad = true
	}

	ev := WheelEvent{
		Delta:    geom.Pt(dx, dy),
		Pinch:    s.Ctrl,
		Trackpad: n.wheel.trackpad,
	}

	if p := n.wheel.pending; p != nil {
		ev.Delta = p.Delta.Add(ev.Delta)
		ev.Pinch = ev.Pinch || p.Pinch
		n.wheel.pending = &ev
		return
	}

	if !n.wheel.sent {
		n.wheel.sent = true
		if n.handler.Wheel != nil {
			n.handler.Wheel(ev)
		}
		return
	}
	n.wheel.pending = &ev
}

func (n *Normalizer) flushWheel() {
	if n.wheel.pending != nil {
		ev := *n.wheel.pending
		n.wheel.pending = nil
		ev.Trackpad = n.wheel.trackpad
		if n.handler.Wheel != nil {
			n.handler.Wheel(ev)
		}
	} else {
		n.wheel.sent = false
	}
}
