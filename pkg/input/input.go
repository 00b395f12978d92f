// Package input normalizes raw platform pointer and wheel events into a
// uniform stream of down/up/drag/hover/wheel callbacks. High-frequency
// streams are rate-limited to the display refresh: drags once per frame per
// pointer, hovers and wheel once per frame globally, with trailing-edge
// coalescing so the last event of a burst always lands while the first event
// after an idle period is delivered immediately.
package input

import "github.com/conundrumer/all-isbns/pkg/geom"

// debugLog is nil unless the host wires it up (the wasm client points it at
// console.log). Keep hot paths silent by default.
var debugLog func(args ...interface{})

// SetDebugLog installs a logging hook for input diagnostics.
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// PointerType identifies the source device of a pointer.
type PointerType int

const (
	Mouse PointerType = iota
	Touch
	Pen
)

// Button indices follow the platform convention.
const (
	ButtonPrimary   = 0
	ButtonAuxiliary = 1
	ButtonSecondary = 2
)

// Event is one normalized pointer event.
type Event struct {
	Type    PointerType
	ID      int
	Button  int // meaningful for down/up events
	Pos     geom.Point
	Primary bool // true for events from the first pointer that went down
}

// Handler receives the normalized stream. Nil fields are skipped.
type Handler struct {
	Down  func(Event)
	Up    func(Event)
	Drag  func(Event)
	Hover func(Event)
	Wheel func(WheelEvent)
}

// Sample is a raw pointer observation: current position plus the full
// buttons bitmask. Touch and pen contact carry bit 0 as an implicit primary
// press since those devices have no native button concept.
type Sample struct {
	Type    PointerType
	ID      int
	Pos     geom.Point
	Buttons int
}

type pointerState struct {
	typ         PointerType
	buttons     int
	pos         geom.Point
	pendingDrag *Event
	sentDrag    bool // a drag was already delivered this frame
}

// Normalizer converts Samples into Handler callbacks. It is not safe for
// concurrent use; everything runs on the UI event loop.
type Normalizer struct {
	handler  Handler
	pointers map[int]*pointerState
	primary  int // id of the primary pointer, -1 when none
	hover    *Event
	sentHov  bool
	wheel    wheelState
}

// NewNormalizer creates a normalizer dispatching into h.
func NewNormalizer(h Handler) *Normalizer {
	return &Normalizer{
		handler:  h,
		pointers: make(map[int]*pointerState),
		primary:  -1,
	}
}

// Pointer ingests one raw pointer sample. Button transitions are derived by
// diffing the previous bitmask against the new one, so a second button
// pressed mid-drag still produces a discrete down event before drag dispatch
// resumes.
func (n *Normalizer) Pointer(s Sample) {
	p := n.pointers[s.ID]
	if p == nil {
		p = &pointerState{typ: s.Type, pos: s.Pos}
		n.pointers[s.ID] = p
	}
	p.typ = s.Type

	if changed := p.buttons ^ s.Buttons; changed != 0 {
		if p.buttons == 0 && n.primary < 0 {
			n.primary = s.ID
		}
		for b := 0; changed>>b != 0; b++ {
			if changed&(1<<b) == 0 {
				continue
			}
			ev := Event{Type: s.Type, ID: s.ID, Button: buttonFromBit(b), Pos: s.Pos, Primary: s.ID == n.primary}
			if s.Buttons&(1<<b) != 0 {
				if n.handler.Down != nil {
					n.handler.Down(ev)
				}
			} else {
				if n.handler.Up != nil {
					n.handler.Up(ev)
				}
			}
		}
		p.buttons = s.Buttons
		p.pos = s.Pos
		// A press or release resets drag coalescing for this pointer.
		p.pendingDrag = nil
		if s.Buttons == 0 {
			n.dropPointer(s.ID)
		}
		return
	}

	moved := s.Pos != p.pos
	p.pos = s.Pos
	if !moved {
		return
	}

	ev := Event{Type: s.Type, ID: s.ID, Pos: s.Pos, Primary: s.ID == n.primary}
	if s.Buttons != 0 {
		if !p.sentDrag {
			p.sentDrag = true
			if n.handler.Drag != nil {
				n.handler.Drag(ev)
			}
			return
		}
		p.pendingDrag = &ev
		return
	}

	if !n.sentHov {
		n.sentHov = true
		if n.handler.Hover != nil {
			n.handler.Hover(ev)
		}
		return
	}
	n.hover = &ev
}

// Cancel releases every pressed button of the pointer at its last known
// position. Unknown ids are ignored.
func (n *Normalizer) Cancel(id int) {
	p, ok := n.pointers[id]
	if !ok {
		if debugLog != nil {
			debugLog("[input] cancel for unknown pointer", id)
		}
		return
	}
	n.Pointer(Sample{Type: p.typ, ID: id, Pos: p.pos, Buttons: 0})
}

// Frame flushes pending coalesced events. The host calls it once per
// animation frame.
func (n *Normalizer) Frame() {
	for _, p := range n.pointers {
		if p.pendingDrag != nil {
			ev := *p.pendingDrag
			p.pendingDrag = nil
			if n.handler.Drag != nil {
				n.handler.Drag(ev)
			}
		} else {
			p.sentDrag = false
		}
	}
	if n.hover != nil {
		ev := *n.hover
		n.hover = nil
		if n.handler.Hover != nil {
			n.handler.Hover(ev)
		}
	} else {
		n.sentHov = false
	}
	n.flushWheel()
}

func (n *Normalizer) dropPointer(id int) {
	delete(n.pointers, id)
	if id == n.primary {
		n.primary = -1
	}
}

// buttonFromBit maps a buttons-bitmask bit index to a button number. The
// platform bitmask swaps the auxiliary and secondary buttons relative to the
// button numbering: bit 1 is the secondary button, bit 2 the auxiliary.
func buttonFromBit(bit int) int {
	switch bit {
	case 1:
		return ButtonSecondary
	case 2:
		return ButtonAuxiliary
	default:
		return bit
	}
}
