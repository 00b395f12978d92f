// Package viewport owns the camera. It interprets the normalized pointer
// stream as pan and pinch gestures, clamps the scale, and publishes every
// state change through an observable snapshot store. One pressed pointer
// pans; two pan and zoom together; rotation is never modeled, two-finger
// twist is ignored by design.
package viewport

import (
	"math"

	"github.com/conundrumer/all-isbns/pkg/geom"
	"github.com/conundrumer/all-isbns/pkg/input"
	"github.com/conundrumer/all-isbns/pkg/reactive"
)

// State is one immutable camera snapshot. It is replaced wholesale on every
// transition so downstream readers never observe a partial update.
type State struct {
	X          float64
	Y          float64
	Scale      float64
	CursorX    float64
	CursorY    float64
	Width      float64
	Height     float64
	PixelRatio float64
}

// Transform returns the camera transform of this snapshot.
func (s State) Transform() geom.Transform {
	return geom.Transform{X: s.X, Y: s.Y, Scale: s.Scale, Width: s.Width, Height: s.Height}
}

// Options bound the camera.
type Options struct {
	MinScale       float64
	MaxScale       float64
	WheelZoomSpeed float64 // scale factor exponent per wheel delta unit
}

// DefaultOptions spans from the whole plane comfortably on screen to a few
// hundred pixels per ISBN.
func DefaultOptions() Options {
	return Options{MinScale: 0.005, MaxScale: 200, WheelZoomSpeed: 0.002}
}

// pointerRecord tracks one pressed pointer. The content anchor is re-derived
// from the screen point and the current camera whenever the pointer set
// changes size, so entering or leaving pinch never jumps.
type pointerRecord struct {
	id      int
	screen  geom.Point
	content geom.Point
}

// Controller is the gesture state machine. Idle, panning, or pinching,
// keyed by how many pointers are pressed. Not safe for concurrent use;
// everything runs on the UI event loop.
type Controller struct {
	opts    Options
	store   *reactive.Value[State]
	records []pointerRecord
	moved   bool
	onClick func(geom.Point)
}

// NewController creates a controller for a viewport of the given size. The
// initial camera fits the whole content plane, centered.
func NewController(width, height, pixelRatio float64, opts Options) *Controller {
	scale := geom.Clamp(fitScale(width, height), opts.MinScale, opts.MaxScale)
	st := State{
		X:          -25000 * scale,
		Y:          -20000 * scale,
		Scale:      scale,
		Width:      width,
		Height:     height,
		PixelRatio: pixelRatio,
	}
	return &Controller{
		opts:  opts,
		store: reactive.NewValue(st),
	}
}

// fitScale returns the scale that fits the full 50000x40000 content plane.
func fitScale(width, height float64) float64 {
	return math.Min(width/50000, height/40000)
}

// State returns the current snapshot.
func (c *Controller) State() State {
	return c.store.Get()
}

// Subscribe registers an observer notified synchronously after every state
// change; it returns an unsubscribe function.
func (c *Controller) Subscribe(fn func(State)) func() {
	return c.store.Subscribe(fn)
}

// OnClick registers the callback fired when a gesture ends without any
// movement, with the screen coordinates of the release.
func (c *Controller) OnClick(fn func(geom.Point)) {
	c.onClick = fn
}

// Handler returns the input.Handler that drives this controller.
func (c *Controller) Handler() input.Handler {
	return input.Handler{
		Down:  c.pointerDown,
		Up:    c.pointerUp,
		Drag:  c.pointerDrag,
		Hover: c.pointerHover,
		Wheel: c.wheel,
	}
}

// setState clamps the scale and publishes. Every mutation funnels through
// here; observers are notified synchronously, never buffered.
func (c *Controller) setState(st State) {
	st.Scale = geom.Clamp(st.Scale, c.opts.MinScale, c.opts.MaxScale)
	c.store.Set(st)
}

// Resize updates the viewport dimensions, keeping the content point at the
// viewport center fixed.
func (c *Controller) Resize(width, height, pixelRatio float64) {
	st := c.store.Get()
	st.Width = width
	st.Height = height
	st.PixelRatio = pixelRatio
	c.setState(st)
	c.reanchor()
}

func (c *Controller) pointerDown(ev input.Event) {
	if ev.Button != input.ButtonPrimary {
		return
	}
	if len(c.records) == 0 {
		c.moved = false
	}
	tr := c.store.Get().Transform()
	c.records = append(c.records, pointerRecord{
		id:      ev.ID,
		screen:  ev.Pos,
		content: tr.ScreenToContent(ev.Pos),
	})
	if len(c.records) == 2 {
		// Entering pinch: both anchors re-derive against the current
		// state before any zoom math runs.
		c.reanchor()
	}
}

func (c *Controller) pointerUp(ev input.Event) {
	if ev.Button != input.ButtonPrimary {
		return
	}
	idx := c.indexOf(ev.ID)
	if idx < 0 {
		return // unknown pointer: idempotent no-op
	}
	c.records = append(c.records[:idx], c.records[idx+1:]...)
	if len(c.records) == 0 {
		if !c.moved && c.onClick != nil {
			c.onClick(ev.Pos)
		}
		return
	}
	// Leaving pinch: the survivor re-anchors against the current state.
	c.reanchor()
}

func (c *Controller) pointerDrag(ev input.Event) {
	idx := c.indexOf(ev.ID)
	if idx < 0 {
		return
	}
	c.moved = true

	st := c.store.Get()
	st.CursorX, st.CursorY = ev.Pos.X, ev.Pos.Y

	switch len(c.records) {
	case 1:
		d := geom.PanDelta(c.records[idx].screen, ev.Pos)
		c.records[idx].screen = ev.Pos
		st.X += d.X
		st.Y += d.Y
		c.setState(st)
	default:
		c.records[idx].screen = ev.Pos
		a, b := c.records[0], c.records[1]
		tr := st.Transform().DoubleAnchor(
			a.content, b.content, a.screen, b.screen,
			c.opts.MinScale, c.opts.MaxScale,
		)
		st.X, st.Y, st.Scale = tr.X, tr.Y, tr.Scale
		c.setState(st)
	}
}

func (c *Controller) pointerHover(ev input.Event) {
	st := c.store.Get()
	st.CursorX, st.CursorY = ev.Pos.X, ev.Pos.Y
	c.setState(st)
}

// wheel handles zoom and trackpad panning independently of the pointer
// state machine. Trackpad two-axis scrolling pans directly; mouse wheels and
// trackpad pinches zoom anchored at the cursor.
func (c *Controller) wheel(ev input.WheelEvent) {
	st := c.store.Get()
	if ev.Trackpad && !ev.Pinch {
		st.X -= ev.Delta.X
		st.Y -= ev.Delta.Y
		c.setState(st)
		c.reanchor()
		return
	}

	factor := math.Exp(-ev.Delta.Y * c.opts.WheelZoomSpeed)
	cursor := geom.Pt(st.CursorX, st.CursorY)
	tr := st.Transform().ZoomAt(cursor, factor, c.opts.MinScale, c.opts.MaxScale)
	st.X, st.Y, st.Scale = tr.X, tr.Y, tr.Scale
	c.setState(st)
	c.reanchor()
}

// reanchor re-derives every pressed pointer's content anchor from its
// screen point and the current state.
func (c *Controller) reanchor() {
	if len(c.records) == 0 {
		return
	}
	tr := c.store.Get().Transform()
	for i := range c.records {
		c.records[i].content = tr.ScreenToContent(c.records[i].screen)
	}
}

func (c *Controller) indexOf(id int) int {
	for i := range c.records {
		if c.records[i].id == id {
			return i
		}
	}
	return -1
}
