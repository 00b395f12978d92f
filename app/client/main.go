//go:build js && wasm
// +build js,wasm

// The wasm client: binds the portable engine in pkg/app to the browser.
// It owns exactly the platform glue — DOM events in, canvas pixels out —
// and nothing else.
package main

import (
	"fmt"
	"image"
	"image/color"
	"syscall/js"

	"github.com/conundrumer/all-isbns/pkg/app"
	"github.com/conundrumer/all-isbns/pkg/geom"
	"github.com/conundrumer/all-isbns/pkg/input"
	"github.com/conundrumer/all-isbns/pkg/render"
	"github.com/conundrumer/all-isbns/pkg/scheduler"
)

var (
	document js.Value
	window   js.Value
	console  js.Value
)

func main() {
	document = js.Global().Get("document")
	window = js.Global().Get("window")
	console = js.Global().Get("console")

	input.SetDebugLog(consoleLog)
	scheduler.SetDebugLog(consoleLog)

	if document.Get("readyState").String() != "loading" {
		onReady()
	} else {
		document.Call("addEventListener", "DOMContentLoaded", js.FuncOf(func(js.Value, []js.Value) interface{} {
			onReady()
			return nil
		}))
	}

	// Keep the wasm runtime alive.
	select {}
}

func consoleLog(args ...interface{}) {
	console.Call("log", fmt.Sprint(args...))
}

func onReady() {
	canvas := document.Call("getElementById", "map")
	if canvas.IsNull() {
		console.Call("error", "missing #map canvas")
		return
	}

	w, h, ratio := canvasSize(canvas)
	a := app.New(app.Config{
		BaseURL:      "data",
		Width:        w,
		Height:       h,
		PixelRatio:   ratio,
		RequestFrame: requestFrame,
	})

	ctx := canvas.Call("getContext", "2d")
	drv := &driver{app: a, canvas: canvas, ctx: ctx, pixelRatio: ratio}
	drv.resize()

	bindPointer(canvas, a)
	bindWheel(canvas, a)
	window.Call("addEventListener", "resize", js.FuncOf(func(js.Value, []js.Value) interface{} {
		drv.resize()
		return nil
	}))

	a.Selection.Subscribe(showSelection)

	go func() {
		if err := a.Boot(); err != nil {
			console.Call("error", "boot failed: "+err.Error())
		}
	}()

	a.Run(drv.blit, &canvasSurface{drv: drv})
}

func requestFrame(callback func()) {
	var fn js.Func
	fn = js.FuncOf(func(js.Value, []js.Value) interface{} {
		fn.Release()
		callback()
		return nil
	})
	window.Call("requestAnimationFrame", fn)
}

func canvasSize(canvas js.Value) (w, h, ratio float64) {
	rect := canvas.Call("getBoundingClientRect")
	ratio = 1
	if dpr := window.Get("devicePixelRatio"); dpr.Truthy() {
		ratio = dpr.Float()
	}
	return rect.Get("width").Float(), rect.Get("height").Float(), ratio
}

// driver owns the canvas backing store and the ImageData used to blit
// composited frames.
type driver struct {
	app        *app.App
	canvas     js.Value
	ctx        js.Value
	pixelRatio float64
	imageData  js.Value
	w, h       int
}

func (d *driver) resize() {
	w, h, ratio := canvasSize(d.canvas)
	d.pixelRatio = ratio
	d.canvas.Set("width", int(w*ratio))
	d.canvas.Set("height", int(h*ratio))
	d.app.Resize(w, h, ratio)
}

func (d *driver) blit(frame *image.RGBA) {
	w, h := frame.Bounds().Dx(), frame.Bounds().Dy()
	if d.imageData.IsUndefined() || d.w != w || d.h != h {
		d.imageData = d.ctx.Call("createImageData", w, h)
		d.w, d.h = w, h
	}
	js.CopyBytesToJS(d.imageData.Get("data"), frame.Pix)
	d.ctx.Call("putImageData", d.imageData, 0, 0)
}

func bindPointer(canvas js.Value, a *app.App) {
	sample := func(ev js.Value) input.Sample {
		return input.Sample{
			Type:    pointerType(ev.Get("pointerType").String()),
			ID:      ev.Get("pointerId").Int(),
			Pos:     geom.Pt(ev.Get("offsetX").Float(), ev.Get("offsetY").Float()),
			Buttons: ev.Get("buttons").Int(),
		}
	}

	handle := func(name string, fn func(js.Value)) {
		canvas.Call("addEventListener", name, js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
			fn(args[0])
			return nil
		}))
	}

	handle("pointerdown", func(ev js.Value) {
		canvas.Call("setPointerCapture", ev.Get("pointerId"))
		a.Pointer(sample(ev))
	})
	handle("pointermove", func(ev js.Value) { a.Pointer(sample(ev)) })
	handle("pointerup", func(ev js.Value) { a.Pointer(sample(ev)) })
	handle("pointercancel", func(ev js.Value) { a.CancelPointer(ev.Get("pointerId").Int()) })
}

func bindWheel(canvas js.Value, a *app.App) {
	opts := js.Global().Get("Object").New()
	opts.Set("passive", false)
	canvas.Call("addEventListener", "wheel", js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		ev := args[0]
		ev.Call("preventDefault")
		a.Wheel(input.WheelSample{
			DeltaX: ev.Get("deltaX").Float(),
			DeltaY: ev.Get("deltaY").Float(),
			Mode:   input.DeltaMode(ev.Get("deltaMode").Int()),
			Ctrl:   ev.Get("ctrlKey").Bool(),
		})
		return nil
	}), opts)
}

func pointerType(s string) input.PointerType {
	switch s {
	case "touch":
		return input.Touch
	case "pen":
		return input.Pen
	default:
		return input.Mouse
	}
}

func showSelection(sel app.Selection) {
	info := document.Call("getElementById", "info")
	if info.IsNull() {
		return
	}
	text := sel.ISBN
	if text == "" {
		text = sel.Position
	}
	if sel.Publisher != "" {
		text += " — " + sel.Publisher
	} else if sel.Agency != "" {
		text += " — " + sel.Agency
	}
	info.Set("textContent", text)
}

// canvasSurface draws the vector overlay through the 2D context, scaling
// device-independent coordinates by the driver's current pixel ratio.
type canvasSurface struct {
	drv *driver
}

func (s *canvasSurface) StrokeRect(r geom.Rect, col color.RGBA, width float64) {
	pr := s.drv.pixelRatio
	s.drv.ctx.Set("strokeStyle", cssColor(col))
	s.drv.ctx.Set("lineWidth", width*pr)
	s.drv.ctx.Call("strokeRect", r.X*pr, r.Y*pr, r.W*pr, r.H*pr)
}

func (s *canvasSurface) FillRect(r geom.Rect, col color.RGBA) {
	pr := s.drv.pixelRatio
	s.drv.ctx.Set("fillStyle", cssColor(col))
	s.drv.ctx.Call("fillRect", r.X*pr, r.Y*pr, r.W*pr, r.H*pr)
}

func (s *canvasSurface) Text(text string, at geom.Point, size float64, col color.RGBA) {
	pr := s.drv.pixelRatio
	s.drv.ctx.Set("fillStyle", cssColor(col))
	s.drv.ctx.Set("font", fmt.Sprintf("%.0fpx sans-serif", size*pr))
	s.drv.ctx.Call("fillText", text, at.X*pr, at.Y*pr)
}

func cssColor(c color.RGBA) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.R, c.G, c.B, float64(c.A)/255)
}
