// Package app assembles the map engine: one App owns the dataset client,
// the image cache, the camera controller, the frame scheduler, the
// compositor and the overlay, and exposes the handful of entry points a
// platform driver needs — raw input samples in, finished frames out.
// Everything here is portable; the wasm client is a thin shell around it.
package app

import (
	"fmt"
	"image"
	"image/color"

	"github.com/conundrumer/all-isbns/pkg/dataset"
	"github.com/conundrumer/all-isbns/pkg/geom"
	"github.com/conundrumer/all-isbns/pkg/grid"
	"github.com/conundrumer/all-isbns/pkg/input"
	"github.com/conundrumer/all-isbns/pkg/plotindex"
	"github.com/conundrumer/all-isbns/pkg/reactive"
	"github.com/conundrumer/all-isbns/pkg/render"
	"github.com/conundrumer/all-isbns/pkg/scheduler"
	"github.com/conundrumer/all-isbns/pkg/viewport"
)

// Config sets up a new App.
type Config struct {
	BaseURL      string // dataset root, e.g. "/data" or a CDN origin
	Width        float64
	Height       float64
	PixelRatio   float64
	RequestFrame scheduler.RequestFrame
}

// Selection is the position resolved from a click.
type Selection struct {
	Position  string // full ten-digit position
	ISBN      string // ISBN-13 with check digit, "" outside bookland
	Agency    string
	Publisher string
}

// App is the engine facade. Input methods must be called from the UI
// event loop; rendering happens inside scheduler frames.
type App struct {
	client *dataset.Client
	images *dataset.ImageCache
	sched  *scheduler.Scheduler
	view   *viewport.Controller
	norm   *input.Normalizer
	comp   *render.Compositor

	// Layers is the user-ordered layer stack; replace it wholesale to
	// change what the map shows.
	Layers *reactive.Value[[]render.Layer]
	// Selection publishes the most recent click resolution.
	Selection *reactive.Value[Selection]

	// boot holds the collaborators fetched at startup. Publishing them
	// through the snapshot store gives frames already in flight a
	// consistent view no matter which goroutine Boot ran on.
	boot *reactive.Value[bootData]
}

// bootData is everything Boot resolves, replaced wholesale when it lands.
type bootData struct {
	manifest   dataset.Manifest
	agencies   dataset.Agencies
	publishers *dataset.Publishers
	index      *plotindex.Index
	overlay    *render.Overlay
	overviews  []render.Overview
}

// DefaultLayers is the stack shown before the user configures anything:
// every known ISBN in white, with a floor so isolated books stay visible
// from a distance.
func DefaultLayers() []render.Layer {
	return []render.Layer{
		{
			ID:      "all",
			Visible: true,
			Dataset: "all",
			Color:   color.RGBA{R: 235, G: 235, B: 235, A: 255},
			Floor:   48,
		},
		{
			ID:      "md5",
			Dataset: "md5",
			Color:   color.RGBA{R: 80, G: 220, B: 120, A: 255},
			Floor:   48,
		},
	}
}

// New creates an app. Call Boot from a goroutine afterwards, then Run.
func New(cfg Config) *App {
	a := &App{}
	a.client = dataset.NewClient(cfg.BaseURL)
	a.sched = scheduler.New(cfg.RequestFrame)
	a.images = dataset.NewImageCache(a.client, a.sched.MarkDirty)
	a.view = viewport.NewController(cfg.Width, cfg.Height, cfg.PixelRatio, viewport.DefaultOptions())
	a.view.Subscribe(func(viewport.State) { a.sched.MarkDirty() })
	a.view.OnClick(a.click)
	a.norm = input.NewNormalizer(a.view.Handler())
	a.comp = render.NewCompositor(a.images, nil)
	a.boot = reactive.NewValue(bootData{overlay: &render.Overlay{}})
	a.boot.Subscribe(func(bootData) { a.sched.MarkDirty() })
	a.Layers = reactive.NewValue(DefaultLayers())
	a.Layers.Subscribe(func([]render.Layer) { a.sched.MarkDirty() })
	a.Selection = reactive.NewValue(Selection{})
	return a
}

// Boot fetches the manifest and the agency registry and wires up the
// publisher shards and the spatial index. The app keeps drawing whatever
// it can while boot is in flight; completion schedules a redraw.
func (a *App) Boot() error {
	manifestData, err := a.client.Get("manifest.json")
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	m, err := dataset.ParseManifest(manifestData)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	// The map works without names; a missing registry degrades labels only.
	var agencies dataset.Agencies
	if data, err := a.client.Get("agencies.json"); err == nil {
		agencies, _ = dataset.ParseAgencies(data)
	}

	b := bootData{
		manifest:   m,
		agencies:   agencies,
		publishers: dataset.NewPublishers(a.client, "publishers", m.PublisherKeys(), a.sched.MarkDirty),
		index:      plotindex.New(a.images, "plots", m.PlotFiles("plots")),
	}
	b.overlay = &render.Overlay{
		Agencies:   b.agencies,
		Publishers: b.publishers,
		Index:      b.index,
	}

	// The coarsest plot doubles as the far-out backdrop.
	if plots := m.PlotFiles("plots"); len(plots) > 0 && len(plots[0].Strips) == 1 {
		b.overviews = []render.Overview{{
			Path: "plots/" + plots[0].Strips[0] + ".png",
			Tint: color.RGBA{R: 70, G: 70, B: 85, A: 255},
		}}
	}

	a.boot.Set(b) // subscriber schedules the redraw
	return nil
}

// Manifest returns the boot manifest, nil before Boot completes.
func (a *App) Manifest() dataset.Manifest { return a.boot.Get().manifest }

// Run installs the frame function and schedules the first frame. blit
// receives the composited frame buffer (reused between frames); surface
// receives the vector overlay, drawn after the blit.
func (a *App) Run(blit func(*image.RGBA), surface render.Surface) {
	a.sched.OnFrame(func() {
		a.norm.Frame() // flush coalesced input; may dirty the next frame

		b := a.boot.Get()
		a.comp.SetOverviews(b.overviews)

		st := a.view.State()
		frame := a.comp.Render(st.Transform(), st.PixelRatio, a.Layers.Get())
		blit(frame)
		b.overlay.Draw(surface, st.Transform(), geom.Pt(st.CursorX, st.CursorY))
	})
	a.sched.MarkDirty()
}

// Pointer feeds one raw pointer sample.
func (a *App) Pointer(s input.Sample) { a.norm.Pointer(s) }

// Wheel feeds one raw wheel sample.
func (a *App) Wheel(s input.WheelSample) { a.norm.WheelInput(s) }

// CancelPointer releases a pointer at its last position.
func (a *App) CancelPointer(id int) { a.norm.Cancel(id) }

// Resize updates the viewport dimensions.
func (a *App) Resize(width, height, pixelRatio float64) {
	a.view.Resize(width, height, pixelRatio)
}

// View returns the camera state.
func (a *App) View() viewport.State { return a.view.State() }

// click resolves a tap into a Selection: the exact position, its ISBN,
// and the names registered around it.
func (a *App) click(at geom.Point) {
	st := a.view.State()
	p := st.Transform().ScreenToContent(at)
	if !grid.ContentRect.Contains(p) {
		return
	}
	pos := grid.PrefixAt(p.X, p.Y, 10)
	sel := Selection{Position: pos, ISBN: grid.ISBN13(pos)}

	b := a.boot.Get()
	if b.agencies != nil {
		if _, name, ok := b.agencies.LongestMatch(pos); ok {
			sel.Agency = name
		}
	}
	if b.publishers != nil {
		// Longest registered publisher prefix wins; a shard still loading
		// just means the next click after it lands resolves fully.
		for l := plotindex.MaxDepth; l >= plotindex.MinDepth; l-- {
			if names, loaded := b.publishers.Lookup(pos[:l]); loaded && len(names) > 0 {
				sel.Publisher = names[0]
				break
			}
		}
	}
	a.Selection.Set(sel)
}
