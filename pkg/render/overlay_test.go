package render

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/conundrumer/all-isbns/pkg/dataset"
	"github.com/conundrumer/all-isbns/pkg/geom"
	"github.com/conundrumer/all-isbns/pkg/plotindex"
)

func TestOverlayHiddenWhenZoomedOut(t *testing.T) {
	o := &Overlay{}
	rec := &Recorder{}
	// Block cells are 10 screen pixels: below the fade threshold.
	tr := geom.Transform{Scale: 0.001, Width: 100, Height: 80}
	o.Draw(rec, tr, geom.Pt(50, 40))
	if len(rec.Ops) != 0 {
		t.Errorf("expected nothing drawn, got %d ops", len(rec.Ops))
	}
}

func TestOverlayGridAndHover(t *testing.T) {
	o := &Overlay{}
	rec := &Recorder{}
	// Scale 0.01: block cells are 100px (fully faded in), four-digit cells
	// are 10px (hidden). Viewport sees content [0,10000]x[0,8000].
	tr := geom.Transform{X: -50, Y: -40, Scale: 0.01, Width: 100, Height: 80}
	o.Draw(rec, tr, geom.Pt(10, 10))

	// Two visible block cells plus the hover outline.
	if got := rec.Count(OpStroke); got != 3 {
		t.Errorf("stroke count = %d, want 3", got)
	}
	if got := rec.Count(OpFill); got != 1 {
		t.Errorf("fill count = %d, want 1 (hover only)", got)
	}
	if got := rec.Count(OpText); got != 0 {
		t.Errorf("text count = %d, want 0 without names", got)
	}

	// Hover outline is the last op and covers block 00.
	last := rec.Ops[len(rec.Ops)-1]
	if last.Kind != OpStroke || last.Color != hoverColor {
		t.Errorf("last op = %+v, want hover stroke", last)
	}
	if last.Rect.X != 0 || last.Rect.Y != 0 || last.Rect.W != 100 {
		t.Errorf("hover rect = %+v, want block 00 at origin, 100px wide", last.Rect)
	}
}

func TestOverlayCursorOffContent(t *testing.T) {
	o := &Overlay{}
	rec := &Recorder{}
	tr := geom.Transform{X: -50, Y: -40, Scale: 0.01, Width: 100, Height: 80}
	// Cursor maps to content (-1000,-800): no hover cell.
	o.Draw(rec, tr, geom.Pt(-10, -10))
	if got := rec.Count(OpFill); got != 0 {
		t.Errorf("fill count = %d, want 0", got)
	}
}

func TestOverlayAgencyLabels(t *testing.T) {
	o := &Overlay{Agencies: dataset.Agencies{"0": "English language"}}
	rec := &Recorder{}
	tr := geom.Transform{X: -50, Y: -40, Scale: 0.01, Width: 100, Height: 80}
	o.Draw(rec, tr, geom.Pt(-10, -10))

	// Blocks 00 and 01 both label as the agency at prefix "0".
	if got := rec.Count(OpText); got != 2 {
		t.Errorf("text count = %d, want 2", got)
	}
	for _, op := range rec.Ops {
		if op.Kind == OpText && op.Text != "English language" {
			t.Errorf("unexpected label %q", op.Text)
		}
	}
}

func TestOverlayMembershipPasses(t *testing.T) {
	// Depth-4 plot with a single member pixel at (0,0): prefix 0000.
	plot := image.NewGray(image.Rect(0, 0, 50, 40))
	plot.Pix[0] = 255
	var buf bytes.Buffer
	if err := png.Encode(&buf, plot); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/plots/0.png" {
			w.Write(buf.Bytes())
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()
	cache := dataset.NewImageCache(dataset.NewClient(srv.URL), nil)
	ix := plotindex.New(cache, "plots", []dataset.PlotFile{{Group: 0, Strips: []string{"0"}}})

	o := &Overlay{Index: ix}
	// Scale 0.1: four-digit cells are 100px; the viewport sees content
	// [0,1000]x[0,800], i.e. cells 0000 and 0001.
	tr := geom.Transform{X: -50, Y: -40, Scale: 0.1, Width: 100, Height: 80}

	o.Draw(&Recorder{}, tr, geom.Pt(-10, -10)) // starts the plot fetch
	deadline := time.Now().Add(2 * time.Second)
	for cache.Peek("plots/0.png").State() == dataset.Pending {
		if time.Now().After(deadline) {
			t.Fatal("plot never settled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec := &Recorder{}
	o.Draw(rec, tr, geom.Pt(-10, -10))

	var veils, washes []geom.Rect
	for _, op := range rec.Ops {
		if op.Kind != OpFill {
			continue
		}
		switch op.Color.A {
		case veilColor.A:
			veils = append(veils, op.Rect)
		case washColor.A:
			washes = append(washes, op.Rect)
		}
	}
	if len(veils) != 1 || veils[0].X != 100 {
		t.Errorf("veil over non-member cell 0001 expected, got %v", veils)
	}
	if len(washes) != 1 || washes[0].X != 0 {
		t.Errorf("wash over member cell 0000 expected, got %v", washes)
	}
}
