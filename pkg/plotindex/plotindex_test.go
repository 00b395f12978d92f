package plotindex

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/conundrumer/all-isbns/pkg/dataset"
	"github.com/conundrumer/all-isbns/pkg/geom"
)

// servePlots builds an index over synthesized rasters. files maps resource
// names (without extension) to images.
func servePlots(t *testing.T, files map[string]*image.Gray, plots []dataset.PlotFile) (*Index, func()) {
	t.Helper()
	encoded := make(map[string][]byte)
	for name, img := range files {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		encoded["/plots/"+name+".png"] = buf.Bytes()
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if data, ok := encoded[r.URL.Path]; ok {
			w.Write(data)
			return
		}
		http.NotFound(w, r)
	}))
	cache := dataset.NewImageCache(dataset.NewClient(srv.URL), nil)
	return New(cache, "plots", plots), srv.Close
}

// warm queries once to start the fetches, then polls until a repeat query
// returns results or the deadline passes.
func warm(t *testing.T, ix *Index, depth int, rect geom.Rect) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if got := ix.Query(depth, rect, nil); got != nil {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatal("query never produced results")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestQueryUnrotated(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 50, 40))
	img.Pix[3*img.Stride+5] = 255 // plot pixel (5,3) -> prefix 0035

	ix, done := servePlots(t, map[string]*image.Gray{"0": img},
		[]dataset.PlotFile{{Group: 0, Strips: []string{"0"}}})
	defer done()

	rect := geom.Rect{X: 5000, Y: 3000, W: 999, H: 999}
	got := warm(t, ix, 4, rect)
	if len(got) != 1 || got[0] != "0035" {
		t.Errorf("got %v, want [0035]", got)
	}

	// A query elsewhere finds nothing once the raster is loaded.
	if got := ix.Query(4, geom.Rect{X: 20000, Y: 0, W: 500, H: 500}, nil); got != nil {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestQueryRotatedStrips(t *testing.T) {
	// Depth 5 plots are 50x400 and stored rotated a quarter turn counter-
	// clockwise, so the stored raster is 400x50. Split it into two
	// vertically-stacked 400x25 strips. Plot pixel (5,37) lands at stored
	// (37,44): strip 1, row 19.
	strip0 := image.NewGray(image.Rect(0, 0, 400, 25))
	strip1 := image.NewGray(image.Rect(0, 0, 400, 25))
	strip1.Pix[19*strip1.Stride+37] = 255

	ix, done := servePlots(t, map[string]*image.Gray{"1r_0": strip0, "1r_1": strip1},
		[]dataset.PlotFile{{Group: 1, Rotated: true, Strips: []string{"1r_0", "1r_1"}}})
	defer done()

	rect := geom.Rect{X: 5000, Y: 3700, W: 999, H: 99}
	got := warm(t, ix, 5, rect)
	if len(got) != 1 || got[0] != "00357" {
		t.Errorf("got %v, want [00357]", got)
	}
}

func TestQueryAncestorDedup(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 400, 25))
	img.Pix[19*img.Stride+37] = 255
	strip0 := image.NewGray(image.Rect(0, 0, 400, 25))

	ix, done := servePlots(t, map[string]*image.Gray{"1r_0": strip0, "1r_1": img},
		[]dataset.PlotFile{{Group: 1, Rotated: true, Strips: []string{"1r_0", "1r_1"}}})
	defer done()

	rect := geom.Rect{X: 5000, Y: 3700, W: 999, H: 99}
	warm(t, ix, 5, rect)

	seen := ResultSet{"0035": {}}
	if got := ix.Query(5, rect, seen); got != nil {
		t.Errorf("expected ancestor to suppress %v", got)
	}

	seen = ResultSet{}
	got := ix.Query(5, rect, seen)
	if len(got) != 1 || got[0] != "00357" {
		t.Errorf("got %v, want [00357]", got)
	}
	if _, ok := seen["00357"]; !ok {
		t.Error("match must be recorded in seen")
	}
}

func TestQueryOutOfRangeDepth(t *testing.T) {
	ix, done := servePlots(t, nil, nil)
	defer done()
	if got := ix.Query(3, geom.Rect{W: 50000, H: 40000}, nil); got != nil {
		t.Errorf("expected nil for depth 3, got %v", got)
	}
	if got := ix.Query(10, geom.Rect{W: 50000, H: 40000}, nil); got != nil {
		t.Errorf("expected nil for depth 10, got %v", got)
	}
	// Depth with no listed rasters.
	if got := ix.Query(4, geom.Rect{W: 50000, H: 40000}, nil); got != nil {
		t.Errorf("expected nil for unlisted depth, got %v", got)
	}
}

func ExampleResultSet_HasAncestor() {
	seen := ResultSet{"0035": {}}
	fmt.Println(seen.HasAncestor("003571"), seen.HasAncestor("003671"))
	// Output: true false
}
