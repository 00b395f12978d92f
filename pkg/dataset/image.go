package dataset

import (
	"bytes"
	"image"
	_ "image/png" // tile and plot rasters are PNG
	"sync"
)

// ImageState tracks one remote raster. Transitions are monotonic:
// Pending may become Loaded or NotFound, and neither ever reverts.
type ImageState int

const (
	Pending ImageState = iota
	Loaded
	NotFound
)

// ImageResource wraps one remote raster resource.
type ImageResource struct {
	mu    sync.Mutex
	state ImageState
	img   image.Image
}

// State returns the current load state.
func (r *ImageResource) State() ImageState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Image returns the decoded raster, or nil unless State is Loaded.
func (r *ImageResource) Image() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.img
}

func (r *ImageResource) settle(img image.Image) {
	r.mu.Lock()
	if r.state == Pending {
		if img != nil {
			r.state = Loaded
			r.img = img
		} else {
			r.state = NotFound
		}
	}
	r.mu.Unlock()
}

// ImageCache fetches and caches raster resources for the process lifetime,
// keyed by path. There is no eviction and no retry: the addressable set is
// finite, each raster is small, and a failed fetch is a permanent "no data"
// (documented limitation, not a bug). All consumers share one cache.
type ImageCache struct {
	mu      sync.Mutex
	client  *Client
	entries map[string]*ImageResource
	settled func()
}

// NewImageCache creates a cache over the given client. settled, if not nil,
// runs after every fetch resolves — the client wires it to the frame
// scheduler so late rasters trigger a trailing redraw.
func NewImageCache(client *Client, settled func()) *ImageCache {
	return &ImageCache{
		client:  client,
		entries: make(map[string]*ImageResource),
		settled: settled,
	}
}

// Get returns the resource for path, starting a fetch on first use. The
// caller never blocks: a Pending result is normal and the draw that asked
// simply paints without it.
func (c *ImageCache) Get(path string) *ImageResource {
	c.mu.Lock()
	r, ok := c.entries[path]
	if !ok {
		r = &ImageResource{}
		c.entries[path] = r
		go c.fetch(path, r)
	}
	c.mu.Unlock()
	return r
}

// Peek returns the cached resource without starting a fetch.
func (c *ImageCache) Peek(path string) *ImageResource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[path]
}

func (c *ImageCache) fetch(path string, r *ImageResource) {
	data, err := c.client.Get(path)
	if err != nil {
		r.settle(nil)
	} else if img, _, derr := image.Decode(bytes.NewReader(data)); derr != nil {
		r.settle(nil)
	} else {
		r.settle(img)
	}
	if c.settled != nil {
		c.settled()
	}
}
