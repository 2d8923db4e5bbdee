package atlas

import (
	"image"
	"image/draw"
	"sync/atomic"
)

// Config holds allocator configuration.
type Config struct {
	// PageSize is the width = height of each page.
	// Must be power of 2. Default: 2048
	PageSize int

	// MaxPages limits the number of pages.
	// Default: 8
	MaxPages int

	// Padding between packed regions to prevent bleeding.
	// Default: 1
	Padding int
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: 2048,
		MaxPages: 8,
		Padding:  1,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PageSize < 64 {
		return &ConfigError{Field: "PageSize", Reason: "must be at least 64"}
	}
	if c.PageSize > 8192 {
		return &ConfigError{Field: "PageSize", Reason: "must be at most 8192"}
	}
	if c.PageSize&(c.PageSize-1) != 0 {
		return &ConfigError{Field: "PageSize", Reason: "must be power of 2"}
	}
	if c.MaxPages < 1 {
		return &ConfigError{Field: "MaxPages", Reason: "must be at least 1"}
	}
	if c.MaxPages > 256 {
		return &ConfigError{Field: "MaxPages", Reason: "must be at most 256"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	if c.Padding >= c.PageSize/4 {
		return &ConfigError{Field: "Padding", Reason: "must be less than a quarter of PageSize"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

// Key identifies a packed region: an integer pixel rectangle of one
// source texture. The same key always resolves to the same slice, so
// repeated draws of a sprite cost one map lookup.
type Key struct {
	// Texture is the caller's identity for the source image.
	Texture uint32
	// X, Y, W, H is the region within the source, in whole pixels.
	X, Y, W, H int
}

// Slice is where a key's pixels landed: a page index and the pixel
// rectangle within that page.
type Slice struct {
	Page       int
	X, Y, W, H int
}

// Page is one atlas page: a CPU-side RGBA image plus its packer.
// The renderer wraps pages in textures and uploads them when dirty.
type Page struct {
	img    *image.RGBA
	packer *Shelf
	dirty  bool
}

func newPage(size, padding int) *Page {
	return &Page{
		img:    image.NewRGBA(image.Rect(0, 0, size, size)),
		packer: NewShelf(size, size, padding),
	}
}

// Image returns the page's CPU pixels.
func (p *Page) Image() *image.RGBA { return p.img }

// Dirty reports whether the page has pixels the GPU has not seen.
func (p *Page) Dirty() bool { return p.dirty }

// MarkClean records that the page's pixels were uploaded.
func (p *Page) MarkClean() { p.dirty = false }

// Utilization returns the fraction of the page covered by regions.
func (p *Page) Utilization() float64 { return p.packer.Utilization() }

// Allocator packs texture regions into shared pages. Lookups of
// already-packed keys are cheap; a miss blits the region's pixels into
// the first page with room, opening a new page when allowed.
//
// The allocator is not safe for concurrent use; it belongs to one
// renderer's frame loop. Stats may be read from any goroutine.
type Allocator struct {
	cfg    Config
	pages  []*Page
	lookup map[Key]Slice

	hits     atomic.Uint64
	misses   atomic.Uint64
	failures atomic.Uint64
}

// NewAllocator creates an empty allocator.
func NewAllocator(cfg Config) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Allocator{
		cfg:    cfg,
		pages:  make([]*Page, 0, cfg.MaxPages),
		lookup: make(map[Key]Slice),
	}, nil
}

// PageSize returns the configured page dimension.
func (a *Allocator) PageSize() int { return a.cfg.PageSize }

// PageCount returns the number of pages opened so far.
func (a *Allocator) PageCount() int { return len(a.pages) }

// Page returns the i-th page, or nil when out of range.
func (a *Allocator) Page(i int) *Page {
	if i < 0 || i >= len(a.pages) {
		return nil
	}
	return a.pages[i]
}

// TryPack resolves key to its slice, packing the region out of src on
// first sight. It returns ok=false when the region cannot live in the
// atlas: too large for a page, or every page full and no new page
// allowed. Callers fall back to drawing from the source directly.
func (a *Allocator) TryPack(key Key, src *image.RGBA) (Slice, bool) {
	if s, ok := a.lookup[key]; ok {
		a.hits.Add(1)
		return s, true
	}
	if key.W <= 0 || key.H <= 0 ||
		key.W+a.cfg.Padding > a.cfg.PageSize || key.H+a.cfg.Padding > a.cfg.PageSize {
		a.failures.Add(1)
		return Slice{}, false
	}

	for i, p := range a.pages {
		if x, y, ok := p.packer.Allocate(key.W, key.H); ok {
			return a.place(key, src, i, x, y), true
		}
	}
	if len(a.pages) >= a.cfg.MaxPages {
		a.failures.Add(1)
		return Slice{}, false
	}
	p := newPage(a.cfg.PageSize, a.cfg.Padding)
	a.pages = append(a.pages, p)
	x, y, ok := p.packer.Allocate(key.W, key.H)
	if !ok {
		a.failures.Add(1)
		return Slice{}, false
	}
	return a.place(key, src, len(a.pages)-1, x, y), true
}

// Has reports whether key is already packed, without packing it.
func (a *Allocator) Has(key Key) bool {
	_, ok := a.lookup[key]
	return ok
}

// Reset forgets every packed region and clears all pages for reuse.
// Existing Slice values become invalid.
func (a *Allocator) Reset() {
	for _, p := range a.pages {
		p.packer.Reset()
		clear(p.img.Pix)
		p.dirty = true
	}
	clear(a.lookup)
}

// place blits the key's region of src into page i at (x, y) and
// records the slice.
func (a *Allocator) place(key Key, src *image.RGBA, i, x, y int) Slice {
	a.misses.Add(1)
	p := a.pages[i]
	if src != nil {
		r := image.Rect(key.X, key.Y, key.X+key.W, key.Y+key.H).Intersect(src.Bounds())
		if !r.Empty() {
			draw.Draw(p.img, image.Rect(x, y, x+r.Dx(), y+r.Dy()), src, r.Min, draw.Src)
		}
	}
	p.dirty = true
	s := Slice{Page: i, X: x, Y: y, W: key.W, H: key.H}
	a.lookup[key] = s
	return s
}

// Stats is a point-in-time snapshot of allocator activity.
type Stats struct {
	// Hits counts lookups answered from the packed set.
	Hits uint64
	// Misses counts regions packed for the first time.
	Misses uint64
	// Failures counts requests the atlas had to turn away.
	Failures uint64
	// Pages is the number of pages open.
	Pages int
}

// Stats returns current counters. Safe to call from any goroutine,
// though Pages may lag a concurrent TryPack.
func (a *Allocator) Stats() Stats {
	return Stats{
		Hits:     a.hits.Load(),
		Misses:   a.misses.Load(),
		Failures: a.failures.Load(),
		Pages:    len(a.pages),
	}
}
