package sprite

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/sprite/atlas"
	"github.com/gogpu/sprite/internal/gpu"
)

// DrawOptions controls placement and sampling for one queued sprite.
// The zero value draws unrotated at natural scale, anchored at the
// destination's top-left, at depth 0, through the atlas.
type DrawOptions struct {
	// Origin is the pivot for rotation and scaling as a fraction of
	// the destination size: {0.5, 0.5} pivots around the center.
	Origin Point

	// Scale multiplies the destination size. Zero means {1, 1}.
	Scale Point

	// Rotation is the angle in radians around Origin.
	Rotation float32

	// Flip mirrors the source region.
	Flip Flip

	// Depth orders sprites front to back: lower depths draw first and
	// are covered by higher ones. Sprites at equal depth keep their
	// submission order.
	Depth int32

	// BypassAtlas draws straight from the source texture instead of
	// packing its region into the atlas. Use for textures whose pixels
	// change often; packed regions are copied once and never refreshed.
	BypassAtlas bool
}

// Renderer batches sprite draws into as few GPU draw calls as the
// frame's textures and depths allow. Draws submitted between Begin and
// End are queued, sorted by depth (submission order breaks ties), and
// flushed on End as one draw call per run of consecutive sprites that
// sample the same texture.
//
// Small source regions are packed into shared atlas pages on first
// draw, so sprites from different source images can still share a run.
//
// A Renderer is either GPU-backed (NewRenderer, NewStandaloneRenderer)
// or CPU-backed (NewSoftwareRenderer); the batching behavior is
// identical. Renderers are not safe for concurrent use.
type Renderer struct {
	cfg    Config
	width  int
	height int

	eng   *engine
	cam   Camera
	atlas *atlas.Allocator
	pages []*Texture
	white *Texture

	// software backend
	sw *softwareSink

	// GPU backend
	ctx           *gpu.Context
	texCache      *gpu.TextureCache
	gs            *gpuSink
	offscreen     *gpu.Texture
	surfaceFormat gputypes.TextureFormat
	onSurface     bool

	activeTarget *RenderTarget
	closed       bool
}

func newRenderer(width, height int, cfg Config) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrZeroTargetSize, width, height)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	alloc, err := atlas.NewAllocator(atlas.Config{
		PageSize: cfg.AtlasPageSize,
		MaxPages: cfg.MaxAtlasPages,
		Padding:  cfg.AtlasPadding,
	})
	if err != nil {
		return nil, err
	}
	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	white.Pix[0], white.Pix[1], white.Pix[2], white.Pix[3] = 255, 255, 255, 255
	return &Renderer{
		cfg:    cfg,
		width:  width,
		height: height,
		atlas:  alloc,
		white:  NewTexture(white),
	}, nil
}

// NewRenderer creates a GPU-backed renderer on the host application's
// device. width and height set the coordinate space of the default
// offscreen target; pass the surface size when the renderer will draw
// to a window via SetSurface.
func NewRenderer(dev DeviceHandle, width, height int, cfg Config) (*Renderer, error) {
	r, err := newRenderer(width, height, cfg)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device handle", ErrNoDevice)
	}
	ctx, err := gpu.FromProvider(dev)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	if err := r.initGPU(ctx, dev.SurfaceFormat()); err != nil {
		ctx.Destroy()
		return nil, err
	}
	Logger().Info("sprite: renderer ready",
		"width", width, "height", height, "vertices", cfg.InitialBatchSize)
	return r, nil
}

// NewStandaloneRenderer creates a GPU-backed renderer on a device it
// opens itself. For headless tools that want GPU batching without a
// host application.
func NewStandaloneRenderer(width, height int, cfg Config) (*Renderer, error) {
	r, err := newRenderer(width, height, cfg)
	if err != nil {
		return nil, err
	}
	ctx, err := gpu.Standalone()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	if err := r.initGPU(ctx, gputypes.TextureFormatUndefined); err != nil {
		ctx.Destroy()
		return nil, err
	}
	Logger().Info("sprite: standalone renderer ready", "width", width, "height", height)
	return r, nil
}

// NewSoftwareRenderer creates a CPU-backed renderer drawing into an
// in-memory pixmap. Batching, sorting, and atlas behavior match the
// GPU renderer; only rasterization differs.
func NewSoftwareRenderer(width, height int, cfg Config) (*Renderer, error) {
	r, err := newRenderer(width, height, cfg)
	if err != nil {
		return nil, err
	}
	r.sw = newSoftwareSink(width, height)
	r.eng = newEngine(cfg, r.sw)
	Logger().Info("sprite: software renderer ready", "width", width, "height", height)
	return r, nil
}

func (r *Renderer) initGPU(ctx *gpu.Context, surfaceFormat gputypes.TextureFormat) error {
	cache := gpu.NewTextureCache(ctx.Device(), ctx.Queue())
	session, err := gpu.NewSession(ctx, gputypes.TextureFormatRGBA8Unorm, r.cfg.InitialBatchSize, cache)
	if err != nil {
		cache.Destroy()
		return err
	}
	off, err := gpu.NewRenderTexture(ctx.Device(), ctx.Queue(),
		uint32(r.width), uint32(r.height), "sprite_target")
	if err != nil {
		session.Destroy()
		cache.Destroy()
		return err
	}
	session.SetTargetTexture(off)

	r.ctx = ctx
	r.texCache = cache
	r.offscreen = off
	r.surfaceFormat = surfaceFormat
	r.gs = newGPUSink(session)
	r.eng = newEngine(r.cfg, r.gs)
	return nil
}

// Size returns the renderer's target dimensions in pixels.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// Camera returns the camera passed to the current or last Begin.
func (r *Renderer) Camera() Camera { return r.cam }

// SetClearColor sets the color the target is cleared to at Begin.
// The default is transparent black.
func (r *Renderer) SetClearColor(c Color) {
	if r.sw != nil {
		r.sw.clear = c
	} else if r.gs != nil {
		r.gs.clear = c
	}
}

// Begin opens a frame viewed through cam. Every frame must be closed
// with End before the next Begin.
func (r *Renderer) Begin(cam Camera) error {
	if r.closed {
		return ErrTargetClosed
	}
	r.cam = cam
	return r.eng.begin(cam.Projection(float32(r.width), float32(r.height)))
}

// End sorts the frame's queued sprites, uploads whatever texture and
// atlas pixels changed, and issues the draw calls. The frame closes
// even when a flush fails.
func (r *Renderer) End() error {
	if r.closed {
		return ErrTargetClosed
	}
	r.syncPages()
	return r.eng.end()
}

// Stats reports counters from the last completed frame.
func (r *Renderer) Stats() Stats { return r.eng.stats() }

// AtlasStats reports lifetime atlas counters.
func (r *Renderer) AtlasStats() atlas.Stats { return r.atlas.Stats() }

// Draw queues the src region of tex to be drawn into dst. A zero src
// selects the whole texture. Draws with a texture that has no pixels
// (a lazy load that failed) are skipped and counted, not errors.
func (r *Renderer) Draw(tex *Texture, dst, src Rect, col Color, opts DrawOptions) error {
	return r.submit(r.eng, tex, dst, src, col, opts)
}

// DrawBypassAtlas queues a draw that samples tex directly, never the
// atlas. Shorthand for Draw with DrawOptions.BypassAtlas set.
func (r *Renderer) DrawBypassAtlas(tex *Texture, dst, src Rect, col Color, opts DrawOptions) error {
	opts.BypassAtlas = true
	return r.submit(r.eng, tex, dst, src, col, opts)
}

// DrawSprite queues tex at its natural size with its top-left at pos.
func (r *Renderer) DrawSprite(tex *Texture, pos Point, col Color, depth int32) error {
	return r.drawSprite(r.eng, tex, pos, col, depth)
}

// FillRect queues a solid rectangle. Filled rectangles batch with
// sprites: they sample a white texel from the atlas.
func (r *Renderer) FillRect(dst Rect, col Color, depth int32) error {
	return r.submit(r.eng, r.white, dst, r.white.Bounds(), col, DrawOptions{Depth: depth})
}

// DrawText queues s rendered with f, the first glyph's origin at pos.
// Newlines advance by the font's line height; missing glyphs are
// skipped. The string is NFC-normalized before glyph lookup.
func (r *Renderer) DrawText(f *Font, s string, pos Point, col Color, depth int32) error {
	return r.drawText(r.eng, f, s, pos, col, depth)
}

// Snapshot reads back the target as a tightly packed RGBA image. Not
// available when the renderer draws to a surface.
func (r *Renderer) Snapshot() (*image.RGBA, error) {
	switch {
	case r.closed:
		return nil, ErrTargetClosed
	case r.sw != nil:
		out := image.NewRGBA(r.sw.dst.Bounds())
		copy(out.Pix, r.sw.dst.Pix)
		return out, nil
	case r.onSurface:
		return nil, fmt.Errorf("sprite: snapshot needs an offscreen target, renderer is on a surface")
	default:
		data, err := r.gs.session.ReadTarget()
		if err != nil {
			return nil, err
		}
		out := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
		copy(out.Pix, data)
		return out, nil
	}
}

// SetSurface points a GPU renderer at an externally owned surface view
// (a hal.TextureView) for the frames that follow. The pipeline is
// rebuilt when the surface's color format differs from the current
// target's. Pass nil to return to the offscreen target. The view must
// stay valid until the next SetSurface or Close.
func (r *Renderer) SetSurface(view any) error {
	if r.gs == nil {
		return ErrNoDevice
	}
	if r.eng.inFrame {
		return ErrFrameOpen
	}
	if view == nil {
		if err := r.ensureSessionFormat(gputypes.TextureFormatRGBA8Unorm); err != nil {
			return err
		}
		r.gs.session.SetTargetTexture(r.offscreen)
		r.onSurface = false
		return nil
	}
	format := r.surfaceFormat
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	if err := r.ensureSessionFormat(format); err != nil {
		return err
	}
	if err := r.gs.session.SetSurfaceTarget(view); err != nil {
		return err
	}
	r.onSurface = true
	return nil
}

// ensureSessionFormat rebuilds the GPU session when the render format
// changes. The texture cache is shared across rebuilds, so uploaded
// textures survive; bind groups are recreated lazily.
func (r *Renderer) ensureSessionFormat(format gputypes.TextureFormat) error {
	if r.gs.session.Format() == format {
		return nil
	}
	ns, err := gpu.NewSession(r.ctx, format, r.eng.capacity(), r.texCache)
	if err != nil {
		return err
	}
	r.gs.session.Destroy()
	r.gs.session = ns
	Logger().Debug("sprite: pipeline rebuilt", "format", format)
	return nil
}

// Resize changes the renderer's coordinate space and reallocates the
// offscreen target. Must be called between frames.
func (r *Renderer) Resize(width, height int) error {
	if r.closed {
		return ErrTargetClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrZeroTargetSize, width, height)
	}
	if r.eng.inFrame {
		return ErrFrameOpen
	}
	r.width, r.height = width, height
	if r.sw != nil {
		r.sw.retarget(image.NewRGBA(image.Rect(0, 0, width, height)))
		return nil
	}
	off, err := gpu.NewRenderTexture(r.ctx.Device(), r.ctx.Queue(),
		uint32(width), uint32(height), "sprite_target")
	if err != nil {
		return err
	}
	if r.offscreen != nil {
		r.offscreen.Destroy()
	}
	r.offscreen = off
	if !r.onSurface {
		r.gs.session.SetTargetTexture(off)
	}
	return nil
}

// Close releases the renderer's GPU resources. Render targets created
// from this renderer must be closed first. Safe to call more than
// once.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if r.gs != nil {
		r.gs.session.Destroy()
		if r.offscreen != nil {
			r.offscreen.Destroy()
			r.offscreen = nil
		}
		if r.texCache != nil {
			r.texCache.Destroy()
			r.texCache = nil
		}
		if r.ctx != nil {
			r.ctx.Destroy()
			r.ctx = nil
		}
	}
}

// submit is the one path every queued quad takes, whether it came from
// the renderer or from one of its render targets.
func (r *Renderer) submit(e *engine, tex *Texture, dst, src Rect, col Color, opts DrawOptions) error {
	if !e.inFrame {
		return ErrNotInFrame
	}
	if !r.textureReady(e, tex) {
		return nil
	}
	if src.Empty() {
		src = tex.Bounds()
	}
	drawTex, quadSrc := tex, src
	if !opts.BypassAtlas {
		drawTex, quadSrc = r.resolveAtlas(e, tex, src)
	}
	var verts [VerticesPerQuad]Vertex
	err := BuildQuad(verts[:], dst, quadSrc, col, QuadOptions{
		Origin:     opts.Origin,
		Scale:      opts.Scale,
		Rotation:   opts.Rotation,
		Flip:       opts.Flip,
		Texture:    drawTex,
		TexelInset: r.cfg.HalfTexelOffset,
	})
	if err != nil {
		return err
	}
	return e.enqueue(drawTex, &verts, opts.Depth)
}

func (r *Renderer) drawSprite(e *engine, tex *Texture, pos Point, col Color, depth int32) error {
	if !e.inFrame {
		return ErrNotInFrame
	}
	if !r.textureReady(e, tex) {
		return nil
	}
	dst := Rect{X: pos.X, Y: pos.Y, W: float32(tex.width), H: float32(tex.height)}
	return r.submit(e, tex, dst, tex.Bounds(), col, DrawOptions{Depth: depth})
}

func (r *Renderer) drawText(e *engine, f *Font, s string, pos Point, col Color, depth int32) error {
	if !e.inFrame {
		return ErrNotInFrame
	}
	if f == nil {
		e.working.SkippedDraws++
		Logger().Debug("sprite: text skipped, nil font")
		return nil
	}
	pen := pos
	for _, ch := range normalizeText(s) {
		switch ch {
		case '\r':
			continue
		case '\n':
			pen.X = pos.X
			pen.Y += f.lineHeight
			continue
		}
		g, ok := f.glyphs[ch]
		if !ok {
			continue
		}
		if !g.Cell.Empty() {
			dst := Rect{
				X: pen.X + g.Offset.X,
				Y: pen.Y + g.Offset.Y,
				W: g.Cell.W,
				H: g.Cell.H,
			}
			if err := r.submit(e, f.tex, dst, g.Cell, col, DrawOptions{Depth: depth}); err != nil {
				return err
			}
		}
		pen.X += g.Advance
	}
	return nil
}

// textureReady resolves a texture's pixels, skipping the draw (and
// counting the skip) when they cannot be had.
func (r *Renderer) textureReady(e *engine, tex *Texture) bool {
	if tex == nil {
		e.working.SkippedDraws++
		Logger().Debug("sprite: draw skipped, nil texture")
		return false
	}
	if err := tex.ensureLoaded(); err != nil {
		e.working.SkippedDraws++
		Logger().Debug("sprite: draw skipped", "texture", tex.id, "error", err)
		return false
	}
	return true
}

// resolveAtlas routes a draw through the texture atlas: the smallest
// integer rectangle covering src is packed (or found) in a page, and
// the draw samples the page instead of the source texture. Fractional
// source coordinates survive as an offset within the packed region.
// Draws the atlas cannot take fall back to the source texture.
func (r *Renderer) resolveAtlas(e *engine, tex *Texture, src Rect) (*Texture, Rect) {
	if tex.volatile || tex.pix == nil {
		return tex, src
	}
	ix := int(math.Floor(float64(src.X)))
	iy := int(math.Floor(float64(src.Y)))
	iw := int(math.Ceil(float64(src.X+src.W))) - ix
	ih := int(math.Ceil(float64(src.Y+src.H))) - iy
	if ix < 0 {
		iw += ix
		ix = 0
	}
	if iy < 0 {
		ih += iy
		iy = 0
	}
	iw = min(iw, tex.width-ix)
	ih = min(ih, tex.height-iy)
	if iw <= 0 || ih <= 0 {
		return tex, src
	}

	key := atlas.Key{Texture: uint32(tex.id), X: ix, Y: iy, W: iw, H: ih}
	slice, ok := r.atlas.TryPack(key, tex.pix)
	if !ok {
		e.working.AtlasFallbacks++
		Logger().Debug("sprite: atlas fallback", "texture", tex.id, "w", iw, "h", ih)
		return tex, src
	}
	page := r.pageTexture(slice.Page)
	quadSrc := Rect{
		X: float32(slice.X) + (src.X - float32(ix)),
		Y: float32(slice.Y) + (src.Y - float32(iy)),
		W: src.W,
		H: src.H,
	}
	return page, quadSrc
}

// pageTexture returns the texture wrapping atlas page i, creating
// wrappers for pages opened since the last call.
func (r *Renderer) pageTexture(i int) *Texture {
	for len(r.pages) <= i {
		p := r.atlas.Page(len(r.pages))
		r.pages = append(r.pages, newPixmapTexture(p.Image()))
		Logger().Info("sprite: atlas page opened",
			"page", len(r.pages)-1, "size", r.atlas.PageSize())
	}
	return r.pages[i]
}

// syncPages carries atlas page dirtiness over to the page textures so
// the next flush re-uploads them.
func (r *Renderer) syncPages() {
	for i := 0; i < len(r.pages); i++ {
		p := r.atlas.Page(i)
		if p.Dirty() {
			r.pages[i].MarkDirty()
			p.MarkClean()
		}
	}
}
