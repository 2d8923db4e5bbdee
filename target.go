package sprite

import (
	"fmt"
	"image"

	"github.com/gogpu/sprite/internal/gpu"
)

// RenderTarget is an offscreen texture that sprites can be drawn into
// and that afterwards draws like any other texture. Targets batch with
// their own engine but share the parent renderer's atlas and uploaded
// textures, so sprites cached for the main frame stay cached inside a
// target frame.
//
// Target frames do not nest: only one target on a renderer may be
// between Begin and End at a time. The parent renderer's own frame is
// independent.
type RenderTarget struct {
	r      *Renderer
	eng    *engine
	width  int
	height int
	tex    *Texture

	sw      *softwareSink
	gs      *gpuSink
	session *gpu.Session
	gpuTex  *gpu.Texture

	closed bool
}

// NewRenderTarget creates an offscreen target of the given size.
func (r *Renderer) NewRenderTarget(width, height int) (*RenderTarget, error) {
	if r.closed {
		return nil, ErrTargetClosed
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrZeroTargetSize, width, height)
	}
	t := &RenderTarget{r: r, width: width, height: height}
	if r.sw != nil {
		t.sw = newSoftwareSink(width, height)
		t.tex = newPixmapTexture(t.sw.dst)
		t.eng = newEngine(r.cfg, t.sw)
		return t, nil
	}

	session, err := gpu.NewSession(r.ctx, r.gs.session.Format(), r.cfg.InitialBatchSize, r.texCache)
	if err != nil {
		return nil, err
	}
	gt, err := gpu.NewRenderTexture(r.ctx.Device(), r.ctx.Queue(),
		uint32(width), uint32(height), "sprite_rt")
	if err != nil {
		session.Destroy()
		return nil, err
	}
	session.SetTargetTexture(gt)
	session.SetTargetSampled(true)
	t.session = session
	t.gpuTex = gt
	t.tex = newTargetTexture(width, height)
	session.AdoptTexture(uint32(t.tex.id), gt)
	t.gs = newGPUSink(session)
	t.eng = newEngine(r.cfg, t.gs)
	Logger().Info("sprite: render target created",
		"width", width, "height", height, "texture", t.tex.id)
	return t, nil
}

// Texture returns the target's contents as a drawable texture. The
// handle changes on Resize; re-fetch it afterwards.
func (t *RenderTarget) Texture() *Texture { return t.tex }

// Size returns the target's dimensions in pixels.
func (t *RenderTarget) Size() (width, height int) { return t.width, t.height }

// Stats reports counters from the target's last completed frame.
func (t *RenderTarget) Stats() Stats { return t.eng.stats() }

// SetClearColor sets the color the target clears to at Begin.
func (t *RenderTarget) SetClearColor(c Color) {
	if t.sw != nil {
		t.sw.clear = c
	} else {
		t.gs.clear = c
	}
}

// Begin opens a frame on the target. Fails when another target on the
// same renderer is already open.
func (t *RenderTarget) Begin(cam Camera) error {
	if t.closed {
		return ErrTargetClosed
	}
	if t.eng.inFrame {
		return ErrFrameOpen
	}
	if t.r.activeTarget != nil {
		return ErrTargetNested
	}
	err := t.eng.begin(cam.Projection(float32(t.width), float32(t.height)))
	if err != nil {
		return err
	}
	t.r.activeTarget = t
	return nil
}

// End flushes and closes the target's frame. After End the target's
// texture holds the frame's result and can be drawn.
func (t *RenderTarget) End() error {
	if t.closed {
		return ErrTargetClosed
	}
	t.r.syncPages()
	err := t.eng.end()
	if t.r.activeTarget == t {
		t.r.activeTarget = nil
	}
	return err
}

// Draw queues the src region of tex into the target. See Renderer.Draw.
func (t *RenderTarget) Draw(tex *Texture, dst, src Rect, col Color, opts DrawOptions) error {
	if t.closed {
		return ErrTargetClosed
	}
	return t.r.submit(t.eng, tex, dst, src, col, opts)
}

// DrawBypassAtlas queues a draw that samples tex directly, never the
// atlas.
func (t *RenderTarget) DrawBypassAtlas(tex *Texture, dst, src Rect, col Color, opts DrawOptions) error {
	if t.closed {
		return ErrTargetClosed
	}
	opts.BypassAtlas = true
	return t.r.submit(t.eng, tex, dst, src, col, opts)
}

// DrawSprite queues tex at its natural size with its top-left at pos.
func (t *RenderTarget) DrawSprite(tex *Texture, pos Point, col Color, depth int32) error {
	if t.closed {
		return ErrTargetClosed
	}
	return t.r.drawSprite(t.eng, tex, pos, col, depth)
}

// FillRect queues a solid rectangle into the target.
func (t *RenderTarget) FillRect(dst Rect, col Color, depth int32) error {
	if t.closed {
		return ErrTargetClosed
	}
	return t.r.submit(t.eng, t.r.white, dst, t.r.white.Bounds(), col, DrawOptions{Depth: depth})
}

// DrawText queues s rendered with f into the target.
func (t *RenderTarget) DrawText(f *Font, s string, pos Point, col Color, depth int32) error {
	if t.closed {
		return ErrTargetClosed
	}
	return t.r.drawText(t.eng, f, s, pos, col, depth)
}

// Snapshot reads back the target as a tightly packed RGBA image.
func (t *RenderTarget) Snapshot() (*image.RGBA, error) {
	if t.closed {
		return nil, ErrTargetClosed
	}
	if t.sw != nil {
		out := image.NewRGBA(t.sw.dst.Bounds())
		copy(out.Pix, t.sw.dst.Pix)
		return out, nil
	}
	data, err := t.session.ReadTarget()
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	copy(out.Pix, data)
	return out, nil
}

// Resize reallocates the target. Its contents are lost and its
// previous Texture handle stops tracking it. Must be called between
// frames.
func (t *RenderTarget) Resize(width, height int) error {
	if t.closed {
		return ErrTargetClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrZeroTargetSize, width, height)
	}
	if t.eng.inFrame {
		return ErrFrameOpen
	}
	oldID := uint32(t.tex.id)
	if t.sw != nil {
		pix := image.NewRGBA(image.Rect(0, 0, width, height))
		t.sw.retarget(pix)
		t.tex = newPixmapTexture(pix)
	} else {
		gt, err := gpu.NewRenderTexture(t.r.ctx.Device(), t.r.ctx.Queue(),
			uint32(width), uint32(height), "sprite_rt")
		if err != nil {
			return err
		}
		t.session.ForgetTexture(oldID)
		t.r.gs.session.DropBind(oldID)
		t.gpuTex.Destroy()
		t.gpuTex = gt
		t.session.SetTargetTexture(gt)
		t.tex = newTargetTexture(width, height)
		t.session.AdoptTexture(uint32(t.tex.id), gt)
	}
	t.width, t.height = width, height
	Logger().Debug("sprite: render target resized",
		"width", width, "height", height, "texture", t.tex.id)
	return nil
}

// Close releases the target's GPU resources. The target and its
// texture are unusable afterwards. Safe to call more than once.
func (t *RenderTarget) Close() {
	if t.closed {
		return
	}
	t.closed = true
	if t.r.activeTarget == t {
		t.r.activeTarget = nil
	}
	if t.session != nil {
		t.session.ForgetTexture(uint32(t.tex.id))
		if t.r.gs != nil {
			t.r.gs.session.DropBind(uint32(t.tex.id))
		}
		t.session.Destroy()
		t.session = nil
		t.gpuTex.Destroy()
		t.gpuTex = nil
	}
}
