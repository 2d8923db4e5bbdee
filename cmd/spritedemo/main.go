// Command spritedemo exercises the sprite batching pipeline end to end:
// procedural textures packed into the atlas, a render-target minimap
// sampled back as a sprite, baked text, and a PNG snapshot.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"log/slog"
	"math"
	"math/rand"
	"os"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/text"
)

func main() {
	var (
		width   = flag.Int("width", 800, "image width")
		height  = flag.Int("height", 600, "image height")
		output  = flag.String("output", "demo.png", "output file")
		sprites = flag.Int("sprites", 96, "number of scattered sprites")
		seed    = flag.Int64("seed", 42, "placement seed")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		sprite.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	r, err := sprite.NewSoftwareRenderer(*width, *height, sprite.DefaultConfig())
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}
	defer r.Close()
	r.SetClearColor(sprite.RGB(0.06, 0.07, 0.12))

	ball := sprite.NewTexture(makeBall(48))
	crate := sprite.NewTexture(makeCrate(40))
	star := sprite.NewTexture(makeStar(24))

	src, err := text.NewSource(goregular.TTF)
	if err != nil {
		log.Fatalf("font: %v", err)
	}
	face, err := src.Build(text.Options{Size: 18})
	if err != nil {
		log.Fatalf("font: %v", err)
	}

	minimap, err := drawMinimap(r, *width, *height, *sprites, *seed, ball, crate)
	if err != nil {
		log.Fatalf("minimap: %v", err)
	}
	defer minimap.Close()

	if err := r.Begin(sprite.Camera{}); err != nil {
		log.Fatalf("begin: %v", err)
	}
	drawBackground(r, *width, *height)
	drawStars(r, *width, star, *seed)
	drawField(r, *width, *height, *sprites, *seed, ball, crate)
	drawOverlay(r, *width, face, minimap)
	if err := r.End(); err != nil {
		log.Fatalf("end: %v", err)
	}

	img, err := r.Snapshot()
	if err != nil {
		log.Fatalf("snapshot: %v", err)
	}
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("save: %v", err)
	}

	st := r.Stats()
	as := r.AtlasStats()
	log.Printf("saved %s (%dx%d)", *output, *width, *height)
	log.Printf("frame: %d sprites in %d batches (%d draw calls, %d fallbacks, %d skipped)",
		st.Sprites, st.Batches, st.DrawCalls, st.AtlasFallbacks, st.SkippedDraws)
	log.Printf("atlas: %d hits, %d misses, %d pages", as.Hits, as.Misses, as.Pages)
}

// drawMinimap renders the sprite field into an offscreen target at a
// fifth of world scale. The returned target's texture is sampled like
// any other sprite.
func drawMinimap(r *sprite.Renderer, w, h, count int, seed int64, ball, crate *sprite.Texture) (*sprite.RenderTarget, error) {
	rt, err := r.NewRenderTarget(w/5, h/5)
	if err != nil {
		return nil, err
	}
	rt.SetClearColor(sprite.RGBA(0, 0, 0, 0.85))
	if err := rt.Begin(sprite.Camera{Zoom: 0.2}); err != nil {
		return nil, err
	}
	drawField(rt, w, h, count, seed, ball, crate)
	if err := rt.End(); err != nil {
		return nil, err
	}
	return rt, nil
}

func drawBackground(r *sprite.Renderer, w, h int) {
	// Vertical gradient out of flat bands, far behind everything else.
	steps := 48
	for i := 0; i < steps; i++ {
		t := float32(i) / float32(steps)
		band := sprite.RGB(0.06+t*0.10, 0.07+t*0.12, 0.12+t*0.22)
		y := float32(h) * t
		_ = r.FillRect(sprite.R(0, y, float32(w), float32(h)/float32(steps)+1), band, -200)
	}
	// Ground strip.
	_ = r.FillRect(sprite.R(0, float32(h)-80, float32(w), 80), sprite.RGB(0.16, 0.13, 0.10), -100)
}

func drawStars(r *sprite.Renderer, w int, star *sprite.Texture, seed int64) {
	rng := rand.New(rand.NewSource(seed + 1))
	for i := 0; i < 40; i++ {
		x := rng.Float32() * float32(w)
		y := rng.Float32() * 180
		s := 0.3 + rng.Float32()*0.7
		_ = r.Draw(star, sprite.R(x, y, 0, 0), sprite.Rect{},
			sprite.RGBA(1, 1, 0.9, 0.4+rng.Float32()*0.5),
			sprite.DrawOptions{
				Origin:   sprite.Pt(0.5, 0.5),
				Scale:    sprite.Pt(s, s),
				Rotation: rng.Float32() * math.Pi,
				Depth:    -50,
			})
	}
}

// drawSurface is the part of Renderer and RenderTarget the scene needs.
type drawSurface interface {
	Draw(*sprite.Texture, sprite.Rect, sprite.Rect, sprite.Color, sprite.DrawOptions) error
	DrawSprite(*sprite.Texture, sprite.Point, sprite.Color, int32) error
}

// drawField scatters the sprite textures over the world. Both the main
// view and the minimap draw the same field, so placement is seeded.
func drawField(s drawSurface, w, h, count int, seed int64, ball, crate *sprite.Texture) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < count; i++ {
		x := rng.Float32() * float32(w)
		y := 120 + rng.Float32()*(float32(h)-220)
		hue := rng.Float32()
		col := sprite.RGB(0.5+0.5*hue, 0.6, 1-0.5*hue)
		flip := sprite.FlipNone
		if i%3 == 0 {
			flip = sprite.FlipHorizontal
		}
		_ = s.Draw(ball, sprite.R(x, y, 0, 0), sprite.Rect{}, col,
			sprite.DrawOptions{
				Origin:   sprite.Pt(0.5, 0.5),
				Scale:    sprite.Pt(0.5+hue, 0.5+hue),
				Rotation: float32(i) * 0.13,
				Flip:     flip,
				Depth:    int32(y),
			})
	}
	// A row of crates along the ground, drawn over the balls behind them.
	for i := 0; i < w/48; i++ {
		_ = s.DrawSprite(crate, sprite.Pt(float32(i*48+4), float32(h-60)), sprite.RGB(1, 1, 1), int32(h))
	}
}

func drawOverlay(r *sprite.Renderer, w int, face *sprite.Font, minimap *sprite.RenderTarget) {
	const margin = 12
	mw, mh := minimap.Size()
	x := float32(w - mw - margin)

	// Minimap panel with a one-pixel frame, drawn above the scene.
	_ = r.FillRect(sprite.R(x-1, margin-1, float32(mw)+2, float32(mh)+2), sprite.RGB(0.9, 0.9, 0.9), 1000)
	_ = r.Draw(minimap.Texture(), sprite.R(x, margin, 0, 0), sprite.Rect{},
		sprite.RGB(1, 1, 1), sprite.DrawOptions{Depth: 1001})

	_ = r.DrawText(face, "sprite batching demo", sprite.Pt(margin, margin), sprite.RGB(1, 1, 1), 1002)
	_ = r.DrawText(face, "balls, crates and a minimap\nfrom one shared atlas",
		sprite.Pt(margin, margin+face.LineHeight()+6), sprite.RGBA(1, 1, 1, 0.7), 1002)
}

func savePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// makeBall draws a shaded disc with a highlight.
func makeBall(d int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, d, d))
	r := float64(d) / 2
	for y := 0; y < d; y++ {
		for x := 0; x < d; x++ {
			dx := float64(x) - r + 0.5
			dy := float64(y) - r + 0.5
			dist := math.Sqrt(dx*dx+dy*dy) / r
			if dist > 1 {
				continue
			}
			shade := 1 - 0.6*dist
			hx := dx/r + 0.4
			hy := dy/r + 0.4
			if hx*hx+hy*hy < 0.15 {
				shade = 1.2
			}
			setPixel(img, x, y, shade, shade, shade, 1)
		}
	}
	return img
}

// makeCrate draws a bordered box with a diagonal brace.
func makeCrate(s int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s, s))
	for y := 0; y < s; y++ {
		for x := 0; x < s; x++ {
			edge := x < 3 || y < 3 || x >= s-3 || y >= s-3
			diag := abs(x-y) < 2 || abs(x+y-s+1) < 2
			switch {
			case edge:
				setPixel(img, x, y, 0.45, 0.30, 0.15, 1)
			case diag:
				setPixel(img, x, y, 0.55, 0.38, 0.20, 1)
			default:
				setPixel(img, x, y, 0.72, 0.52, 0.28, 1)
			}
		}
	}
	return img
}

// makeStar draws a four-pointed sparkle.
func makeStar(s int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s, s))
	c := float64(s-1) / 2
	for y := 0; y < s; y++ {
		for x := 0; x < s; x++ {
			dx := math.Abs(float64(x) - c)
			dy := math.Abs(float64(y) - c)
			v := 1 - (dx+dy)/c - 3*math.Min(dx, dy)/c
			if v <= 0 {
				continue
			}
			setPixel(img, x, y, 1, 1, 0.85, v)
		}
	}
	return img
}

func setPixel(img *image.RGBA, x, y int, r, g, b, a float64) {
	clamp := func(v float64) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v * 255)
	}
	o := img.PixOffset(x, y)
	img.Pix[o+0] = clamp(r)
	img.Pix[o+1] = clamp(g)
	img.Pix[o+2] = clamp(b)
	img.Pix[o+3] = clamp(a)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
