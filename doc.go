// Package sprite batches 2D sprite and text draws into few GPU draw
// calls.
//
// # Overview
//
// Draws submitted between Begin and End are queued, not drawn. At End
// the queue is sorted by depth (submission order breaks ties among
// equal depths) and walked once; consecutive sprites that sample the
// same texture become a single draw call. To keep runs long, small
// source regions are packed into shared atlas pages on first use, so
// sprites cut from different images still share a texture.
//
// # Quick Start
//
//	import "github.com/gogpu/sprite"
//
//	r, err := sprite.NewSoftwareRenderer(640, 360, sprite.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	tex := sprite.NewTexture(img)
//
//	r.Begin(sprite.Camera{Zoom: 1})
//	r.DrawSprite(tex, sprite.Pt(16, 16), sprite.White, 0)
//	r.FillRect(sprite.R(0, 300, 640, 60), sprite.RGBA(0, 0, 0, 0.5), 10)
//	r.End()
//
//	img, _ := r.Snapshot()
//
// GPU-backed renderers are created with NewRenderer from a host
// device handle, or NewStandaloneRenderer for headless use. Batching
// behavior is identical across backends.
//
// # Coordinate System
//
// Origin (0,0) at top-left, X right, Y down, angles in radians.
// Cameras translate and zoom this space; depth orders sprites, lower
// values drawing first.
//
// # Textures and Color
//
// Textures keep their pixels on the CPU so the atlas can slice them;
// GPU copies are uploaded when first drawn and refreshed when marked
// dirty. Colors are straight-alpha at the API and premultiplied
// on the way to the vertex stream, where blending expects them.
package sprite

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
