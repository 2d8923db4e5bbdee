package sprite

import "errors"

// Sentinel errors for the sprite package.
//
// Runtime conditions the batcher absorbs (atlas pages full, textures
// still loading, vertex capacity exceeded) have no error values: the
// first falls back to a direct draw, the second skips the draw, the
// third grows the buffer. Errors here mark caller bugs or construction
// failures, which should fail fast.
var (
	// ErrQuadOutputTooSmall is returned by BuildQuad when the output
	// slice cannot hold the six vertices of a quad.
	ErrQuadOutputTooSmall = errors.New("sprite: quad output slice shorter than 6 vertices")

	// ErrNotInFrame is returned when a draw is submitted outside a
	// Begin/End bracket.
	ErrNotInFrame = errors.New("sprite: draw submitted outside Begin/End")

	// ErrFrameOpen is returned by operations that need the frame closed
	// (Begin, Resize) while a frame is still open.
	ErrFrameOpen = errors.New("sprite: frame is still open")

	// ErrZeroTargetSize is returned when a renderer or render target is
	// created or resized with a non-positive dimension.
	ErrZeroTargetSize = errors.New("sprite: target size must be positive")

	// ErrTargetNested is returned when a render target is entered while
	// another render target on the same device is already open.
	ErrTargetNested = errors.New("sprite: render targets cannot nest")

	// ErrTargetClosed is returned when using a renderer or render
	// target after Close.
	ErrTargetClosed = errors.New("sprite: target is closed")

	// ErrNoDevice is returned when a GPU-backed renderer is constructed
	// without a usable device.
	ErrNoDevice = errors.New("sprite: no GPU device available")

	// ErrTextureNotLoaded marks a texture whose pixels never became
	// available: a lazy texture with no load function, or one whose
	// load returned nothing. Draws referencing it are skipped.
	ErrTextureNotLoaded = errors.New("sprite: texture has no pixels")
)
