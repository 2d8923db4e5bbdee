package sprite

// Stats reports what happened during the most recently completed
// frame. Counters reset at Begin and become visible when End returns,
// so a snapshot always describes one whole frame.
type Stats struct {
	// Sprites is the number of quads accepted between Begin and End.
	Sprites int

	// Batches is the number of same-texture runs the frame flushed.
	Batches int

	// DrawCalls is the number of draws issued to the output. Equal to
	// Batches unless a run had nothing pending when it closed.
	DrawCalls int

	// AtlasFallbacks counts draws that bypassed the atlas because the
	// region would not fit or the allocator was full.
	AtlasFallbacks int

	// SkippedDraws counts draws dropped because their texture had no
	// pixels to sample.
	SkippedDraws int

	// BufferGrowths counts vertex buffer reallocations during the
	// frame's flush.
	BufferGrowths int

	// VertexCapacity is the vertex cache size after the frame closed.
	VertexCapacity int
}
