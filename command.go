package sprite

// DrawCommand is one queued sprite draw: the texture it samples, the
// six expanded vertices, and the keys that order it within the frame.
// Commands accumulate between Begin and End; nothing reaches the
// output until the frame closes.
type DrawCommand struct {
	// Texture all six vertices sample from. Runs of commands with the
	// same texture flush as a single draw.
	Texture *Texture

	// Verts is the quad as two triangles in world coordinates.
	Verts [VerticesPerQuad]Vertex

	// Depth is the primary sort key. Lower depths draw first and are
	// covered by higher ones.
	Depth int32

	// Seq is the submission index within the frame, the tie-breaker
	// that keeps equal-depth draws in caller order.
	Seq uint32
}
