package sprite

import (
	"encoding/binary"
	"math"
)

// Vertex is one corner of a textured triangle: screen position,
// premultiplied color, and normalized texture coordinate. Six of them
// make a sprite quad (two triangles).
type Vertex struct {
	X, Y  float32
	Color [4]float32
	U, V  float32
}

// VertexStride is the byte size of one vertex in the GPU buffer:
// position (vec2<f32>) + color (vec4<f32>) + tex_coord (vec2<f32>).
const VertexStride = 32

// VerticesPerQuad is the number of vertices a quad expands to.
// Quads are emitted as two independent triangles rather than an
// indexed strip so that a batch stays a single contiguous range.
const VerticesPerQuad = 6

// put serializes the vertex into buf, which must hold at least
// VertexStride bytes. Little-endian, matching the WGSL vertex layout.
func (v *Vertex) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(v.X))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(v.Y))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(v.Color[0]))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(v.Color[1]))
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(v.Color[2]))
	binary.LittleEndian.PutUint32(buf[20:], math.Float32bits(v.Color[3]))
	binary.LittleEndian.PutUint32(buf[24:], math.Float32bits(v.U))
	binary.LittleEndian.PutUint32(buf[28:], math.Float32bits(v.V))
}

// EncodeVertices serializes verts into a byte slice ready for a GPU
// buffer write. The dst slice is grown as needed and returned; pass a
// recycled slice to avoid per-frame allocation.
func EncodeVertices(dst []byte, verts []Vertex) []byte {
	need := len(verts) * VertexStride
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]
	for i := range verts {
		verts[i].put(dst[i*VertexStride:])
	}
	return dst
}
