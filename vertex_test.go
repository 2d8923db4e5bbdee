package sprite

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestVertexPutLayout(t *testing.T) {
	v := Vertex{
		X: 1, Y: 2,
		Color: [4]float32{0.25, 0.5, 0.75, 1},
		U:     0.125, V: 0.875,
	}
	var buf [VertexStride]byte
	v.put(buf[:])

	want := []float32{1, 2, 0.25, 0.5, 0.75, 1, 0.125, 0.875}
	for i, w := range want {
		bits := binary.LittleEndian.Uint32(buf[i*4:])
		if got := math.Float32frombits(bits); got != w {
			t.Errorf("field %d = %v, want %v", i, got, w)
		}
	}
}

func TestEncodeVertices(t *testing.T) {
	verts := []Vertex{
		{X: 1, Y: 2, U: 3, V: 4},
		{X: 5, Y: 6, U: 7, V: 8},
	}
	buf := EncodeVertices(nil, verts)
	if len(buf) != 2*VertexStride {
		t.Fatalf("len = %d, want %d", len(buf), 2*VertexStride)
	}
	x1 := math.Float32frombits(binary.LittleEndian.Uint32(buf[VertexStride:]))
	if x1 != 5 {
		t.Errorf("second vertex X = %v, want 5", x1)
	}
}

func TestEncodeVerticesReusesBuffer(t *testing.T) {
	verts := make([]Vertex, 8)
	big := EncodeVertices(nil, verts)

	small := EncodeVertices(big, verts[:2])
	if len(small) != 2*VertexStride {
		t.Errorf("len = %d, want %d", len(small), 2*VertexStride)
	}
	if &small[0] != &big[0] {
		t.Error("encode with sufficient capacity allocated a new buffer")
	}
}

func TestEncodeVerticesEmpty(t *testing.T) {
	if got := EncodeVertices(nil, nil); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}
