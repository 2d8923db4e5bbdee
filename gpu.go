package sprite

import (
	"github.com/gogpu/sprite/internal/gpu"
)

// gpuSink feeds batches to a GPU session. Vertices are serialized into
// a reusable staging buffer; textures upload lazily through the
// session's cache, keyed by TextureID.
type gpuSink struct {
	session *gpu.Session
	clear   Color

	staging []byte
	repack  []byte
}

func newGPUSink(session *gpu.Session) *gpuSink {
	return &gpuSink{session: session}
}

func (g *gpuSink) beginFrame(proj [16]float32) error {
	return g.session.BeginFrame(proj, g.clear.premultiplied())
}

func (g *gpuSink) flush(tex *Texture, verts []Vertex) error {
	g.staging = EncodeVertices(g.staging, verts)
	err := g.session.Flush(
		uint32(tex.id),
		uint32(tex.width), uint32(tex.height),
		g.texturePixels(tex), tex.dirty,
		g.staging, uint32(len(verts)),
	)
	if err != nil {
		return err
	}
	tex.markClean()
	return nil
}

func (g *gpuSink) reserve(capacity int) error {
	return g.session.Reserve(capacity)
}

func (g *gpuSink) endFrame() error {
	return g.session.EndFrame()
}

// texturePixels returns tex's pixels as tightly packed rows, which is
// what texture uploads expect. Images whose stride already matches
// pass through without copying.
func (g *gpuSink) texturePixels(tex *Texture) []byte {
	img := tex.pix
	if img == nil {
		return nil
	}
	tight := tex.width * 4
	if img.Stride == tight {
		return img.Pix[:tex.height*tight]
	}
	need := tex.height * tight
	if cap(g.repack) < need {
		g.repack = make([]byte, need)
	}
	g.repack = g.repack[:need]
	for y := 0; y < tex.height; y++ {
		copy(g.repack[y*tight:(y+1)*tight], img.Pix[y*img.Stride:])
	}
	return g.repack
}
