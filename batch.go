package sprite

// frameSink receives the engine's output. The engine decides what to
// draw and when; the sink decides how. One implementation drives the
// GPU pipeline, another rasterizes on the CPU, and tests substitute
// their own to observe flush boundaries.
type frameSink interface {
	// beginFrame prepares the output for a new frame. proj is the
	// column-major projection matrix the frame's vertices assume.
	beginFrame(proj [16]float32) error

	// flush draws verts, all sampling tex, as one draw call.
	flush(tex *Texture, verts []Vertex) error

	// reserve resizes the output vertex buffer to hold at least
	// capacity vertices. Contents need not survive.
	reserve(capacity int) error

	// endFrame finishes the frame after the last flush.
	endFrame() error
}

// engine batches draw commands between Begin and End. Renderer and
// RenderTarget are thin fronts over one engine each; all queueing,
// sorting, flush-boundary, and growth behavior lives here so the two
// cannot drift apart.
//
// An engine is single-threaded, matching the frame model: commands
// are submitted and flushed from one goroutine.
type engine struct {
	cfg  Config
	sink frameSink

	cmds    []DrawCommand
	scratch []DrawCommand

	// cache is the CPU staging area vertices are copied into during
	// the flush walk. Its length is the batch capacity; it grows in
	// BatchIncrease steps and never shrinks.
	cache []Vertex

	seq     uint32
	inFrame bool

	working Stats // counters for the open frame
	frame   Stats // snapshot of the last completed frame
}

func newEngine(cfg Config, sink frameSink) *engine {
	return &engine{
		cfg:   cfg,
		sink:  sink,
		cache: make([]Vertex, cfg.InitialBatchSize),
	}
}

func (e *engine) begin(proj [16]float32) error {
	if e.inFrame {
		return ErrFrameOpen
	}
	if err := e.sink.beginFrame(proj); err != nil {
		return err
	}
	e.working = Stats{}
	e.inFrame = true
	return nil
}

// enqueue appends one command to the frame. Nothing is drawn yet.
func (e *engine) enqueue(tex *Texture, verts *[VerticesPerQuad]Vertex, depth int32) error {
	if !e.inFrame {
		return ErrNotInFrame
	}
	e.cmds = append(e.cmds, DrawCommand{
		Texture: tex,
		Verts:   *verts,
		Depth:   depth,
		Seq:     e.seq,
	})
	e.seq++
	e.working.Sprites++
	return nil
}

// end flushes the frame and closes it. Frame state resets even when a
// flush fails, so the next Begin starts clean.
func (e *engine) end() error {
	if !e.inFrame {
		return ErrNotInFrame
	}
	err := e.drain()

	e.cmds = e.cmds[:0]
	e.seq = 0
	e.inFrame = false
	e.working.VertexCapacity = len(e.cache)
	e.frame = e.working

	if endErr := e.sink.endFrame(); err == nil {
		err = endErr
	}
	return err
}

// stats returns the snapshot of the last completed frame.
func (e *engine) stats() Stats { return e.frame }

// capacity returns the current batch capacity in vertices.
func (e *engine) capacity() int { return len(e.cache) }

// drain sorts the frame's commands and walks them once, copying
// vertices into the cache and flushing each maximal run of commands
// that share a texture. A run also closes when the next quad would
// overflow the cache; the buffer then grows so the frame that
// overflowed is the last one that splits.
func (e *engine) drain() error {
	sortCommands(e.cmds, &e.scratch)

	cursor := 0
	var run *Texture
	for i := range e.cmds {
		cmd := &e.cmds[i]
		if run != nil && cmd.Texture != run && cursor > 0 {
			if err := e.flushRun(run, cursor); err != nil {
				return err
			}
			cursor = 0
		}
		if cursor+VerticesPerQuad > len(e.cache) {
			required := cursor + VerticesPerQuad
			if cursor > 0 {
				if err := e.flushRun(run, cursor); err != nil {
					return err
				}
				cursor = 0
			}
			if err := e.grow(required); err != nil {
				return err
			}
		}
		run = cmd.Texture
		copy(e.cache[cursor:cursor+VerticesPerQuad], cmd.Verts[:])
		cursor += VerticesPerQuad
	}
	if cursor > 0 && run != nil {
		return e.flushRun(run, cursor)
	}
	return nil
}

// flushRun zeroes the cache's stale tail and hands the pending range
// to the sink as one draw.
func (e *engine) flushRun(tex *Texture, n int) error {
	clear(e.cache[n:])
	if err := e.sink.flush(tex, e.cache[:n]); err != nil {
		return err
	}
	e.working.Batches++
	e.working.DrawCalls++
	return nil
}

// grow extends the batch capacity by whole BatchIncrease steps until
// required fits, then resizes the sink's buffer to match. The old
// cache is dropped, not copied: growth only happens right after a
// flush, when nothing is pending.
func (e *engine) grow(required int) error {
	capacity := len(e.cache)
	for capacity < required {
		capacity += e.cfg.BatchIncrease
	}
	Logger().Info("sprite: vertex cache grown",
		"from", len(e.cache), "to", capacity, "required", required)
	if err := e.sink.reserve(capacity); err != nil {
		return err
	}
	e.cache = make([]Vertex, capacity)
	e.working.BufferGrowths++
	return nil
}
