// Package parallel spreads row-oriented rasterization work across CPU
// cores. The software renderer hands it the pixel rows of a frame;
// each worker owns a contiguous, disjoint band of rows, so workers can
// write their pixels without locks and per-pixel blend order matches
// the serial path exactly.
package parallel

import (
	"runtime"
	"sync"
)

// minBandRows is the smallest band worth a goroutine. Jobs shorter
// than two bands run serially; the fork/join overhead would exceed the
// rasterization work.
const minBandRows = 64

// Pool runs row-band jobs on a fixed number of workers.
//
// A Pool holds no goroutines between calls: bands are few and large,
// so each Rows call forks exactly as many goroutines as it has bands
// and joins them before returning.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count. Zero or negative
// means GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Workers returns the pool's worker count.
func (p *Pool) Workers() int { return p.workers }

// Rows partitions [0, rows) into contiguous bands and calls fn(lo, hi)
// once per band, concurrently. fn must touch only rows in [lo, hi).
// Rows returns when every band is done.
//
// Jobs too small to split run as a single fn(0, rows) call on the
// caller's goroutine.
func (p *Pool) Rows(rows int, fn func(lo, hi int)) {
	if rows <= 0 {
		return
	}
	bands := min(p.workers, rows/minBandRows)
	if bands <= 1 {
		fn(0, rows)
		return
	}

	size := (rows + bands - 1) / bands
	var wg sync.WaitGroup
	for lo := 0; lo < rows; lo += size {
		hi := min(lo+size, rows)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
