package parallel

import (
	"runtime"
	"sync"
	"testing"
)

func TestNewPoolWorkerCount(t *testing.T) {
	if got := NewPool(4).Workers(); got != 4 {
		t.Errorf("Workers = %d, want 4", got)
	}
	if got := NewPool(0).Workers(); got != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers = %d, want GOMAXPROCS", got)
	}
	if got := NewPool(-3).Workers(); got != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers(-3) = %d, want GOMAXPROCS", got)
	}
}

func TestRowsCoversEveryRowOnce(t *testing.T) {
	for _, rows := range []int{1, 63, 64, 127, 128, 200, 1000} {
		p := NewPool(4)
		var mu sync.Mutex
		seen := make([]int, rows)

		p.Rows(rows, func(lo, hi int) {
			if lo < 0 || hi > rows || lo >= hi {
				t.Errorf("rows=%d: bad band [%d, %d)", rows, lo, hi)
				return
			}
			mu.Lock()
			for i := lo; i < hi; i++ {
				seen[i]++
			}
			mu.Unlock()
		})

		for i, n := range seen {
			if n != 1 {
				t.Fatalf("rows=%d: row %d visited %d times", rows, i, n)
			}
		}
	}
}

func TestRowsSmallJobRunsSerially(t *testing.T) {
	p := NewPool(8)
	calls := 0
	p.Rows(100, func(lo, hi int) {
		calls++
		if lo != 0 || hi != 100 {
			t.Errorf("band = [%d, %d), want [0, 100)", lo, hi)
		}
	})
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (below the band threshold)", calls)
	}
}

func TestRowsBandCountBounded(t *testing.T) {
	p := NewPool(3)
	var mu sync.Mutex
	bands := 0
	p.Rows(1024, func(lo, hi int) {
		mu.Lock()
		bands++
		mu.Unlock()
	})
	if bands > 3 {
		t.Errorf("bands = %d, want at most 3", bands)
	}
	if bands < 2 {
		t.Errorf("bands = %d, want a split for 1024 rows", bands)
	}
}

func TestRowsZeroRows(t *testing.T) {
	p := NewPool(4)
	called := false
	p.Rows(0, func(lo, hi int) { called = true })
	if called {
		t.Error("fn called for zero rows")
	}
}
