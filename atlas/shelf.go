// Package atlas packs small texture regions into shared pages so that
// sprites sampling different source images can still be drawn in one
// batch. Packing is shelf-based: fast, append-only, and good enough
// for the mostly-similar-sized regions sprite sheets produce.
package atlas

// Shelf packs rectangles into a fixed area using horizontal shelves.
// Each shelf spans the full width; its height is set by the tallest
// item placed so far. Items go left-to-right on a shelf until the row
// is full, then a new shelf opens below. Only the last shelf can grow
// taller to admit an item that would not fit anywhere else.
//
// Placements are permanent: there is no free operation, only Reset.
type Shelf struct {
	width   int
	height  int
	padding int
	shelves []shelfRow

	usedArea int
}

// shelfRow is one horizontal strip.
type shelfRow struct {
	y      int // top of the strip
	height int // tallest item so far
	x      int // next free slot
}

// NewShelf creates an empty packer for a width x height area with the
// given padding kept after every placed item.
func NewShelf(width, height, padding int) *Shelf {
	return &Shelf{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelfRow, 0, 16),
	}
}

// Allocate finds space for a w x h rectangle. It returns the top-left
// position of the placement, or ok=false when no shelf can take the
// item and no new shelf fits below.
func (s *Shelf) Allocate(w, h int) (x, y int, ok bool) {
	if w <= 0 || h <= 0 {
		return -1, -1, false
	}
	paddedW := w + s.padding
	paddedH := h + s.padding
	if paddedW > s.width {
		return -1, -1, false
	}

	for i := range s.shelves {
		row := &s.shelves[i]
		if row.x+paddedW > s.width {
			continue
		}
		if h > row.height {
			// Too tall for this shelf. The last shelf may extend
			// downward if nothing sits below it yet.
			if i == len(s.shelves)-1 && row.y+paddedH <= s.height {
				row.height = h
				x, y = row.x, row.y
				row.x += paddedW
				s.usedArea += w * h
				return x, y, true
			}
			continue
		}
		x, y = row.x, row.y
		row.x += paddedW
		s.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if n := len(s.shelves); n > 0 {
		last := s.shelves[n-1]
		newY = last.y + last.height + s.padding
	}
	if newY+paddedH > s.height {
		return -1, -1, false
	}
	s.shelves = append(s.shelves, shelfRow{y: newY, height: h, x: paddedW})
	s.usedArea += w * h
	return 0, newY, true
}

// CanFit reports whether a w x h rectangle could currently be placed,
// without placing it.
func (s *Shelf) CanFit(w, h int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	paddedW := w + s.padding
	paddedH := h + s.padding
	if paddedW > s.width || paddedH > s.height {
		return false
	}
	for i := range s.shelves {
		row := &s.shelves[i]
		if row.x+paddedW > s.width {
			continue
		}
		if h <= row.height {
			return true
		}
		if i == len(s.shelves)-1 && row.y+paddedH <= s.height {
			return true
		}
	}
	newY := 0
	if n := len(s.shelves); n > 0 {
		last := s.shelves[n-1]
		newY = last.y + last.height + s.padding
	}
	return newY+paddedH <= s.height
}

// Reset forgets all placements, keeping allocated capacity.
func (s *Shelf) Reset() {
	s.shelves = s.shelves[:0]
	s.usedArea = 0
}

// Utilization returns the fraction of the area covered by placed
// items, 0 to 1. Padding counts as unused.
func (s *Shelf) Utilization() float64 {
	if s.width <= 0 || s.height <= 0 {
		return 0
	}
	return float64(s.usedArea) / float64(s.width*s.height)
}

// ShelfCount returns the number of shelves opened so far.
func (s *Shelf) ShelfCount() int {
	return len(s.shelves)
}
