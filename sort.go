package sprite

// commandOrdered reports whether a sorts at-or-before b under the
// frame ordering: depth ascending, then submission sequence ascending.
// Ties answer true so equal elements never swap across a merge.
func commandOrdered(a, b *DrawCommand) bool {
	if a.Depth != b.Depth {
		return a.Depth < b.Depth
	}
	return a.Seq <= b.Seq
}

// sortCommands stable-sorts cmds in place using bottom-up merge sort.
// The scratch slice doubles as the merge buffer; it grows to len(cmds)
// once and keeps its capacity, so steady-state frames sort without
// allocating.
func sortCommands(cmds []DrawCommand, scratch *[]DrawCommand) {
	n := len(cmds)
	if n <= 1 {
		return
	}
	if cap(*scratch) < n {
		*scratch = make([]DrawCommand, n)
	}
	buf := (*scratch)[:n]

	src, dst := cmds, buf
	swapped := false
	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mergeRuns(dst, src, lo, min(lo+width, n), min(lo+2*width, n))
		}
		src, dst = dst, src
		swapped = !swapped
	}
	if swapped {
		copy(cmds, buf)
	}
}

// mergeRuns merges the sorted runs src[lo:mid] and src[mid:hi] into
// dst[lo:hi].
func mergeRuns(dst, src []DrawCommand, lo, mid, hi int) {
	i, j := lo, mid
	for k := lo; k < hi; k++ {
		switch {
		case i >= mid:
			dst[k] = src[j]
			j++
		case j >= hi:
			dst[k] = src[i]
			i++
		case commandOrdered(&src[i], &src[j]):
			dst[k] = src[i]
			i++
		default:
			dst[k] = src[j]
			j++
		}
	}
}
