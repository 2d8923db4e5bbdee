package sprite

// Camera positions the view over world space. The zero value looks at
// the world origin from the top-left with no zoom.
//
// Cameras are plain values: adjust fields between frames and pass the
// camera to Begin. Nothing is uploaded until the frame flushes.
type Camera struct {
	// Origin is the world coordinate of the view's top-left corner.
	Origin Point
	// Zoom scales world units to pixels. Zero means 1 (no zoom).
	Zoom float32
}

// CenterOn returns the camera moved so that p sits in the middle of a
// viewport of the given size.
func (c Camera) CenterOn(p Point, viewport Point) Camera {
	z := c.zoom()
	c.Origin = Point{
		X: p.X - viewport.X/(2*z),
		Y: p.Y - viewport.Y/(2*z),
	}
	return c
}

func (c Camera) zoom() float32 {
	if c.Zoom == 0 {
		return 1
	}
	return c.Zoom
}

// Projection returns the column-major orthographic matrix that maps
// world coordinates seen by this camera to clip space for a viewport
// of width x height pixels. Y points down in world space and up in
// clip space, so the Y axis flips.
func (c Camera) Projection(width, height float32) [16]float32 {
	z := c.zoom()
	return [16]float32{
		2 * z / width, 0, 0, 0,
		0, -2 * z / height, 0, 0,
		0, 0, 1, 0,
		-(2*z*c.Origin.X/width + 1), 2*z*c.Origin.Y/height + 1, 0, 1,
	}
}
