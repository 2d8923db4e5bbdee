package sprite

import "testing"

// project applies the camera's matrix to a world point the way the
// vertex shader does.
func project(m [16]float32, p Point) Point {
	return Point{
		X: m[0]*p.X + m[4]*p.Y + m[12],
		Y: m[1]*p.X + m[5]*p.Y + m[13],
	}
}

func TestCameraProjectionMapsViewportToClip(t *testing.T) {
	m := Camera{}.Projection(800, 600)

	tests := []struct {
		world Point
		clip  Point
	}{
		{Pt(0, 0), Pt(-1, 1)},
		{Pt(800, 600), Pt(1, -1)},
		{Pt(400, 300), Pt(0, 0)},
	}
	for _, tt := range tests {
		got := project(m, tt.world)
		if !almostEqual(got.X, tt.clip.X) || !almostEqual(got.Y, tt.clip.Y) {
			t.Errorf("project(%v) = %v, want %v", tt.world, got, tt.clip)
		}
	}
}

func TestCameraOriginShiftsView(t *testing.T) {
	c := Camera{Origin: Pt(100, 50)}
	m := c.Projection(800, 600)

	// The origin is the world point at the viewport's top-left.
	got := project(m, Pt(100, 50))
	if !almostEqual(got.X, -1) || !almostEqual(got.Y, 1) {
		t.Errorf("project(origin) = %v, want (-1, 1)", got)
	}
}

func TestCameraZoomZeroMeansOne(t *testing.T) {
	a := Camera{}.Projection(800, 600)
	b := Camera{Zoom: 1}.Projection(800, 600)
	if a != b {
		t.Error("zero zoom and zoom 1 projections differ")
	}
}

func TestCameraZoomScalesAroundOrigin(t *testing.T) {
	c := Camera{Zoom: 2}
	m := c.Projection(800, 600)

	// At 2x zoom, world (200, 150) lands where (400, 300) would at 1x:
	// the viewport center.
	got := project(m, Pt(200, 150))
	if !almostEqual(got.X, 0) || !almostEqual(got.Y, 0) {
		t.Errorf("project = %v, want (0, 0)", got)
	}
}

func TestCameraCenterOn(t *testing.T) {
	c := Camera{}.CenterOn(Pt(100, 100), Pt(800, 600))
	if c.Origin != Pt(-300, -200) {
		t.Errorf("Origin = %v, want (-300, -200)", c.Origin)
	}

	// The centered point projects to clip-space center.
	got := project(c.Projection(800, 600), Pt(100, 100))
	if !almostEqual(got.X, 0) || !almostEqual(got.Y, 0) {
		t.Errorf("project(center) = %v, want (0, 0)", got)
	}
}

func TestCameraCenterOnRespectsZoom(t *testing.T) {
	c := Camera{Zoom: 2}.CenterOn(Pt(0, 0), Pt(800, 600))
	if c.Origin != Pt(-200, -150) {
		t.Errorf("Origin = %v, want (-200, -150)", c.Origin)
	}
}
