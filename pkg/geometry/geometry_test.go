package geometry

import "testing"

func TestRectIntAccessors(t *testing.T) {
	r := NewRectInt(10, 20, 30, 40)

	if r.Right() != 40 {
		t.Errorf("Right: got %d, want 40", r.Right())
	}
	if r.Bottom() != 60 {
		t.Errorf("Bottom: got %d, want 60", r.Bottom())
	}
	if r.Area() != 1200 {
		t.Errorf("Area: got %d, want 1200", r.Area())
	}
	if r.CenterX() != 25 || r.CenterY() != 40 {
		t.Errorf("Center: got (%d,%d), want (25,40)", r.CenterX(), r.CenterY())
	}
}

func TestVerticalOverlap(t *testing.T) {
	a := NewRectInt(0, 0, 10, 100)
	b := NewRectInt(50, 60, 10, 100)

	if got := a.VerticalOverlap(b); got != 40 {
		t.Errorf("overlap: got %d, want 40", got)
	}
	if got := b.VerticalOverlap(a); got != 40 {
		t.Errorf("overlap is not symmetric: got %d, want 40", got)
	}

	c := NewRectInt(0, 200, 10, 10)
	if got := a.VerticalOverlap(c); got != 0 {
		t.Errorf("disjoint spans: got %d, want 0", got)
	}
}

func TestHorizontalOverlap(t *testing.T) {
	a := NewRectInt(0, 0, 100, 10)
	b := NewRectInt(80, 50, 100, 10)

	if got := a.HorizontalOverlap(b); got != 20 {
		t.Errorf("overlap: got %d, want 20", got)
	}
}

func TestUnion(t *testing.T) {
	a := NewRectInt(10, 10, 20, 20)
	b := NewRectInt(50, 5, 10, 10)

	got := a.Union(b)
	want := NewRectInt(10, 5, 50, 25)
	if got != want {
		t.Errorf("union: got %+v, want %+v", got, want)
	}
}

func TestIsConvex(t *testing.T) {
	square := []PointInt{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if !IsConvex(square) {
		t.Error("square should be convex")
	}

	chevron := []PointInt{{0, 0}, {10, 0}, {5, 5}, {10, 10}, {0, 10}}
	if IsConvex(chevron) {
		t.Error("chevron should not be convex")
	}

	if IsConvex([]PointInt{{0, 0}, {1, 1}}) {
		t.Error("degenerate polygon should not be convex")
	}
}
