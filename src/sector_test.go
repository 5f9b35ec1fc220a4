package main

import (
	"math"
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
)

func square(name string, x0, y0, x1, y1 float32) *Sector {
	return newSector(name, 0, ST_Walk, true, []mgl.Vec3{
		{x0, y0, 0}, {x1, y0, 0}, {x1, y1, 0}, {x0, y1, 0},
	})
}

func TestSectorWindingNormalized(t *testing.T) {
	cw := newSector("cw", 1, ST_Walk, true, []mgl.Vec3{
		{0, 10, 0}, {10, 10, 0}, {10, 0, 0}, {0, 0, 0}, {0, 10, 0},
	})
	if cw.numVertices() != 4 || cw.vertices[0] != cw.vertices[4] {
		t.Fatalf("vertices = %v", cw.vertices)
	}
	if cw.normal != (mgl.Vec3{0, 0, 1}) {
		t.Errorf("normal = %v", cw.normal)
	}
	for _, p := range []mgl.Vec3{{5, 5, 0}, {0, 0, 0}, {10, 5, 0}} {
		if !cw.isPointInSector(p) {
			t.Errorf("%v should be inside", p)
		}
	}
	for _, p := range []mgl.Vec3{{-1, 5, 0}, {5, 10.5, 0}} {
		if cw.isPointInSector(p) {
			t.Errorf("%v should be outside", p)
		}
	}
}

func TestSectorExitInfo(t *testing.T) {
	s := square("room", 0, 0, 10, 10)
	ei := s.getExitInfo(mgl.Vec3{5, 1, 0}, mgl.Vec3{0, 1, 0})
	if !vecAlmostEqual(ei.exitPoint, mgl.Vec3{5, 10, 0}) {
		t.Errorf("exit point = %v", ei.exitPoint)
	}
	if !almostEqual(ei.angleWithEdge, math.Pi/2) || ei.edgeVertex != 2 {
		t.Errorf("angle %v edge %d", ei.angleWithEdge, ei.edgeVertex)
	}

	ei = s.getExitInfo(mgl.Vec3{5, 5, 0}, mgl.Vec3{1, 1, 0}.Normalize())
	if !vecAlmostEqual(ei.exitPoint, mgl.Vec3{10, 10, 0}) {
		t.Errorf("diagonal exit = %v", ei.exitPoint)
	}
}

func TestSectorClosestPoint(t *testing.T) {
	s := square("room", 0, 0, 10, 10)
	for _, tc := range []struct{ in, want mgl.Vec3 }{
		{mgl.Vec3{5, 5, 3}, mgl.Vec3{5, 5, 0}},
		{mgl.Vec3{15, 5, 0}, mgl.Vec3{10, 5, 0}},
		{mgl.Vec3{-3, -4, 0}, mgl.Vec3{0, 0, 0}},
	} {
		if got := s.closestPoint(tc.in); !vecAlmostEqual(got, tc.want) {
			t.Errorf("closestPoint(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSectorSlopedPlane(t *testing.T) {
	// Rises one unit of z per unit of y.
	s := newSector("ramp", 0, ST_Walk, true, []mgl.Vec3{
		{0, 0, 0}, {10, 0, 0}, {10, 10, 10}, {0, 10, 10},
	})
	if p := s.projectToPlane(mgl.Vec3{3, 4, 0}); !almostEqual(p[2], 4) {
		t.Errorf("projected z = %v", p[2])
	}
	v := s.projectToPuckVector(mgl.Vec3{0, 1, 0})
	if !almostEqual(v[2], 1) {
		t.Errorf("puck vector = %v", v)
	}
}
