package main

import (
	"math"

	mgl "github.com/go-gl/mathgl/mgl32"
)

type SectorType int32

const (
	ST_None    SectorType = 0
	ST_Walk    SectorType = 0x1000
	ST_Funnel  SectorType = 0x1100
	ST_Camera  SectorType = 0x2000
	ST_Special SectorType = 0x4000
	ST_Hot     SectorType = 0x8000
)

// Sector is a convex polygon on a plane. vertices run counter-clockwise
// seen from +z and repeat the first vertex at the end.
type Sector struct {
	name     string
	id       int32
	typ      SectorType
	visible  bool
	vertices []mgl.Vec3
	normal   mgl.Vec3
}

type ExitInfo struct {
	exitPoint     mgl.Vec3
	angleWithEdge float32 // radians
	edgeDir       mgl.Vec3
	edgeVertex    int
}

func newSector(name string, id int32, typ SectorType, visible bool, verts []mgl.Vec3) *Sector {
	s := &Sector{name: name, id: id, typ: typ, visible: visible}
	if n := len(verts); n > 1 && verts[0] == verts[n-1] {
		verts = verts[:n-1]
	}
	var area float32
	for i := range verts {
		a, b := verts[i], verts[(i+1)%len(verts)]
		area += a[0]*b[1] - b[0]*a[1]
	}
	s.vertices = make([]mgl.Vec3, 0, len(verts)+1)
	if area < 0 {
		for i := len(verts) - 1; i >= 0; i-- {
			s.vertices = append(s.vertices, verts[i])
		}
	} else {
		s.vertices = append(s.vertices, verts...)
	}
	s.normal = mgl.Vec3{0, 0, 1}
	if len(s.vertices) >= 3 {
		n := s.vertices[1].Sub(s.vertices[0]).Cross(s.vertices[2].Sub(s.vertices[0]))
		if n.Len() > 0 && n[2] != 0 {
			s.normal = n.Normalize()
		}
	}
	if len(s.vertices) > 0 {
		s.vertices = append(s.vertices, s.vertices[0])
	}
	return s
}

func (s *Sector) numVertices() int {
	return MaxI(0, len(s.vertices)-1)
}

func (s *Sector) isPointInSector(p mgl.Vec3) bool {
	for i := 0; i < s.numVertices(); i++ {
		edge := s.vertices[i+1].Sub(s.vertices[i])
		delta := p.Sub(s.vertices[i])
		if edge[0]*delta[1] < edge[1]*delta[0] {
			return false
		}
	}
	return s.numVertices() > 0
}

// Moves p along z onto the sector's plane.
func (s *Sector) projectToPlane(p mgl.Vec3) mgl.Vec3 {
	if s.normal[2] == 0 || len(s.vertices) == 0 {
		return p
	}
	n := s.normal
	p[2] = (n.Dot(s.vertices[0]) - n[0]*p[0] - n[1]*p[1]) / n[2]
	return p
}

// Tilts a direction so it lies in the sector's plane.
func (s *Sector) projectToPuckVector(v mgl.Vec3) mgl.Vec3 {
	if s.normal[2] == 0 {
		return v
	}
	v[2] -= s.normal.Dot(v) / s.normal[2]
	return v
}

// closestPoint returns the point of the sector nearest to p in the xy
// plane, on the sector's plane.
func (s *Sector) closestPoint(p mgl.Vec3) mgl.Vec3 {
	if s.isPointInSector(p) {
		return s.projectToPlane(p)
	}
	best := p
	bestDist := float32(math.MaxFloat32)
	for i := 0; i < s.numVertices(); i++ {
		a, b := s.vertices[i], s.vertices[i+1]
		ab := mgl.Vec2{b[0] - a[0], b[1] - a[1]}
		ap := mgl.Vec2{p[0] - a[0], p[1] - a[1]}
		var t float32
		if l := ab.Dot(ab); l > 0 {
			t = ClampF(ap.Dot(ab)/l, 0, 1)
		}
		c := mgl.Vec3{a[0] + ab[0]*t, a[1] + ab[1]*t, p[2]}
		if d := (mgl.Vec2{p[0] - c[0], p[1] - c[1]}).Len(); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return s.projectToPlane(best)
}

func vecAngle(a, b mgl.Vec3) float32 {
	l := a.Len() * b.Len()
	if l == 0 {
		return 0
	}
	return float32(math.Acos(float64(ClampF(a.Dot(b)/l, -1, 1))))
}

// getExitInfo finds where a ray from start along dir leaves the sector.
// The exit edge is where the z component of (v_i - start) x dir turns from
// positive to non-positive.
func (s *Sector) getExitInfo(start, dir mgl.Vec3) ExitInfo {
	start = s.projectToPlane(start)
	dir = s.projectToPuckVector(dir)
	n := s.numVertices()
	var ei ExitInfo
	if n == 0 {
		ei.exitPoint = start
		return ei
	}
	i := 0
	for ; i < n; i++ {
		delta := s.vertices[i].Sub(start)
		if delta[0]*dir[1] > delta[1]*dir[0] {
			break
		}
	}
	for i < n {
		i++
		delta := s.vertices[i].Sub(start)
		if delta[0]*dir[1] <= delta[1]*dir[0] {
			break
		}
	}
	ei.edgeDir = s.vertices[i].Sub(s.vertices[i-1])
	ei.angleWithEdge = vecAngle(dir, ei.edgeDir)
	ei.edgeVertex = i - 1
	edgeNormal := mgl.Vec3{ei.edgeDir[1], -ei.edgeDir[0], 0}
	d := dir.Dot(edgeNormal)
	if d == 0 {
		d = 1
	}
	ei.exitPoint = start.Add(dir.Mul(s.vertices[i].Sub(start).Dot(edgeNormal) / d))
	return ei
}
