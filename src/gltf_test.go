package main

import (
	"path/filepath"
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
)

func TestLoadglTFModel(t *testing.T) {
	dir := t.TempDir()
	writeTestModel(t, dir, "body.gltf")
	m, err := loadglTFModel(filepath.Join(dir, "body.gltf"))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.nodes) != 3 || m.root != 0 {
		t.Fatalf("nodes = %d root = %d", len(m.nodes), m.root)
	}
	head := &m.nodes[m.findNode("head")]
	if head.parent != &m.nodes[0] || head.mesh == nil || head.mesh.name != "headmesh" {
		t.Errorf("head not linked with its mesh: %+v", head)
	}
	if head.flags != 2 || head.pivot != (mgl.Vec3{0, 0, 0.5}) {
		t.Errorf("head extras: flags %d pivot %v", head.flags, head.pivot)
	}
	if head.pos != (mgl.Vec3{0, 0, 2}) || head.pitch != 0 || head.yaw != 0 || head.roll != 0 {
		t.Errorf("head rest pose: %v %v %v %v", head.pos, head.pitch, head.yaw, head.roll)
	}
	if len(head.mesh.vertices) != 3 || m.radius != 1 {
		t.Errorf("mesh has %d vertices, radius %v", len(head.mesh.vertices), m.radius)
	}
}

func TestLoadglTFKeyframe(t *testing.T) {
	dir := t.TempDir()
	writeTestKeyframe(t, dir, "raise.gltf")
	k, err := loadglTFKeyframe(filepath.Join(dir, "raise.gltf"))
	if err != nil {
		t.Fatal(err)
	}
	if k.fps != 10 || k.numFrames != 10 || k.typeMask != 2 {
		t.Errorf("fps %v frames %v mask %v", k.fps, k.numFrames, k.typeMask)
	}
	if k.nodes[0] != nil || k.nodes[2] != nil || k.nodes[1] == nil {
		t.Fatal("only the head should be animated")
	}
	e := k.nodes[1].entries
	if len(e) != 2 || e[0].frame != 0 || e[1].frame != 10 {
		t.Fatalf("entries = %+v", e)
	}
	if !vecAlmostEqual(e[0].dpos, mgl.Vec3{0, 1, 0}) {
		t.Errorf("dpos = %v", e[0].dpos)
	}
}

func TestQuatToPitchYawRoll(t *testing.T) {
	for _, tc := range []struct {
		pitch, yaw, roll float32
	}{
		{0, 90, 0},
		{30, 0, 0},
		{0, 0, -45},
		{20, -60, 10},
	} {
		q := mgl.Mat4ToQuat(pitchYawRollMatrix(tc.pitch, tc.yaw, tc.roll))
		p, y, r := quatToPitchYawRoll([4]float32{q.V[0], q.V[1], q.V[2], q.W})
		if !almostEqual(p, tc.pitch) || !almostEqual(y, tc.yaw) || !almostEqual(r, tc.roll) {
			t.Errorf("%v: got %v %v %v", tc, p, y, r)
		}
	}
}
