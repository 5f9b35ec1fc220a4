package main

import (
	"math"
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
)

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func vecAlmostEqual(a, b mgl.Vec3) bool {
	return almostEqual(a[0], b[0]) && almostEqual(a[1], b[1]) && almostEqual(a[2], b[2])
}

func testModel() *Model {
	m := &Model{name: "test", nodes: []HierNode{
		{name: "root"},
		{name: "child", pos: mgl.Vec3{0, 1, 0}, pivot: mgl.Vec3{0, 0, 1}},
		{name: "leaf", pos: mgl.Vec3{1, 0, 0}},
	}}
	m.link([][]int{{1}, {2}, nil})
	return m
}

func TestHierNodeBlendPriority(t *testing.T) {
	var n HierNode
	n.pos = mgl.Vec3{9, 9, 9}
	n.resetAnim()

	n.blend(mgl.Vec3{1, 0, 0}, 10, 0, 0, 1)
	n.blend(mgl.Vec3{3, 0, 0}, 30, 0, 0, 1)
	n.blend(mgl.Vec3{100, 0, 0}, 90, 0, 0, 0) // lower priority, ignored
	pos, pitch, _, _ := n.pose()
	if !vecAlmostEqual(pos, mgl.Vec3{2, 0, 0}) || !almostEqual(pitch, 20) {
		t.Errorf("pose = %v %v, want average of priority 1 samples", pos, pitch)
	}

	n.blend(mgl.Vec3{5, 5, 5}, 45, 0, 0, 3)
	pos, pitch, _, _ = n.pose()
	if !vecAlmostEqual(pos, mgl.Vec3{5, 5, 5}) || !almostEqual(pitch, 45) || n.totalWeight != 1 {
		t.Errorf("higher priority did not replace the accumulation: %v %v w=%d", pos, pitch, n.totalWeight)
	}

	n.resetAnim()
	pos, _, _, _ = n.pose()
	if pos != n.pos || n.priority != -1 {
		t.Errorf("resetAnim left %v priority %d", pos, n.priority)
	}
}

func TestModelLinkAndCopy(t *testing.T) {
	m := testModel()
	if m.root != 0 || m.nodes[0].child != &m.nodes[1] || m.nodes[1].child != &m.nodes[2] {
		t.Fatal("link did not build the chain root > child > leaf")
	}
	if m.nodes[2].depth != 2 {
		t.Errorf("leaf depth = %d, want 2", m.nodes[2].depth)
	}

	h := m.copyHierarchy()
	if h[0].child != &h[1] || h[1].parent != &h[0] || h[1].child != &h[2] {
		t.Fatal("copy links point outside the copy")
	}
	h[1].pos = mgl.Vec3{7, 7, 7}
	if m.nodes[1].pos == h[1].pos {
		t.Error("copy shares storage with the model")
	}
	if m.findNode("leaf") != 2 || m.findNode("nope") != -1 {
		t.Error("findNode")
	}
}

func TestHierNodeUpdateMatrices(t *testing.T) {
	h := testModel().copyHierarchy()
	for i := range h {
		h[i].resetAnim()
	}
	h[0].update(mgl.Translate3D(10, 0, 0))
	if got := h[2].worldPos(); !vecAlmostEqual(got, mgl.Vec3{11, 1, 0}) {
		t.Errorf("leaf world position = %v", got)
	}
	// Pivot offsets the reported location but not the children.
	if got := h[1].worldPos(); !vecAlmostEqual(got, mgl.Vec3{10, 1, 1}) {
		t.Errorf("child pivot position = %v", got)
	}

	// Yaw 90 turns +x into +y.
	h[1].blend(h[1].pos, 0, 90, 0, 1)
	h[0].update(mgl.Ident4())
	if got := h[2].worldPos(); !vecAlmostEqual(got, mgl.Vec3{0, 2, 0}) {
		t.Errorf("rotated leaf position = %v", got)
	}
}

func TestHierNodeDrawVisibility(t *testing.T) {
	m := testModel()
	m.nodes[1].mesh = &Mesh{name: "m1"}
	m.nodes[2].mesh = &Mesh{name: "m2"}
	h := m.copyHierarchy()
	r := &HeadlessRenderer{}

	h[0].draw(r, nil)
	if len(r.meshes) != 2 {
		t.Fatalf("drew %d meshes, want 2", len(r.meshes))
	}
	r.meshes = nil
	h[1].meshVisible = false
	h[0].draw(r, nil)
	if len(r.meshes) != 1 || r.meshes[0].mesh != "m2" {
		t.Errorf("hidden mesh drawn: %+v", r.meshes)
	}
	r.meshes = nil
	h[1].hierVisible = false
	h[0].draw(r, nil)
	if len(r.meshes) != 0 {
		t.Errorf("hidden subtree drawn: %+v", r.meshes)
	}
}
