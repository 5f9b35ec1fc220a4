package main

import (
	mgl "github.com/go-gl/mathgl/mgl32"
)

// Mesh is the drawable payload hanging off a HierNode.
type Mesh struct {
	name     string
	material string
	vertices [][3]float32
	indices  []uint32
	radius   float32
}

// HierNode is one node of a model skeleton. Nodes live in a flat array
// owned by a model component, linked through parent/child/sibling.
type HierNode struct {
	name    string
	index   int
	mesh    *Mesh
	flags   int32
	depth   int32
	parent  *HierNode
	child   *HierNode
	sibling *HierNode

	// Rest pose, angles in degrees.
	pos   mgl.Vec3
	pivot mgl.Vec3
	pitch float32
	yaw   float32
	roll  float32

	// Per-frame accumulation of keyframe contributions.
	animPos     mgl.Vec3
	animPitch   float32
	animYaw     float32
	animRoll    float32
	priority    int32
	totalWeight int32

	meshVisible bool
	hierVisible bool

	matrix      mgl.Mat4
	pivotMatrix mgl.Mat4
}

func (n *HierNode) resetAnim() {
	n.animPos = n.pos
	n.animPitch = n.pitch
	n.animYaw = n.yaw
	n.animRoll = n.roll
	n.priority = -1
	n.totalWeight = 1
}

// blend folds one keyframe sample into the accumulation. Only samples at
// the highest priority seen this frame contribute; equal priorities are
// averaged.
func (n *HierNode) blend(pos mgl.Vec3, pitch, yaw, roll float32, priority int32) {
	if priority < n.priority {
		return
	}
	if priority > n.priority {
		n.priority = priority
		n.totalWeight = 1
		n.animPos = pos
		n.animPitch = pitch
		n.animYaw = yaw
		n.animRoll = roll
		return
	}
	n.totalWeight++
	n.animPos = n.animPos.Add(pos)
	n.animPitch += pitch
	n.animYaw += yaw
	n.animRoll += roll
}

// Resolved pose for this frame.
func (n *HierNode) pose() (pos mgl.Vec3, pitch, yaw, roll float32) {
	w := float32(n.totalWeight)
	if w <= 0 {
		w = 1
	}
	return n.animPos.Mul(1 / w), n.animPitch / w, n.animYaw / w, n.animRoll / w
}

func pitchYawRollMatrix(pitch, yaw, roll float32) mgl.Mat4 {
	return mgl.HomogRotate3DZ(mgl.DegToRad(yaw)).
		Mul4(mgl.HomogRotate3DX(mgl.DegToRad(pitch))).
		Mul4(mgl.HomogRotate3DY(mgl.DegToRad(roll)))
}

func (n *HierNode) localTransform() mgl.Mat4 {
	pos, pitch, yaw, roll := n.pose()
	return mgl.Translate3D(pos[0], pos[1], pos[2]).Mul4(pitchYawRollMatrix(pitch, yaw, roll))
}

// update computes world matrices for this node and its subtree.
func (n *HierNode) update(parent mgl.Mat4) {
	n.matrix = parent.Mul4(n.localTransform())
	n.pivotMatrix = n.matrix.Mul4(mgl.Translate3D(n.pivot[0], n.pivot[1], n.pivot[2]))
	for c := n.child; c != nil; c = c.sibling {
		c.update(n.matrix)
	}
}

func (n *HierNode) worldPos() mgl.Vec3 {
	return n.pivotMatrix.Col(3).Vec3()
}

func (n *HierNode) draw(r Renderer, cmap *Colormap) {
	if !n.hierVisible {
		return
	}
	if n.mesh != nil && n.meshVisible {
		r.DrawMesh(n, cmap)
	}
	for c := n.child; c != nil; c = c.sibling {
		c.draw(r, cmap)
	}
}

func (n *HierNode) addChild(c *HierNode) {
	c.parent = n
	c.depth = n.depth + 1
	if n.child == nil {
		n.child = c
		return
	}
	last := n.child
	for last.sibling != nil {
		last = last.sibling
	}
	last.sibling = c
}

func (n *HierNode) removeChild(c *HierNode) {
	for p := &n.child; *p != nil; p = &(*p).sibling {
		if *p == c {
			*p = c.sibling
			c.sibling = nil
			c.parent = nil
			return
		}
	}
}

// Model is a loaded skeleton asset. Its nodes hold the rest pose and are
// never animated directly; components animate copies.
type Model struct {
	name   string
	nodes  []HierNode
	meshes []*Mesh
	radius float32
	root   int
}

// copyHierarchy returns a fresh node array with links remapped into it.
func (m *Model) copyHierarchy() []HierNode {
	out := make([]HierNode, len(m.nodes))
	remap := func(p *HierNode) *HierNode {
		if p == nil {
			return nil
		}
		return &out[p.index]
	}
	for i := range m.nodes {
		src := &m.nodes[i]
		out[i] = *src
		out[i].parent = remap(src.parent)
		out[i].child = remap(src.child)
		out[i].sibling = remap(src.sibling)
		out[i].meshVisible = true
		out[i].hierVisible = true
		out[i].matrix = mgl.Ident4()
		out[i].pivotMatrix = mgl.Ident4()
		out[i].resetAnim()
	}
	return out
}

// Links parent/child/sibling from per-node child index lists and chains
// root nodes together as siblings of the first root.
func (m *Model) link(children [][]int) {
	hasParent := make([]bool, len(m.nodes))
	for i := range m.nodes {
		m.nodes[i].index = i
	}
	for i, cs := range children {
		for _, c := range cs {
			if c < 0 || c >= len(m.nodes) || c == i || hasParent[c] {
				continue
			}
			hasParent[c] = true
			m.nodes[i].addChild(&m.nodes[c])
		}
	}
	var prev *HierNode
	m.root = 0
	for i := range m.nodes {
		if hasParent[i] {
			continue
		}
		if prev != nil {
			prev.sibling = &m.nodes[i]
		} else {
			m.root = i
		}
		prev = &m.nodes[i]
	}
	// Depth is only right once every parent is linked.
	var setDepth func(n *HierNode, d int32)
	setDepth = func(n *HierNode, d int32) {
		n.depth = d
		for c := n.child; c != nil; c = c.sibling {
			setDepth(c, d+1)
		}
	}
	for i := range m.nodes {
		if !hasParent[i] {
			setDepth(&m.nodes[i], 0)
		}
	}
}

// Index of the node called name, or -1.
func (m *Model) findNode(name string) int {
	for i := range m.nodes {
		if m.nodes[i].name == name {
			return i
		}
	}
	return -1
}
