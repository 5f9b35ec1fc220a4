package main

import (
	"sort"

	mgl "github.com/go-gl/mathgl/mgl32"
)

type KeyframeEntry struct {
	frame  float32
	flags  int32
	pos    mgl.Vec3
	pitch  float32
	yaw    float32
	roll   float32
	dpos   mgl.Vec3
	dpitch float32
	dyaw   float32
	droll  float32
}

// KeyframeNode holds the entries driving one node of the target hierarchy,
// sorted by frame.
type KeyframeNode struct {
	name    string
	entries []KeyframeEntry
}

// KeyframeAnim is a keyframe clip. nodes is indexed like the hierarchy it
// animates; nil entries leave that node alone.
type KeyframeAnim struct {
	name      string
	flags     int32
	typeMask  int32
	numFrames int32
	fps       float32
	nodes     []*KeyframeNode
}

// Clip length in seconds.
func (k *KeyframeAnim) length() float32 {
	if k.fps <= 0 {
		return 0
	}
	return float32(k.numFrames) / k.fps
}

// animate blends the pose at time (seconds) into nodes. Nodes whose flags
// match the clip's type mask take priority2, the rest priority1.
func (k *KeyframeAnim) animate(nodes []HierNode, time float32, priority1, priority2 int32) {
	frame := time * k.fps
	if frame > float32(k.numFrames) {
		frame = float32(k.numFrames)
	}
	for i, kn := range k.nodes {
		if kn == nil || i >= len(nodes) {
			continue
		}
		p := priority1
		if k.typeMask&nodes[i].flags != 0 {
			p = priority2
		}
		kn.animate(&nodes[i], frame, p)
	}
}

func (kn *KeyframeNode) animate(node *HierNode, frame float32, priority int32) {
	if len(kn.entries) == 0 || priority < node.priority {
		return
	}
	// Nearest entry at or before frame.
	low, high := 0, len(kn.entries)
	for high > low+1 {
		mid := (low + high) / 2
		if kn.entries[mid].frame <= frame {
			low = mid
		} else {
			high = mid
		}
	}
	e := &kn.entries[low]
	dt := frame - e.frame
	pos := e.pos.Add(e.dpos.Mul(dt))
	pitch := normAngle(e.pitch + dt*e.dpitch)
	yaw := normAngle(e.yaw + dt*e.dyaw)
	roll := normAngle(e.roll + dt*e.droll)
	node.blend(pos, pitch, yaw, roll, priority)
}

// Sorts entries and fills per-frame derivatives from each entry to the
// next. The last entry holds still.
func (kn *KeyframeNode) computeDeltas() {
	sort.SliceStable(kn.entries, func(i, j int) bool {
		return kn.entries[i].frame < kn.entries[j].frame
	})
	for i := range kn.entries {
		e := &kn.entries[i]
		if i+1 >= len(kn.entries) {
			e.dpos = mgl.Vec3{}
			e.dpitch, e.dyaw, e.droll = 0, 0, 0
			continue
		}
		n := &kn.entries[i+1]
		df := n.frame - e.frame
		if df <= 0 {
			continue
		}
		e.dpos = n.pos.Sub(e.pos).Mul(1 / df)
		e.dpitch = normAngle(n.pitch-e.pitch) / df
		e.dyaw = normAngle(n.yaw-e.yaw) / df
		e.droll = normAngle(n.roll-e.roll) / df
	}
}
