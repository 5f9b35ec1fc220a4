package main

import (
	"math"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// Head-look overrides every keyframe contribution on its joints.
const (
	defaultLookRate  = 200
	headLookPriority = 1 << 20
)

// ActorHead turns up to three joints of the top costume toward a point.
// The turn is split evenly between the joints and limited to maxPitch and
// maxYaw either side of the body's facing. Looking never rolls the head;
// maxRoll is only recorded.
type ActorHead struct {
	joints   [3]int
	maxRoll  float32
	maxPitch float32
	maxYaw   float32
	rate     float32
	looking  bool
	target   mgl.Vec3
	pitch    float32
	yaw      float32
}

func newActorHead() ActorHead {
	return ActorHead{joints: [3]int{-1, -1, -1}, maxPitch: 30, maxYaw: 80,
		rate: defaultLookRate}
}

func (a *Actor) setHead(joint1, joint2, joint3 int, maxRoll, maxPitch, maxYaw float32) {
	a.head.joints = [3]int{joint1, joint2, joint3}
	a.head.maxRoll = AbsF(maxRoll)
	a.head.maxPitch = AbsF(maxPitch)
	a.head.maxYaw = AbsF(maxYaw)
}

// lookAt points the head at target, or back ahead when target is nil.
func (a *Actor) lookAt(target *mgl.Vec3) {
	if target == nil {
		a.head.looking = false
		return
	}
	a.head.looking = true
	a.head.target = *target
}

func (a *Actor) setLookRate(rate float32) {
	a.head.rate = AbsF(rate)
}

func (a *Actor) isLooking() bool {
	return a.head.looking
}

// headOrigin is where the head sat after the last frame.
func (a *Actor) headOrigin(nodes []HierNode) mgl.Vec3 {
	for i := len(a.head.joints) - 1; i >= 0; i-- {
		if j := a.head.joints[i]; j >= 0 && j < len(nodes) {
			return nodes[j].worldPos()
		}
	}
	return a.pos
}

// headGoal returns the pitch and yaw offsets that face the target from the
// head, clamped to the head's range.
func (a *Actor) headGoal(nodes []HierNode) (pitch, yaw float32) {
	if !a.head.looking {
		return 0, 0
	}
	d := a.head.target.Sub(a.headOrigin(nodes))
	flat := float32(math.Hypot(float64(d[0]), float64(d[1])))
	if flat == 0 && d[2] == 0 {
		return a.head.pitch, a.head.yaw
	}
	if flat > 0 {
		yaw = normAngle(mgl.RadToDeg(float32(math.Atan2(float64(-d[0]), float64(d[1])))) - a.yaw)
	}
	pitch = mgl.RadToDeg(float32(math.Atan2(float64(d[2]), float64(flat))))
	return ClampF(pitch, -a.head.maxPitch, a.head.maxPitch), ClampF(yaw, -a.head.maxYaw, a.head.maxYaw)
}

func stepToward(cur, goal, amt float32) float32 {
	d := goal - cur
	switch {
	case AbsF(d) <= amt:
		return goal
	case d > 0:
		return cur + amt
	}
	return cur - amt
}

// updateHead moves the head offsets toward their goal by at most one
// frame of the look rate and blends them over the joints' animated pose.
func (a *Actor) updateHead(ctx *UpdateContext, nodes []HierNode) {
	var joints []*HierNode
	for _, j := range a.head.joints {
		if j >= 0 && j < len(nodes) {
			joints = append(joints, &nodes[j])
		}
	}
	if len(joints) == 0 {
		return
	}
	goalPitch, goalYaw := a.headGoal(nodes)
	amt := ctx.perSecond(a.head.rate)
	a.head.pitch = stepToward(a.head.pitch, goalPitch, amt)
	a.head.yaw = stepToward(a.head.yaw, goalYaw, amt)
	if a.head.pitch == 0 && a.head.yaw == 0 {
		return
	}
	share := 1 / float32(len(joints))
	for _, n := range joints {
		pos, pitch, yaw, roll := n.pose()
		n.blend(pos, pitch+a.head.pitch*share, normAngle(yaw+a.head.yaw*share), roll, headLookPriority)
	}
}
