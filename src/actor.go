package main

import (
	"fmt"
	"strings"

	mgl "github.com/go-gl/mathgl/mgl32"
)

const numTalkChores = 10

// ChoreSlot binds an actor role (rest, walk, ...) to a chore of one of its
// costumes. chore -1 means unset.
type ChoreSlot struct {
	cost  *Costume
	chore int32
}

var noChore = ChoreSlot{chore: -1}

func (s ChoreSlot) valid() bool {
	return s.cost != nil && s.chore >= 0
}

func (s ChoreSlot) equals(cost *Costume, chore int32) bool {
	return s.cost == cost && s.chore == chore
}

func (s ChoreSlot) play() {
	if s.valid() {
		s.cost.playChore(s.chore)
	}
}

func (s ChoreSlot) playLooping() {
	if s.valid() {
		s.cost.playChoreLooping(s.chore)
	}
}

func (s ChoreSlot) stop() {
	if s.valid() {
		s.cost.stopChore(s.chore)
	}
}

func (s ChoreSlot) isPlaying() bool {
	return s.valid() && s.cost.isChoring(s.chore, false)
}

type Actor struct {
	name            string
	env             *componentEnv
	setName         string
	pos             mgl.Vec3
	pitch           float32
	yaw             float32
	roll            float32
	visible         bool
	talkColor       [3]int32
	walkRate        float32
	turnRate        float32
	reflectionAngle float32
	constrain       bool
	costumes        []*Costume

	restChore      ChoreSlot
	walkChore      ChoreSlot
	leftTurnChore  ChoreSlot
	rightTurnChore ChoreSlot
	mumbleChore    ChoreSlot
	talkChore      [numTalkChores]ChoreSlot
	talkAnim       int32

	walking     bool
	destPos     mgl.Vec3
	turning     bool
	destYaw     float32
	walkedLast  bool
	walkedCur   bool
	lastTurnDir int32
	currTurnDir int32

	talkSoundName string
	lipSync       *LipSync
	mutedTimeLeft int32

	head ActorHead
}

func newActor(name string, env *componentEnv) *Actor {
	a := &Actor{name: name, env: env, visible: true, talkAnim: -1,
		talkColor: [3]int32{255, 255, 255}, reflectionAngle: 80,
		restChore: noChore, walkChore: noChore, leftTurnChore: noChore,
		rightTurnChore: noChore, mumbleChore: noChore, head: newActorHead()}
	for i := range a.talkChore {
		a.talkChore[i] = noChore
	}
	return a
}

func (a *Actor) warn() string {
	return fmt.Sprintf("%v: WARNING: Actor %v: ", sys.tickCount, a.name)
}

func (a *Actor) warnf(format string, args ...interface{}) {
	sys.appendToConsole(a.warn() + fmt.Sprintf(format, args...))
}

// ------------------------------------------------------------------
// Costume stack

func (a *Actor) currentCostume() *Costume {
	if len(a.costumes) == 0 {
		return nil
	}
	return a.costumes[len(a.costumes)-1]
}

func (a *Actor) costumeStackDepth() int {
	return len(a.costumes)
}

func (a *Actor) findCostume(name string) *Costume {
	for _, c := range a.costumes {
		if strings.EqualFold(c.fname, name) {
			return c
		}
	}
	return nil
}

func (a *Actor) pushCostume(name string) error {
	c, err := a.env.loader.loadCostume(name, a.currentCostume(), a.env)
	if err != nil {
		return err
	}
	c.setPosRotate(a.pos, a.pitch, a.yaw, a.roll)
	a.costumes = append(a.costumes, c)
	return nil
}

// setCostume replaces the top costume unless it already is name.
func (a *Actor) setCostume(name string) error {
	if c := a.currentCostume(); c != nil && strings.EqualFold(c.fname, name) {
		return nil
	}
	if len(a.costumes) > 0 {
		a.popCostume()
	}
	return a.pushCostume(name)
}

func (a *Actor) freeCostumeChore(c *Costume, slot *ChoreSlot) {
	if slot.cost == c {
		*slot = noChore
	}
}

// popCostume unbinds every chore slot pointing into the top costume and
// destroys it.
func (a *Actor) popCostume() {
	top := a.currentCostume()
	if top == nil {
		a.warnf("attempted to pop (a non-existent) costume")
		return
	}
	if a.lipSync != nil && a.talkAnim >= 0 && a.talkChore[a.talkAnim].cost == top {
		a.talkAnim = -1
	}
	a.freeCostumeChore(top, &a.restChore)
	a.freeCostumeChore(top, &a.walkChore)
	a.freeCostumeChore(top, &a.leftTurnChore)
	a.freeCostumeChore(top, &a.rightTurnChore)
	a.freeCostumeChore(top, &a.mumbleChore)
	for i := range a.talkChore {
		a.freeCostumeChore(top, &a.talkChore[i])
	}
	top.destroy()
	a.costumes[len(a.costumes)-1] = nil
	a.costumes = a.costumes[:len(a.costumes)-1]
}

func (a *Actor) clearCostumes() {
	for len(a.costumes) > 0 {
		a.popCostume()
	}
}

// ------------------------------------------------------------------
// Chore slots

func (a *Actor) setRestChore(chore int32, cost *Costume) {
	if a.restChore.equals(cost, chore) {
		return
	}
	a.restChore.stop()
	a.restChore = ChoreSlot{cost, chore}
	a.restChore.playLooping()
}

func (a *Actor) setWalkChore(chore int32, cost *Costume) {
	if a.walkChore.equals(cost, chore) {
		return
	}
	a.walkChore.stop()
	a.walkChore = ChoreSlot{cost, chore}
}

// setTurnChores binds the pair of turn chores. Supplying only one of them
// is an error.
func (a *Actor) setTurnChores(left, right int32, cost *Costume) error {
	if (left < 0) != (right < 0) {
		return Error(fmt.Sprintf("actor %s: got only one turn chore (%d, %d)", a.name, left, right))
	}
	if a.leftTurnChore.equals(cost, left) && a.rightTurnChore.equals(cost, right) {
		return nil
	}
	a.leftTurnChore.stop()
	a.rightTurnChore.stop()
	a.lastTurnDir = 0
	a.leftTurnChore = ChoreSlot{cost, left}
	a.rightTurnChore = ChoreSlot{cost, right}
	return nil
}

// setTalkChore binds talk slot index (1-10).
func (a *Actor) setTalkChore(index, chore int32, cost *Costume) {
	if index < 1 || index > numTalkChores {
		a.warnf("setTalkChore: index out of range: %v", index)
		return
	}
	slot := &a.talkChore[index-1]
	if slot.equals(cost, chore) {
		return
	}
	if a.talkAnim == index-1 {
		slot.stop()
		a.talkAnim = -1
	}
	*slot = ChoreSlot{cost, chore}
}

func (a *Actor) setMumbleChore(chore int32, cost *Costume) {
	if a.mumbleChore.equals(cost, chore) {
		return
	}
	a.mumbleChore.stop()
	a.mumbleChore = ChoreSlot{cost, chore}
}

func (a *Actor) getTurnChore(dir int32) ChoreSlot {
	if dir > 0 {
		return a.leftTurnChore
	}
	return a.rightTurnChore
}

// ------------------------------------------------------------------
// Chore playback on a given costume

func (a *Actor) playChore(chore int32, cost *Costume, looping bool) {
	if cost == nil {
		a.warnf("playChore: no costume")
		return
	}
	if looping {
		cost.playChoreLooping(chore)
	} else {
		cost.playChore(chore)
	}
	if chore >= 0 && int(chore) < len(cost.chores) && sys.stats != nil {
		sys.stats.recordChore(a.name, cost.fname, cost.chores[chore].name)
	}
}

// isChoring reports whether chore (or any chore when -1) plays on cost, or
// on every costume when cost is nil.
func (a *Actor) isChoring(chore int32, excludeLooping bool, cost *Costume) bool {
	costumes := a.costumes
	if cost != nil {
		costumes = []*Costume{cost}
	}
	for _, c := range costumes {
		if chore < 0 {
			if c.isChoringAny(excludeLooping) >= 0 {
				return true
			}
		} else if c.isChoring(chore, excludeLooping) {
			return true
		}
	}
	return false
}

// ------------------------------------------------------------------
// Appearance and scene

func (a *Actor) setColormap(name string) error {
	c := a.currentCostume()
	if c == nil {
		return Error(fmt.Sprintf("actor %s: setColormap %s with no costume", a.name, name))
	}
	return c.setColormap(name)
}

func (a *Actor) setVisibility(v bool) {
	a.visible = v
}

func (a *Actor) putInSet(name string) {
	a.setName = name
}

func (a *Actor) inSet(name string) bool {
	return a.setName != "" && strings.EqualFold(a.setName, name)
}

func (a *Actor) setTalkColor(r, g, b int32) {
	a.talkColor = [3]int32{Clamp(r, 0, 255), Clamp(g, 0, 255), Clamp(b, 0, 255)}
}

// nodeLocation returns the world position of node i of the top costume.
func (a *Actor) nodeLocation(i int) (mgl.Vec3, bool) {
	c := a.currentCostume()
	if c == nil {
		return mgl.Vec3{}, false
	}
	nodes := c.getModelNodes()
	if i < 0 || i >= len(nodes) {
		return mgl.Vec3{}, false
	}
	return nodes[i].worldPos(), true
}

// ------------------------------------------------------------------
// Frame

func (a *Actor) update(ctx *UpdateContext) {
	if a.turning {
		turnAmt := ctx.perSecond(a.turnRate)
		dyaw := normAngle(a.destYaw - a.yaw)
		if turnAmt >= AbsF(dyaw) {
			a.yaw = a.destYaw
			a.turning = false
		} else if dyaw > 0 {
			a.yaw += turnAmt
		} else {
			a.yaw -= turnAmt
		}
		a.yaw = normAngle(a.yaw)
		if dyaw > 0 {
			a.currTurnDir = 1
		} else if dyaw < 0 {
			a.currTurnDir = -1
		}
	}

	if a.walking {
		dir := a.destPos.Sub(a.pos)
		dist := dir.Len()
		if dist > 0 {
			dir = dir.Mul(1 / dist)
		}
		walkAmt := ctx.perSecond(a.walkRate)
		moved := walkAmt
		if walkAmt >= dist {
			a.pos = a.destPos
			a.walking = false
			moved = dist
		} else {
			a.pos = a.pos.Add(dir.Mul(walkAmt))
		}
		a.walkedCur = true
		a.recordDistance(moved)
	}

	walkJustified := a.walkChore.valid() && a.walkedCur
	if a.restChore.valid() && !walkJustified && !a.restChore.isPlaying() {
		a.restChore.playLooping()
	}

	if a.walkChore.valid() {
		if a.walkedCur {
			if !a.walkChore.isPlaying() {
				a.walkChore.playLooping()
			}
		} else if a.walkChore.isPlaying() {
			a.walkChore.stop()
		}
	}

	if a.leftTurnChore.valid() {
		if a.walkedCur {
			a.currTurnDir = 0
		}
		if a.lastTurnDir != 0 && a.lastTurnDir != a.currTurnDir {
			a.getTurnChore(a.lastTurnDir).stop()
		}
		if a.currTurnDir != 0 && a.currTurnDir != a.lastTurnDir {
			a.getTurnChore(a.currTurnDir).play()
		}
	}

	a.walkedLast = a.walkedCur
	a.walkedCur = false
	a.lastTurnDir = a.currTurnDir
	a.currTurnDir = 0

	a.updateLipSync(ctx)

	top := a.currentCostume()
	for _, c := range a.costumes {
		c.setPosRotate(a.pos, a.pitch, a.yaw, a.roll)
		c.animate(ctx)
		if c == top {
			a.updateHead(ctx, c.getModelNodes())
		}
		c.updateMatrices()
	}
}

// draw submits the top costume only.
func (a *Actor) draw(r Renderer) {
	c := a.currentCostume()
	if !a.visible || c == nil {
		return
	}
	r.StartActorDraw(a.pos, a.pitch, a.yaw, a.roll)
	c.draw(r)
	r.FinishActorDraw()
}

func (a *Actor) recordDistance(d float32) {
	if sys.stats != nil && d > 0 {
		sys.stats.addDistance(a.name, d)
	}
}

func (a *Actor) destroy() {
	a.shutUp()
	a.clearCostumes()
}
