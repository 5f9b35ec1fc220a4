package main

import (
	"fmt"
	"sort"
	"strings"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Costume is a parsed costume instance: a component arena plus the chores
// that animate it.
type Costume struct {
	fname      string
	components []Component
	chores     []*Chore
	cmap       *Colormap
	matrix     mgl.Mat4
	env        *componentEnv
}

func (c *Costume) warn() string {
	return fmt.Sprintf("%v: WARNING: Costume %v: ", sys.tickCount, c.fname)
}

// parseCostume builds a costume from its JSON description. prev is the
// costume beneath it on the actor's stack, or nil.
func parseCostume(data []byte, fname string, prev *Costume, env *componentEnv) (*Costume, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Errorf("costume %s: invalid JSON", fname)
	}
	root := gjson.ParseBytes(data)
	c := &Costume{fname: fname, matrix: mgl.Ident4(), env: env}

	// First pass: construct.
	for i, v := range root.Get("components").Array() {
		tag := v.Get("tag").String()
		parentID := int32(componentNoParent)
		if p := v.Get("parent"); p.Exists() {
			parentID = int32(p.Int())
		}
		if parentID != componentNoParent && parentID != componentInherit &&
			(parentID < 0 || int(parentID) >= i) {
			return nil, errors.Errorf("costume %s: component %d has invalid parent %d", fname, i, parentID)
		}
		var prevComp Component
		if prev != nil && i < len(prev.components) {
			prevComp = prev.components[i]
		}
		comp, err := newComponent(tag, parentID, v.Get("file").String(), prevComp)
		if err != nil {
			return nil, errors.Wrapf(err, "costume %s: component %d", fname, i)
		}
		b := comp.base()
		b.cost, b.env, b.index = c, env, i
		if parentID >= 0 {
			b.parent = int(parentID)
			pb := c.components[parentID].base()
			if pb.child < 0 {
				pb.child = i
			} else {
				s := c.components[pb.child].base()
				for s.sibling >= 0 {
					s = c.components[s.sibling].base()
				}
				s.sibling = i
			}
		}
		c.components = append(c.components, comp)
	}

	for i, v := range root.Get("chores").Array() {
		var tracks []ChoreTrack
		for _, t := range v.Get("tracks").Array() {
			id := int(t.Get("component").Int())
			if id < 0 || id >= len(c.components) {
				return nil, errors.Errorf("costume %s: chore %d track references component %d of %d",
					fname, i, id, len(c.components))
			}
			tr := ChoreTrack{compID: id}
			for _, k := range t.Get("keys").Array() {
				kv := k.Array()
				if len(kv) < 2 {
					continue
				}
				tr.keys = append(tr.keys, ChoreKey{time: int32(kv[0].Int()), value: int32(kv[1].Int())})
			}
			sort.SliceStable(tr.keys, func(a, b int) bool { return tr.keys[a].time < tr.keys[b].time })
			tracks = append(tracks, tr)
		}
		c.chores = append(c.chores, newChore(c, v.Get("name").String(), int32(v.Get("length").Int()), tracks))
	}

	if cm := root.Get("colormap").String(); cm != "" {
		if err := c.setColormap(cm); err != nil {
			return nil, err
		}
	}

	// Second pass: every component exists, so cross wiring can happen.
	for i, comp := range c.components {
		if err := comp.init(); err != nil {
			for j := i - 1; j >= 0; j-- {
				c.components[j].destroy()
			}
			c.releaseColormap()
			return nil, errors.Wrapf(err, "costume %s: component %d (%s)", fname, i, comp.tag())
		}
	}
	return c, nil
}

func (c *Costume) update(ctx *UpdateContext) {
	c.animate(ctx)
	c.updateMatrices()
}

// animate runs the chores and components, leaving this frame's blended
// pose in the hierarchy.
func (c *Costume) animate(ctx *UpdateContext) {
	for _, ch := range c.chores {
		ch.update(ctx.frameTime)
	}
	for _, comp := range c.components {
		comp.update(ctx)
	}
}

func (c *Costume) updateMatrices() {
	for _, comp := range c.components {
		if m, ok := comp.(interface{ updateMatrices(mgl.Mat4) }); ok {
			m.updateMatrices(c.matrix)
		}
	}
}

func (c *Costume) draw(r Renderer) {
	for _, comp := range c.components {
		comp.draw(r)
	}
}

func (c *Costume) setPosRotate(pos mgl.Vec3, pitch, yaw, roll float32) {
	c.matrix = mgl.Translate3D(pos[0], pos[1], pos[2]).Mul4(pitchYawRollMatrix(pitch, yaw, roll))
}

func (c *Costume) chore(num int32) *Chore {
	if num < 0 || int(num) >= len(c.chores) {
		sys.appendToConsole(c.warn() + fmt.Sprintf("requested chore number %v is outside the range of chores (0-%v)",
			num, len(c.chores)-1))
		return nil
	}
	return c.chores[num]
}

func (c *Costume) playChore(num int32) {
	if ch := c.chore(num); ch != nil {
		ch.play()
	}
}

func (c *Costume) playChoreLooping(num int32) {
	if ch := c.chore(num); ch != nil {
		ch.playLooping()
	}
}

func (c *Costume) stopChore(num int32) {
	if ch := c.chore(num); ch != nil {
		ch.stop()
	}
}

func (c *Costume) setChoreLastFrame(num int32) {
	if ch := c.chore(num); ch != nil {
		ch.setLastFrame()
	}
}

func (c *Costume) setChoreLooping(num int32, loop bool) {
	if ch := c.chore(num); ch != nil {
		ch.setLooping(loop)
	}
}

func (c *Costume) stopChores() {
	for _, ch := range c.chores {
		ch.stop()
	}
}

func (c *Costume) isChoring(num int32, excludeLooping bool) bool {
	if num < 0 || int(num) >= len(c.chores) {
		return false
	}
	return c.chores[num].isPlaying(excludeLooping)
}

// Index of the first playing chore, or -1.
func (c *Costume) isChoringAny(excludeLooping bool) int32 {
	for i, ch := range c.chores {
		if ch.isPlaying(excludeLooping) {
			return int32(i)
		}
	}
	return -1
}

func (c *Costume) findChore(name string) int32 {
	for i, ch := range c.chores {
		if strings.EqualFold(ch.name, name) {
			return int32(i)
		}
	}
	return -1
}

// setColormap replaces the costume level palette. An empty name keeps the
// current one.
func (c *Costume) setColormap(name string) error {
	if name == "" {
		return nil
	}
	cm, err := c.env.loader.loadColormap(name)
	if err != nil {
		return errors.Wrapf(err, "costume %s", c.fname)
	}
	c.releaseColormap()
	c.cmap = cm
	return nil
}

func (c *Costume) releaseColormap() {
	if c.cmap != nil {
		c.env.loader.release(c.cmap)
		c.cmap = nil
	}
}

// Hierarchy of the first model component, or nil.
func (c *Costume) getModelNodes() []HierNode {
	for _, comp := range c.components {
		if p, ok := comp.(hierarchyProvider); ok && p.hierarchy() != nil {
			return p.hierarchy()
		}
	}
	return nil
}

func (c *Costume) getModel() *Model {
	for _, comp := range c.components {
		if p, ok := comp.(hierarchyProvider); ok && p.model() != nil {
			return p.model()
		}
	}
	return nil
}

// destroy stops every chore and frees components highest index first.
func (c *Costume) destroy() {
	c.stopChores()
	for i := len(c.components) - 1; i >= 0; i-- {
		c.components[i].destroy()
	}
	c.components = nil
	c.chores = nil
	c.releaseColormap()
}
