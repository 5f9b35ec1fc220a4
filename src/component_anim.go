package main

import (
	"strings"
)

// Keyframe repeat modes, as set by chore keys.
type KeyframeRepeat int32

const (
	KR_Once KeyframeRepeat = iota
	KR_Loop
	KR_Hold
	KR_Fade
)

const (
	keyframeDefaultLowPriority  = 1
	keyframeDefaultHighPriority = 5
)

// KeyframeComponent plays a clip onto its parent model's hierarchy. The
// filename is "name[,low,high]".
type KeyframeComponent struct {
	componentBase
	anim       *KeyframeAnim
	target     hierarchyProvider
	priority1  int32
	priority2  int32
	active     bool
	paused     bool
	repeatMode KeyframeRepeat
	currTime   int32 // ms
}

func newKeyframeComponent(b componentBase) *KeyframeComponent {
	c := &KeyframeComponent{componentBase: b,
		priority1: keyframeDefaultLowPriority, priority2: keyframeDefaultHighPriority}
	if parts := strings.Split(c.filename, ","); len(parts) > 1 {
		c.filename = strings.TrimSpace(parts[0])
		c.priority1 = Atoi(parts[1])
		if len(parts) > 2 {
			c.priority2 = Atoi(parts[2])
		}
	}
	return c
}

func (c *KeyframeComponent) tag() string { return "keyf" }

func (c *KeyframeComponent) init() error {
	anim, err := c.env.loader.loadKeyframe(c.filename)
	if err != nil {
		return err
	}
	c.anim = anim
	if p, ok := c.parentComponent().(hierarchyProvider); ok {
		c.target = p
	} else {
		c.warnf("parent of keyframe %v is not a model", c.filename)
	}
	return nil
}

func (c *KeyframeComponent) play(mode KeyframeRepeat) {
	c.active = true
	c.paused = false
	c.repeatMode = mode
	c.currTime = -1
}

func (c *KeyframeComponent) setKey(val int32) {
	switch val {
	case 0, 1, 2, 3:
		c.play(KeyframeRepeat(val))
	case 4:
		c.active = false
	case 5:
		c.paused = true
	case 6:
		c.paused = false
	default:
		c.warnf("unknown keyframe key %v for %v", val, c.filename)
	}
}

func (c *KeyframeComponent) reset() {
	c.active = false
}

func (c *KeyframeComponent) update(ctx *UpdateContext) {
	if !c.active || c.anim == nil {
		return
	}
	if !c.paused {
		if c.currTime < 0 {
			c.currTime = 0
		} else {
			c.currTime += ctx.frameTime
		}
	}
	animLength := int32(c.anim.length() * 1000)
	if c.currTime > animLength {
		switch c.repeatMode {
		case KR_Once, KR_Fade:
			c.active = false
			return
		case KR_Loop:
			if animLength <= 0 {
				c.currTime = 0
			} else {
				c.currTime %= animLength
			}
		case KR_Hold:
			c.currTime = animLength
		}
	}
	if c.target == nil {
		return
	}
	c.anim.animate(c.target.hierarchy(), float32(c.currTime)/1000, c.priority1, c.priority2)
}

func (c *KeyframeComponent) destroy() {
	if c.anim != nil {
		c.env.loader.release(c.anim)
		c.anim = nil
	}
}
