package main

import (
	"strings"
)

// ------------------------------------------------------------------
// BitmapComponent

// BitmapComponent forwards its key to the scene bitmap of the same name.
type BitmapComponent struct {
	componentBase
}

func (c *BitmapComponent) tag() string { return "bknd" }

func (c *BitmapComponent) setKey(val int32) {
	set := c.env.currentSet()
	if set == nil {
		c.warnf("missing scene bitmap %v: no current set", c.filename)
		return
	}
	state := set.findState(c.filename)
	if state == nil {
		c.warnf("missing scene bitmap %v", c.filename)
		return
	}
	state.setActiveImage(val)
}

// ------------------------------------------------------------------
// MaterialComponent

type MaterialComponent struct {
	componentBase
	mat *Material
}

func (c *MaterialComponent) tag() string { return "mat " }

func (c *MaterialComponent) init() error {
	mat, err := c.env.loader.loadMaterial(c.filename, c.getColormap())
	if err != nil {
		return err
	}
	c.mat = mat
	return nil
}

func (c *MaterialComponent) setKey(val int32) {
	if c.mat != nil {
		c.mat.setActiveTexture(val)
	}
}

func (c *MaterialComponent) reset() {
	if c.mat != nil {
		c.mat.setActiveTexture(0)
	}
}

func (c *MaterialComponent) destroy() {
	if c.mat != nil {
		c.env.loader.release(c.mat)
		c.mat = nil
	}
}

// ------------------------------------------------------------------
// SoundComponent

// SoundComponent drives a sound effect. The filename is "name[,loop]".
type SoundComponent struct {
	componentBase
	soundName string
	loop      bool
}

func newSoundComponent(b componentBase) *SoundComponent {
	c := &SoundComponent{componentBase: b}
	parts := strings.Split(c.filename, ",")
	c.soundName = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "loop") {
			c.loop = true
		}
	}
	return c
}

func (c *SoundComponent) tag() string { return "wav " }

func (c *SoundComponent) setKey(val int32) {
	sm := c.env.sound
	if sm == nil {
		return
	}
	switch val {
	case 0:
		if !sm.isPlaying(c.soundName) {
			if err := sm.startSfx(c.soundName, c.loop); err != nil {
				c.warnf("%v", err)
			}
		}
	case 1:
		sm.stop(c.soundName)
	case 2:
		sm.setLooping(c.soundName, false)
	default:
		c.warnf("unknown sound key %v for %v", val, c.soundName)
	}
}

// Keeps the sound's scene position on the driving actor.
func (c *SoundComponent) update(ctx *UpdateContext) {
	if ctx.sound == nil || ctx.set == nil || ctx.actor == nil {
		return
	}
	if ctx.sound.isPlaying(c.soundName) {
		ctx.set.setSoundPosition(c.soundName, ctx.actor.pos)
	}
}

func (c *SoundComponent) reset() {
	if sm := c.env.sound; sm != nil && sm.isPlaying(c.soundName) {
		sm.stop(c.soundName)
	}
}

// ------------------------------------------------------------------
// ColormapComponent

// ColormapComponent hands its palette to its parent.
type ColormapComponent struct {
	componentBase
	palette *Colormap
}

func (c *ColormapComponent) tag() string { return "cmap" }

func (c *ColormapComponent) init() error {
	cm, err := c.env.loader.loadColormap(c.filename)
	if err != nil {
		return err
	}
	c.palette = cm
	if p := c.parentComponent(); p != nil {
		p.base().setColormap(cm)
	} else {
		c.setColormap(cm)
	}
	return nil
}

func (c *ColormapComponent) setKey(val int32) {}

func (c *ColormapComponent) destroy() {
	if c.palette != nil {
		c.env.loader.release(c.palette)
		c.palette = nil
	}
}

// ------------------------------------------------------------------
// VariableComponent

// VariableComponent writes its key into a script global named by the
// filename.
type VariableComponent struct {
	componentBase
}

func (c *VariableComponent) tag() string { return "luav" }

func (c *VariableComponent) setKey(val int32) {
	if c.env.vars != nil {
		c.env.vars.setGlobalInt(c.filename, val)
	}
}
