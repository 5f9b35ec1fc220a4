package main

import (
	"fmt"
	"strings"
)

// Parent ids in costume descriptions.
const (
	componentNoParent = -1
	componentInherit  = -2
)

// UpdateContext carries the per-frame state components may need. It stands
// in for any notion of a "currently updating" actor.
type UpdateContext struct {
	actor     *Actor
	frameTime int32 // ms
	set       *Set
	sound     *SoundManager
}

// Amount of a per-second rate covered by this frame.
func (ctx *UpdateContext) perSecond(rate float32) float32 {
	return rate * float32(ctx.frameTime) / 1000
}

type variableSink interface {
	setGlobalInt(name string, value int32)
}

// componentEnv is what components reach out to outside their costume.
type componentEnv struct {
	loader *ResourceLoader
	sound  *SoundManager
	vars   variableSink
	set    func() *Set
}

func (e *componentEnv) currentSet() *Set {
	if e == nil || e.set == nil {
		return nil
	}
	return e.set()
}

type Component interface {
	tag() string
	base() *componentBase
	init() error
	setKey(val int32)
	update(ctx *UpdateContext)
	reset()
	draw(r Renderer)
	destroy()
}

// Implemented by model components.
type hierarchyProvider interface {
	hierarchy() []HierNode
	model() *Model
}

// Implemented by mesh components, so models can hang off their node.
type meshNodeProvider interface {
	meshNode() *HierNode
}

// componentBase holds what every variant shares. Links are indices into
// the owning costume's component arena, -1 for none.
type componentBase struct {
	cost     *Costume
	env      *componentEnv
	index    int
	parentID int32
	parent   int
	child    int
	sibling  int
	previous Component
	filename string
	cmap     *Colormap
	visible  bool
}

func (c *componentBase) base() *componentBase  { return c }
func (c *componentBase) init() error           { return nil }
func (c *componentBase) update(*UpdateContext) {}
func (c *componentBase) reset()                {}
func (c *componentBase) draw(Renderer)         {}
func (c *componentBase) destroy()              {}

func (c *componentBase) parentComponent() Component {
	if c.cost == nil || c.parent < 0 || c.parent >= len(c.cost.components) {
		return nil
	}
	return c.cost.components[c.parent]
}

func (c *componentBase) setColormap(cmap *Colormap) {
	c.cmap = cmap
}

// getColormap resolves the effective palette on every call, since any link
// of the chain may change between calls.
func (c *componentBase) getColormap() *Colormap {
	if c.cmap != nil {
		return c.cmap
	}
	if c.previous != nil {
		if cm := c.previous.base().getColormap(); cm != nil {
			return cm
		}
	}
	if p := c.parentComponent(); p != nil {
		return p.base().getColormap()
	}
	if c.cost != nil {
		return c.cost.cmap
	}
	return nil
}

func (c *componentBase) isVisible() bool {
	if !c.visible {
		return false
	}
	if p := c.parentComponent(); p != nil {
		return p.base().isVisible()
	}
	return true
}

func (c *componentBase) warn() string {
	if c.cost != nil {
		return c.cost.warn()
	}
	return "Warning: "
}

func (c *componentBase) warnf(format string, args ...interface{}) {
	sys.appendToConsole(c.warn() + fmt.Sprintf(format, args...))
}

// newComponent constructs a component of the given tag. Nothing is loaded
// until init.
func newComponent(tag string, parentID int32, filename string, prev Component) (Component, error) {
	b := componentBase{parentID: parentID, parent: -1, child: -1, sibling: -1,
		previous: prev, filename: filename, visible: true}
	switch tag {
	case "mmdl":
		return &MainModelComponent{ModelComponent: ModelComponent{componentBase: b}}, nil
	case "modl":
		return &ModelComponent{componentBase: b}, nil
	case "mesh":
		return &MeshComponent{componentBase: b}, nil
	case "keyf":
		return newKeyframeComponent(b), nil
	case "bknd":
		return &BitmapComponent{componentBase: b}, nil
	case "mat ":
		return &MaterialComponent{componentBase: b}, nil
	case "wav ":
		return newSoundComponent(b), nil
	case "cmap":
		return &ColormapComponent{componentBase: b}, nil
	case "luav":
		return &VariableComponent{componentBase: b}, nil
	}
	return nil, Error(fmt.Sprintf("unknown component tag '%s'", strings.TrimSpace(tag)))
}
