package main

import (
	"fmt"
	"strconv"
	"strings"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// ------------------------------------------------------------------
// ModelComponent

type ModelComponent struct {
	componentBase
	obj        *Model
	hier       []HierNode
	parentNode *HierNode
}

func (c *ModelComponent) tag() string          { return "modl" }
func (c *ModelComponent) hierarchy() []HierNode { return c.hier }
func (c *ModelComponent) model() *Model         { return c.obj }

func (c *ModelComponent) root() *HierNode {
	if c.obj == nil || len(c.hier) == 0 {
		return nil
	}
	return &c.hier[c.obj.root]
}

// roots returns the model's top-level nodes in chain order.
func (c *ModelComponent) roots() []*HierNode {
	if c.obj == nil || len(c.hier) == 0 {
		return nil
	}
	var out []*HierNode
	for i := range c.obj.nodes {
		if c.obj.nodes[i].parent == nil {
			out = append(out, &c.hier[i])
		}
	}
	return out
}

func (c *ModelComponent) init() error {
	if c.obj == nil {
		obj, err := c.env.loader.loadModel(c.filename)
		if err != nil {
			return err
		}
		c.obj = obj
		c.hier = obj.copyHierarchy()
	}
	c.attach()
	return nil
}

// attach hangs the hierarchy under the parent mesh's node, if any.
func (c *ModelComponent) attach() {
	p := c.parentComponent()
	if p == nil {
		return
	}
	if mp, ok := p.(meshNodeProvider); ok {
		if n := mp.meshNode(); n != nil && c.root() != nil {
			rs := c.roots()
			for _, r := range rs {
				r.sibling = nil
			}
			for _, r := range rs {
				n.addChild(r)
			}
			c.parentNode = n
		}
		return
	}
	if _, ok := p.(*ColormapComponent); !ok {
		c.warnf("parent of model %v is not a mesh", c.filename)
	}
}

func (c *ModelComponent) setKey(val int32) {
	c.visible = val == 0
	for _, r := range c.roots() {
		r.hierVisible = c.visible
	}
}

func (c *ModelComponent) reset() {
	c.setKey(0)
}

func (c *ModelComponent) update(ctx *UpdateContext) {
	for i := range c.hier {
		c.hier[i].resetAnim()
	}
}

// Recomputes world matrices. Models attached under a mesh are refreshed
// through their parent's hierarchy.
func (c *ModelComponent) updateMatrices(m mgl.Mat4) {
	if c.parentNode != nil {
		return
	}
	for n := c.root(); n != nil; n = n.sibling {
		n.update(m)
	}
}

func (c *ModelComponent) draw(r Renderer) {
	if c.parentNode != nil || !c.isVisible() {
		return
	}
	cmap := c.getColormap()
	for n := c.root(); n != nil; n = n.sibling {
		n.draw(r, cmap)
	}
}

// detach unhooks every root from the parent mesh and relinks them as one
// sibling chain.
func (c *ModelComponent) detach() {
	if c.parentNode == nil {
		return
	}
	rs := c.roots()
	for _, r := range rs {
		c.parentNode.removeChild(r)
	}
	for i := 0; i+1 < len(rs); i++ {
		rs[i].sibling = rs[i+1]
	}
	c.parentNode = nil
}

func (c *ModelComponent) destroy() {
	c.detach()
	if c.obj != nil {
		c.env.loader.release(c.obj)
	}
	c.obj, c.hier = nil, nil
}

// ------------------------------------------------------------------
// MainModelComponent

// MainModelComponent is a model that may share the hierarchy of the same
// slot in the costume below it. The sharing instance never resets the
// accumulation and never frees the hierarchy; both belong to the owner.
type MainModelComponent struct {
	ModelComponent
	shared bool
}

func (c *MainModelComponent) tag() string { return "mmdl" }

func (c *MainModelComponent) init() error {
	if c.parentID == componentInherit && c.index == 0 {
		if prev, ok := c.previous.(*MainModelComponent); ok && prev.obj != nil &&
			strings.EqualFold(prev.filename, c.filename) {
			c.obj = prev.obj
			c.hier = prev.hier
			c.shared = true
		}
	}
	return c.ModelComponent.init()
}

func (c *MainModelComponent) update(ctx *UpdateContext) {
	if !c.shared {
		c.ModelComponent.update(ctx)
	}
}

func (c *MainModelComponent) destroy() {
	if c.shared {
		c.obj, c.hier = nil, nil
		c.shared = false
		return
	}
	c.ModelComponent.destroy()
}

// ------------------------------------------------------------------
// MeshComponent

// MeshComponent toggles one node of its parent model. The filename is
// "mesh N" (node index) or a node name.
type MeshComponent struct {
	componentBase
	num  int
	node *HierNode
}

func (c *MeshComponent) tag() string         { return "mesh" }
func (c *MeshComponent) meshNode() *HierNode { return c.node }

func (c *MeshComponent) init() error {
	p, ok := c.parentComponent().(hierarchyProvider)
	if !ok || p.model() == nil {
		c.warnf("parent of mesh %v is not a model", c.filename)
		return nil
	}
	name := strings.TrimSpace(c.filename)
	c.num = -1
	if f := strings.Fields(name); len(f) == 2 && strings.EqualFold(f[0], "mesh") {
		n, err := strconv.Atoi(f[1])
		if err != nil {
			return Error(fmt.Sprintf("couldn't parse mesh name '%s'", c.filename))
		}
		c.num = n
	} else {
		c.num = p.model().findNode(name)
		if c.num < 0 {
			return Error(fmt.Sprintf("unknown mesh '%s' in model %s", c.filename, p.model().name))
		}
	}
	hier := p.hierarchy()
	if c.num < 0 || c.num >= len(hier) {
		return Error(fmt.Sprintf("mesh %d out of range in model %s", c.num, p.model().name))
	}
	c.node = &hier[c.num]
	return nil
}

func (c *MeshComponent) setKey(val int32) {
	c.visible = val == 0
	if c.node != nil {
		c.node.meshVisible = c.visible
	}
}

func (c *MeshComponent) reset() {
	c.setKey(0)
}
