package main

import (
	"math"
	"os"
	"path"
	"sort"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const defaultKeyframeFps = 15

func decodeglTF(filepath string) (*gltf.Document, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc := new(gltf.Document)
	decoder := gltf.NewDecoderFS(f, os.DirFS(path.Dir(filepath)))
	if err = decoder.Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode gltf '%s'", filepath)
	}
	return doc, nil
}

// Splits a rotation quaternion into pitch/yaw/roll in degrees, matching
// pitchYawRollMatrix.
func quatToPitchYawRoll(r [4]float32) (pitch, yaw, roll float32) {
	m := mgl.Quat{W: r[3], V: mgl.Vec3{r[0], r[1], r[2]}}.Normalize().Mat4()
	pitch = mgl.RadToDeg(float32(math.Asin(float64(mgl.Clamp(m.At(2, 1), -1, 1)))))
	yaw = mgl.RadToDeg(float32(math.Atan2(float64(-m.At(0, 1)), float64(m.At(1, 1)))))
	roll = mgl.RadToDeg(float32(math.Atan2(float64(-m.At(2, 0)), float64(m.At(2, 2)))))
	return
}

func extrasFloat(v map[string]interface{}, key string) (float32, bool) {
	f, ok := v[key].(float64)
	return float32(f), ok
}

// loadglTFModel builds a rest-pose hierarchy from the nodes of a glTF file.
// Node extras may carry "pivot" ([x,y,z]) and "type" (flag bits matched by
// keyframe type masks).
func loadglTFModel(filepath string) (*Model, error) {
	doc, err := decodeglTF(filepath)
	if err != nil {
		return nil, err
	}
	mdl := &Model{name: path.Base(filepath)}
	mdl.meshes = make([]*Mesh, 0, len(doc.Meshes))
	for _, m := range doc.Meshes {
		mesh := &Mesh{name: m.Name}
		for _, p := range m.Primitives {
			idx, ok := p.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			var posBuffer [][3]float32
			positions, err := modeler.ReadPosition(doc, doc.Accessors[idx], posBuffer)
			if err != nil {
				return nil, err
			}
			base := uint32(len(mesh.vertices))
			for _, pos := range positions {
				if r := mgl.Vec3(pos).Len(); r > mesh.radius {
					mesh.radius = r
				}
			}
			mesh.vertices = append(mesh.vertices, positions...)
			if p.Indices != nil {
				var indexBuffer []uint32
				indices, err := modeler.ReadIndices(doc, doc.Accessors[*p.Indices], indexBuffer)
				if err != nil {
					return nil, err
				}
				for _, i := range indices {
					mesh.indices = append(mesh.indices, base+i)
				}
			}
			if p.Material != nil && mesh.material == "" && int(*p.Material) < len(doc.Materials) {
				mesh.material = doc.Materials[*p.Material].Name
			}
		}
		mdl.meshes = append(mdl.meshes, mesh)
	}

	mdl.nodes = make([]HierNode, len(doc.Nodes))
	children := make([][]int, len(doc.Nodes))
	for i, n := range doc.Nodes {
		node := &mdl.nodes[i]
		node.name = n.Name
		node.pos = mgl.Vec3(n.Translation)
		node.pitch, node.yaw, node.roll = quatToPitchYawRoll(n.Rotation)
		if n.Mesh != nil && int(*n.Mesh) < len(mdl.meshes) {
			node.mesh = mdl.meshes[*n.Mesh]
		}
		for _, c := range n.Children {
			children[i] = append(children[i], int(c))
		}
		if n.Extras != nil {
			v, ok := n.Extras.(map[string]interface{})
			if ok {
				if p, ok := v["pivot"].([]interface{}); ok && len(p) == 3 {
					for j := range p {
						if f, ok := p[j].(float64); ok {
							node.pivot[j] = float32(f)
						}
					}
				}
				if t, ok := extrasFloat(v, "type"); ok {
					node.flags = int32(t)
				}
			}
		}
	}
	mdl.link(children)
	for _, m := range mdl.meshes {
		if m.radius > mdl.radius {
			mdl.radius = m.radius
		}
	}
	return mdl, nil
}

type gltfChannel struct {
	times  []float32
	values [][4]float32
}

// Linear sample at t, clamped at both ends. Rotations go through slerp.
func (c *gltfChannel) sample(t float32, rotation bool) [4]float32 {
	n := len(c.times)
	if t <= c.times[0] {
		return c.values[0]
	}
	if t >= c.times[n-1] {
		return c.values[n-1]
	}
	i := sort.Search(n, func(i int) bool { return c.times[i] > t }) - 1
	a, b := c.values[i], c.values[i+1]
	f := (t - c.times[i]) / (c.times[i+1] - c.times[i])
	if rotation {
		q := mgl.QuatSlerp(mgl.Quat{W: a[3], V: mgl.Vec3{a[0], a[1], a[2]}},
			mgl.Quat{W: b[3], V: mgl.Vec3{b[0], b[1], b[2]}}, f)
		return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
	}
	var out [4]float32
	for j := range out {
		out[j] = a[j] + (b[j]-a[j])*f
	}
	return out
}

// loadglTFKeyframe converts the first animation of a glTF file into a
// keyframe clip. Animation extras may set "fps" and "type" (the type mask).
// Each animated node gets an entry at every input time of its channels.
func loadglTFKeyframe(filepath string) (*KeyframeAnim, error) {
	doc, err := decodeglTF(filepath)
	if err != nil {
		return nil, err
	}
	if len(doc.Animations) == 0 {
		return nil, errors.Errorf("no animation in '%s'", filepath)
	}
	a := doc.Animations[0]
	anim := &KeyframeAnim{name: path.Base(filepath), fps: defaultKeyframeFps,
		nodes: make([]*KeyframeNode, len(doc.Nodes))}
	if a.Extras != nil {
		if v, ok := a.Extras.(map[string]interface{}); ok {
			if f, ok := extrasFloat(v, "fps"); ok && f > 0 {
				anim.fps = f
			}
			if t, ok := extrasFloat(v, "type"); ok {
				anim.typeMask = int32(t)
			}
		}
	}

	translations := make(map[uint32]*gltfChannel)
	rotations := make(map[uint32]*gltfChannel)
	var duration float32
	for _, c := range a.Channels {
		if c.Target.Node == nil || c.Sampler == nil || int(*c.Sampler) >= len(a.Samplers) {
			continue
		}
		s := a.Samplers[*c.Sampler]
		var timeBuffer []float32
		times, err := modeler.ReadAccessor(doc, doc.Accessors[s.Input], timeBuffer)
		if err != nil {
			return nil, err
		}
		ch := &gltfChannel{times: times.([]float32)}
		if len(ch.times) == 0 {
			continue
		}
		if last := ch.times[len(ch.times)-1]; last > duration {
			duration = last
		}
		switch c.Target.Path {
		case gltf.TRSTranslation:
			var vecBuffer [][3]float32
			vecs, err := modeler.ReadAccessor(doc, doc.Accessors[s.Output], vecBuffer)
			if err != nil {
				return nil, err
			}
			for _, v := range vecs.([][3]float32) {
				ch.values = append(ch.values, [4]float32{v[0], v[1], v[2], 0})
			}
			translations[*c.Target.Node] = ch
		case gltf.TRSRotation:
			var vecBuffer [][4]float32
			vecs, err := modeler.ReadAccessor(doc, doc.Accessors[s.Output], vecBuffer)
			if err != nil {
				return nil, err
			}
			ch.values = vecs.([][4]float32)
			rotations[*c.Target.Node] = ch
		default:
			continue
		}
		if len(ch.values) < len(ch.times) {
			return nil, errors.Errorf("channel output shorter than input in '%s'", filepath)
		}
	}
	anim.numFrames = int32(math.Ceil(float64(duration * anim.fps)))

	for i, n := range doc.Nodes {
		tr, rot := translations[uint32(i)], rotations[uint32(i)]
		if tr == nil && rot == nil {
			continue
		}
		var times []float32
		if tr != nil {
			times = append(times, tr.times...)
		}
		if rot != nil {
			times = append(times, rot.times...)
		}
		sort.Slice(times, func(a, b int) bool { return times[a] < times[b] })
		kn := &KeyframeNode{name: n.Name}
		for j, t := range times {
			if j > 0 && times[j-1] == t {
				continue
			}
			e := KeyframeEntry{frame: t * anim.fps, pos: mgl.Vec3(n.Translation)}
			if tr != nil {
				v := tr.sample(t, false)
				e.pos = mgl.Vec3{v[0], v[1], v[2]}
			}
			r := n.Rotation
			if rot != nil {
				r = rot.sample(t, true)
			}
			e.pitch, e.yaw, e.roll = quatToPitchYawRoll(r)
			kn.entries = append(kn.entries, e)
		}
		kn.computeDeltas()
		anim.nodes[i] = kn
	}
	return anim, nil
}
