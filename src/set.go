package main

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ObjectState is a scene bitmap that costumes switch through bitmap
// components.
type ObjectState struct {
	name        string
	numImages   int32
	activeImage int32
	visible     bool
	pos         mgl.Vec3
}

// Image 0 hides the bitmap.
func (o *ObjectState) setActiveImage(val int32) {
	if val < 0 || val > o.numImages {
		sys.appendToConsole(fmt.Sprintf("%v: WARNING: object state %v has no image %v", sys.tickCount, o.name, val))
		return
	}
	o.activeImage = val
	o.visible = val != 0
}

// Set is a scene: walkable sectors, scene bitmaps and sound positions.
type Set struct {
	name     string
	sectors  []*Sector
	states   []*ObjectState
	soundPos map[string]mgl.Vec3
}

func newSet(name string) *Set {
	return &Set{name: name, soundPos: make(map[string]mgl.Vec3)}
}

func (s *Set) addSector(sec *Sector) {
	s.sectors = append(s.sectors, sec)
}

func (s *Set) findPointSector(p mgl.Vec3, mask SectorType) *Sector {
	for _, sec := range s.sectors {
		if sec.typ&mask != 0 && sec.visible && sec.isPointInSector(p) {
			return sec
		}
	}
	return nil
}

// findClosestSector returns the matching sector nearest to p and the
// nearest point on it.
func (s *Set) findClosestSector(p mgl.Vec3, mask SectorType) (*Sector, mgl.Vec3) {
	var best *Sector
	bestPoint := p
	bestDist := float32(math.MaxFloat32)
	for _, sec := range s.sectors {
		if sec.typ&mask == 0 || !sec.visible {
			continue
		}
		c := sec.closestPoint(p)
		if d := c.Sub(p).Len(); d < bestDist {
			best, bestPoint, bestDist = sec, c, d
		}
	}
	return best, bestPoint
}

func (s *Set) findSector(name string) *Sector {
	for _, sec := range s.sectors {
		if strings.EqualFold(sec.name, name) {
			return sec
		}
	}
	return nil
}

func (s *Set) findState(name string) *ObjectState {
	for _, st := range s.states {
		if strings.EqualFold(st.name, name) {
			return st
		}
	}
	return nil
}

func (s *Set) setSoundPosition(name string, pos mgl.Vec3) {
	s.soundPos[strings.ToLower(name)] = pos
}

func (s *Set) soundPosition(name string) (mgl.Vec3, bool) {
	p, ok := s.soundPos[strings.ToLower(name)]
	return p, ok
}

// ------------------------------------------------------------------
// YAML

type sectorTypeYAML SectorType

func (t *sectorTypeYAML) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err == nil {
		switch strings.ToLower(name) {
		case "walk":
			*t = sectorTypeYAML(ST_Walk)
			return nil
		case "funnel":
			*t = sectorTypeYAML(ST_Funnel)
			return nil
		case "camera":
			*t = sectorTypeYAML(ST_Camera)
			return nil
		case "special":
			*t = sectorTypeYAML(ST_Special)
			return nil
		case "hot":
			*t = sectorTypeYAML(ST_Hot)
			return nil
		}
	}
	var n int32
	if err := value.Decode(&n); err != nil {
		return errors.Errorf("line %d: unknown sector type '%s'", value.Line, value.Value)
	}
	*t = sectorTypeYAML(n)
	return nil
}

type sectorYAML struct {
	Name     string         `yaml:"name"`
	ID       int32          `yaml:"id"`
	Type     sectorTypeYAML `yaml:"type"`
	Visible  *bool          `yaml:"visible"`
	Vertices [][3]float32   `yaml:"vertices"`
}

type objectStateYAML struct {
	Name   string     `yaml:"name"`
	Images int32      `yaml:"images"`
	Image  int32      `yaml:"image"`
	Pos    [3]float32 `yaml:"pos"`
}

type setYAML struct {
	Name    string            `yaml:"name"`
	Sectors []sectorYAML      `yaml:"sectors"`
	States  []objectStateYAML `yaml:"states"`
}

// parseSet reads a set description:
//
//	name: mo
//	sectors:
//	  - {name: floor, id: 1, type: walk, vertices: [[0,0,0],[10,0,0],[10,10,0]]}
//	states:
//	  - {name: door, images: 2}
func parseSet(data []byte, fname string) (*Set, error) {
	var y setYAML
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&y); err != nil {
		return nil, errors.Wrapf(err, "Failed to unmarshal set %s", fname)
	}
	if y.Name == "" {
		y.Name = fname
	}
	set := newSet(y.Name)
	for i, sy := range y.Sectors {
		if len(sy.Vertices) < 3 {
			return nil, errors.Errorf("set %s: sector %d (%s) has %d vertices", fname, i, sy.Name, len(sy.Vertices))
		}
		verts := make([]mgl.Vec3, len(sy.Vertices))
		for j, v := range sy.Vertices {
			verts[j] = mgl.Vec3(v)
		}
		visible := sy.Visible == nil || *sy.Visible
		typ := SectorType(sy.Type)
		if typ == ST_None {
			typ = ST_Walk
		}
		set.addSector(newSector(sy.Name, sy.ID, typ, visible, verts))
	}
	for _, st := range y.States {
		o := &ObjectState{name: st.Name, numImages: st.Images, pos: mgl.Vec3(st.Pos)}
		o.activeImage = st.Image
		o.visible = st.Image != 0
		set.states = append(set.states, o)
	}
	return set, nil
}
