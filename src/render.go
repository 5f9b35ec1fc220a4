package main

import (
	mgl "github.com/go-gl/mathgl/mgl32"
)

type Renderer interface {
	GetName() string
	Init()
	Close()
	BeginFrame(clearColor bool)
	EndFrame()

	StartActorDraw(pos mgl.Vec3, pitch, yaw, roll float32)
	DrawMesh(node *HierNode, cmap *Colormap)
	FinishActorDraw()
}

type MeshDraw struct {
	node   string
	mesh   string
	cmap   string
	matrix mgl.Mat4
}

// HeadlessRenderer records what would be drawn. It backs RenderMode
// "headless" and the tests.
type HeadlessRenderer struct {
	frames      int
	actorDraws  int
	inActor     bool
	actorMatrix mgl.Mat4
	meshes      []MeshDraw
}

func (r *HeadlessRenderer) GetName() string { return "headless" }
func (r *HeadlessRenderer) Init()           {}
func (r *HeadlessRenderer) Close()          {}

func (r *HeadlessRenderer) BeginFrame(clearColor bool) {
	if clearColor {
		r.meshes = r.meshes[:0]
	}
}

func (r *HeadlessRenderer) EndFrame() {
	r.frames++
}

func (r *HeadlessRenderer) StartActorDraw(pos mgl.Vec3, pitch, yaw, roll float32) {
	r.inActor = true
	r.actorDraws++
	r.actorMatrix = mgl.Translate3D(pos[0], pos[1], pos[2]).Mul4(pitchYawRollMatrix(pitch, yaw, roll))
}

func (r *HeadlessRenderer) DrawMesh(node *HierNode, cmap *Colormap) {
	d := MeshDraw{node: node.name, matrix: node.pivotMatrix}
	if node.mesh != nil {
		d.mesh = node.mesh.name
	}
	if cmap != nil {
		d.cmap = cmap.name
	}
	r.meshes = append(r.meshes, d)
}

func (r *HeadlessRenderer) FinishActorDraw() {
	r.inActor = false
}

func newRenderer(mode string) (Renderer, error) {
	switch mode {
	case "", "headless":
		return &HeadlessRenderer{}, nil
	}
	return nil, Error("unsupported render mode: " + mode)
}
