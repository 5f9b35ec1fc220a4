package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// resetSys swaps in a quiet System for the duration of a test.
func resetSys(t *testing.T) {
	t.Helper()
	saved := sys
	sys = System{frameTime: 100, sets: make(map[string]*Set), stats: newStatsLog(),
		errLog: log.New(io.Discard, "", 0)}
	sys.cfg.Debug.ConsoleRows = 100
	t.Cleanup(func() { sys = saved })
}

// recordingVars collects what variable components write.
type recordingVars struct {
	values map[string][]int32
}

func newRecordingVars() *recordingVars {
	return &recordingVars{values: make(map[string][]int32)}
}

func (r *recordingVars) setGlobalInt(name string, value int32) {
	r.values[name] = append(r.values[name], value)
}

func writeAsset(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

var identityRotation = [4]float32{0, 0, 0, 1}

func saveglTF(t *testing.T, doc *gltf.Document, path string) {
	t.Helper()
	for _, b := range doc.Buffers {
		b.EmbeddedResource()
	}
	if err := gltf.Save(doc, path); err != nil {
		t.Fatal(err)
	}
}

// writeTestModel writes a model whose root "body" has two children: "head"
// carrying the only mesh, and "arm". head is flagged with type 2.
func writeTestModel(t *testing.T, dir, name string) {
	t.Helper()
	doc := &gltf.Document{Asset: gltf.Asset{Version: "2.0"}}
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	doc.Meshes = []*gltf.Mesh{{
		Name:       "headmesh",
		Primitives: []*gltf.Primitive{{Attributes: map[string]uint32{gltf.POSITION: pos}}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "body", Children: []uint32{1, 2}, Rotation: identityRotation},
		{Name: "head", Mesh: gltf.Index(0), Translation: [3]float32{0, 0, 2}, Rotation: identityRotation,
			Extras: map[string]interface{}{"type": 2, "pivot": []float32{0, 0, 0.5}}},
		{Name: "arm", Translation: [3]float32{1, 0, 1}, Rotation: identityRotation},
	}
	saveglTF(t, doc, filepath.Join(dir, name))
}

// writeTestKeyframe writes a one second clip at 10 fps moving node "head"
// (index 1) from its rest spot to y=10.
func writeTestKeyframe(t *testing.T, dir, name string) {
	t.Helper()
	doc := &gltf.Document{Asset: gltf.Asset{Version: "2.0"}}
	doc.Nodes = []*gltf.Node{
		{Name: "body", Children: []uint32{1, 2}, Rotation: identityRotation},
		{Name: "head", Translation: [3]float32{0, 0, 2}, Rotation: identityRotation},
		{Name: "arm", Translation: [3]float32{1, 0, 1}, Rotation: identityRotation},
	}
	in := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 1})
	out := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{0, 0, 2}, {0, 10, 2}})
	doc.Animations = []*gltf.Animation{{
		Name: "raise",
		Channels: []*gltf.Channel{{
			Sampler: gltf.Index(0),
			Target:  gltf.ChannelTarget{Node: gltf.Index(1), Path: gltf.TRSTranslation},
		}},
		Samplers: []*gltf.AnimationSampler{{Input: in, Output: out, Interpolation: gltf.InterpolationLinear}},
		Extras:   map[string]interface{}{"fps": 10, "type": 2},
	}}
	saveglTF(t, doc, filepath.Join(dir, name))
}

// testWAV returns a silent 16-bit mono PCM clip.
func testWAV(sampleRate, samples int) []byte {
	var b bytes.Buffer
	dataLen := uint32(samples * 2)
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, 36+dataLen)
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, dataLen)
	b.Write(make([]byte, dataLen))
	return b.Bytes()
}

// testColormap returns a palette whose entry i is (i, 0, 255-i).
func testColormap(header bool) []byte {
	var b bytes.Buffer
	if header {
		hdr := make([]byte, colormapHeaderSize)
		copy(hdr, "CMP ")
		b.Write(hdr)
	}
	for i := 0; i < 256; i++ {
		b.Write([]byte{byte(i), 0, byte(255 - i)})
	}
	return b.Bytes()
}

func newTestEnv(dir string) (*componentEnv, *recordingVars) {
	vars := newRecordingVars()
	return &componentEnv{loader: newResourceLoader([]string{dir}), vars: vars}, vars
}
