package main

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/text/encoding/charmap"
)

// ------------------------------------------------------------------
// Colormap

const (
	colormapSize       = 768
	colormapHeaderSize = 64
)

type Colormap struct {
	name   string
	colors [256][3]byte
}

func parseColormap(data []byte, name string) (*Colormap, error) {
	if len(data) >= 4 && string(data[:4]) == "CMP " {
		if len(data) < colormapHeaderSize {
			return nil, errors.Errorf("colormap %s: truncated header", name)
		}
		data = data[colormapHeaderSize:]
	}
	if len(data) < colormapSize {
		return nil, errors.Errorf("colormap %s: %d bytes, want %d", name, len(data), colormapSize)
	}
	cm := &Colormap{name: name}
	for i := range cm.colors {
		copy(cm.colors[i][:], data[i*3:i*3+3])
	}
	return cm, nil
}

// ------------------------------------------------------------------
// Material

// Material is a texture atlas. Sub-images are square frames stacked
// vertically.
type Material struct {
	name      string
	cmap      *Colormap
	width     int32
	height    int32
	numImages int32
	currImage int32
}

func (m *Material) setActiveTexture(idx int32) {
	if idx < 0 || idx >= m.numImages {
		sys.appendToConsole(fmt.Sprintf("%v: WARNING: material %v has no image %v", sys.tickCount, m.name, idx))
		return
	}
	m.currImage = idx
}

// ------------------------------------------------------------------
// ResourceLoader

type resourceKind int

const (
	RK_Model resourceKind = iota
	RK_Keyframe
	RK_Colormap
	RK_Material
	RK_LipSync
	RK_Sound
)

type resourceKey struct {
	kind resourceKind
	name string
}

type resourceEntry struct {
	key   resourceKey
	asset interface{}
	refs  int
}

// ResourceLoader finds assets in the configured directories and shares
// loaded instances by name. Each load takes a reference; release drops one
// and evicts the asset with the last.
type ResourceLoader struct {
	dirs     []string
	encoding *charmap.Charmap
	cache    map[resourceKey]*resourceEntry
	owners   map[interface{}]*resourceEntry
}

func newResourceLoader(dirs []string) *ResourceLoader {
	return &ResourceLoader{dirs: dirs,
		cache:  make(map[resourceKey]*resourceEntry),
		owners: make(map[interface{}]*resourceEntry)}
}

// setEncoding selects the charmap text assets are stored in. "utf-8" or
// "" means no conversion.
func (rl *ResourceLoader) setEncoding(name string) error {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		rl.encoding = nil
		return nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if strings.EqualFold(cm.String(), name) ||
				strings.EqualFold(strings.ReplaceAll(cm.String(), " ", "-"), name) {
				rl.encoding = cm
				return nil
			}
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func (rl *ResourceLoader) find(name string) (string, error) {
	fp := SearchFile(name, rl.dirs)
	if fp == "" {
		return "", errors.Errorf("%s not found", name)
	}
	return fp, nil
}

func (rl *ResourceLoader) readFile(name string) ([]byte, error) {
	fp, err := rl.find(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(fp)
}

// readText reads a text asset and converts it to UTF-8.
func (rl *ResourceLoader) readText(name string) ([]byte, error) {
	data, err := rl.readFile(name)
	if err != nil {
		return nil, err
	}
	return rl.decodeText(data, name)
}

func (rl *ResourceLoader) decodeText(data []byte, name string) ([]byte, error) {
	if rl.encoding == nil {
		return data, nil
	}
	out, err := rl.encoding.NewDecoder().Bytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", name)
	}
	return out, nil
}

// acquire returns the cached asset for key, loading file on a miss.
func (rl *ResourceLoader) acquire(kind resourceKind, key, file string,
	load func(path string) (interface{}, error)) (interface{}, error) {
	k := resourceKey{kind, strings.ToLower(key)}
	if e, ok := rl.cache[k]; ok {
		e.refs++
		return e.asset, nil
	}
	fp, err := rl.find(file)
	if err != nil {
		return nil, err
	}
	asset, err := load(fp)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", file)
	}
	e := &resourceEntry{key: k, asset: asset, refs: 1}
	rl.cache[k] = e
	rl.owners[asset] = e
	return asset, nil
}

// release drops one reference to asset. Unknown assets are ignored.
func (rl *ResourceLoader) release(asset interface{}) {
	e, ok := rl.owners[asset]
	if !ok {
		return
	}
	if e.refs--; e.refs <= 0 {
		delete(rl.cache, e.key)
		delete(rl.owners, asset)
	}
}

func (rl *ResourceLoader) refCount(asset interface{}) int {
	if e, ok := rl.owners[asset]; ok {
		return e.refs
	}
	return 0
}

// cachedAssets lists what is cached as "name xrefs", sorted.
func (rl *ResourceLoader) cachedAssets() []string {
	out := make([]string, 0, len(rl.cache))
	for k, e := range rl.cache {
		out = append(out, fmt.Sprintf("%s x%d", k.name, rl.refCount(e.asset)))
	}
	sort.Strings(out)
	return out
}

func (rl *ResourceLoader) loadModel(name string) (*Model, error) {
	a, err := rl.acquire(RK_Model, name, name, func(fp string) (interface{}, error) {
		return loadglTFModel(fp)
	})
	if err != nil {
		return nil, err
	}
	return a.(*Model), nil
}

func (rl *ResourceLoader) loadKeyframe(name string) (*KeyframeAnim, error) {
	a, err := rl.acquire(RK_Keyframe, name, name, func(fp string) (interface{}, error) {
		return loadglTFKeyframe(fp)
	})
	if err != nil {
		return nil, err
	}
	return a.(*KeyframeAnim), nil
}

func (rl *ResourceLoader) loadColormap(name string) (*Colormap, error) {
	a, err := rl.acquire(RK_Colormap, name, name, func(fp string) (interface{}, error) {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, err
		}
		return parseColormap(data, name)
	})
	if err != nil {
		return nil, err
	}
	return a.(*Colormap), nil
}

// loadMaterial shares a material per name and palette.
func (rl *ResourceLoader) loadMaterial(name string, cmap *Colormap) (*Material, error) {
	key := name
	if cmap != nil {
		key += "|" + cmap.name
	}
	a, err := rl.acquire(RK_Material, key, name, func(fp string) (interface{}, error) {
		f, err := os.Open(fp)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		cfg, _, err := image.DecodeConfig(f)
		if err != nil {
			return nil, err
		}
		m := &Material{name: name, cmap: cmap, width: int32(cfg.Width), height: int32(cfg.Height), numImages: 1}
		if cfg.Width > 0 && cfg.Height > cfg.Width && cfg.Height%cfg.Width == 0 {
			m.numImages = int32(cfg.Height / cfg.Width)
			m.height = m.width
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return a.(*Material), nil
}

func (rl *ResourceLoader) loadLipSync(name string) (*LipSync, error) {
	a, err := rl.acquire(RK_LipSync, name, name, func(fp string) (interface{}, error) {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, err
		}
		if data, err = rl.decodeText(data, name); err != nil {
			return nil, err
		}
		return parseLipSync(data, name)
	})
	if err != nil {
		return nil, err
	}
	return a.(*LipSync), nil
}

func (rl *ResourceLoader) loadSound(name string) (*SoundClip, error) {
	a, err := rl.acquire(RK_Sound, name, name, func(fp string) (interface{}, error) {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, err
		}
		return decodeSoundClip(bytes.NewReader(data), filepath.Ext(fp))
	})
	if err != nil {
		return nil, err
	}
	return a.(*SoundClip), nil
}

// loadCostume parses a new costume instance on every call.
func (rl *ResourceLoader) loadCostume(name string, prev *Costume, env *componentEnv) (*Costume, error) {
	data, err := rl.readText(name)
	if err != nil {
		return nil, err
	}
	return parseCostume(data, name, prev, env)
}

func (rl *ResourceLoader) loadSet(name string) (*Set, error) {
	data, err := rl.readText(name)
	if err != nil {
		return nil, err
	}
	return parseSet(data, name)
}
