package main

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

type LipSyncEntry struct {
	frame int32 // 60Hz ticks into the voice clip
	anim  int32 // talk anim 0-9
}

// LipSync maps voice clip position to talk animations. The last entry only
// closes the previous one.
type LipSync struct {
	name    string
	entries []LipSyncEntry
}

// Phonemes to talk anims.
var phonemeAnims = map[string]int32{
	"sil": 0, "_": 0,
	"aa": 1, "ae": 1, "ah": 1, "ay": 1, "eh": 1, "ey": 1, "ih": 1, "iy": 1,
	"hh": 1, "k": 1, "g": 1, "ng": 1, "n": 1, "d": 1, "t": 1, "s": 1, "z": 1,
	"w": 2, "uw": 2, "ow": 2, "oy": 2, "aw": 2,
	"r": 3, "er": 3,
	"f": 4, "v": 4,
	"th": 5, "dh": 5, "l": 5,
	"m": 6, "b": 6, "p": 6,
	"ch": 7, "jh": 7, "sh": 7, "zh": 7,
	"ao": 8, "uh": 8,
	"y": 9,
}

// parseLipSync reads {"entries": [{"frame": 0, "anim": 2}, {"frame": 9,
// "phoneme": "m"}, ...]}.
func parseLipSync(data []byte, name string) (*LipSync, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Errorf("lipsync %s: invalid JSON", name)
	}
	ls := &LipSync{name: name}
	for i, e := range gjson.GetBytes(data, "entries").Array() {
		entry := LipSyncEntry{frame: int32(e.Get("frame").Int()), anim: -1}
		if a := e.Get("anim"); a.Exists() {
			entry.anim = int32(a.Int())
		} else if p := e.Get("phoneme"); p.Exists() {
			anim, ok := phonemeAnims[strings.ToLower(p.String())]
			if !ok {
				return nil, errors.Errorf("lipsync %s: entry %d has unknown phoneme '%s'", name, i, p.String())
			}
			entry.anim = anim
		}
		if entry.anim < 0 || entry.anim > 9 {
			return nil, errors.Errorf("lipsync %s: entry %d has anim %d outside 0-9", name, i, entry.anim)
		}
		ls.entries = append(ls.entries, entry)
	}
	sort.SliceStable(ls.entries, func(a, b int) bool { return ls.entries[a].frame < ls.entries[b].frame })
	return ls, nil
}

func (ls *LipSync) isValid() bool {
	return ls != nil && len(ls.entries) > 0
}

// getAnim returns the anim covering pos, or -1.
func (ls *LipSync) getAnim(pos int32) int32 {
	for i := 0; i+1 < len(ls.entries); i++ {
		if pos >= ls.entries[i].frame && pos < ls.entries[i+1].frame {
			return ls.entries[i].anim
		}
	}
	return -1
}
