package main

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StatsActor holds what one actor did this session.
type StatsActor struct {
	Chores   map[string]int32 `json:"chores"`   // "costume:chore" -> plays
	Distance float64          `json:"distance"` // units walked
	Lines    int32            `json:"lines"`    // lines spoken
}

// StatsLog gathers session statistics, merged into the stats file on exit.
type StatsLog struct {
	Ticks  int32                  `json:"ticks"`
	Actors map[string]*StatsActor `json:"actors"`
}

func newStatsLog() *StatsLog {
	return &StatsLog{Actors: make(map[string]*StatsActor)}
}

// resets all gathered stats
func (s *StatsLog) reset() {
	s.Ticks = 0
	s.Actors = make(map[string]*StatsActor)
}

func (s *StatsLog) actor(name string) *StatsActor {
	a, ok := s.Actors[name]
	if !ok {
		a = &StatsActor{Chores: make(map[string]int32)}
		s.Actors[name] = a
	}
	return a
}

func (s *StatsLog) tick() {
	s.Ticks++
}

func (s *StatsLog) recordChore(actor, costume, chore string) {
	s.actor(actor).Chores[costume+":"+chore]++
}

func (s *StatsLog) addDistance(actor string, d float32) {
	s.actor(actor).Distance += float64(d)
}

func (s *StatsLog) addLine(actor string) {
	s.actor(actor).Lines++
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

var statsKeyEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

// save merges the session into the stats file at path: total playtime in
// minutes, a sessions counter and per-actor totals.
func (s *StatsLog) save(path string, frameTime int32) error {
	data, _ := os.ReadFile(path)
	if len(data) == 0 || !gjson.ValidBytes(data) {
		data = []byte(`{}`)
	}
	var err error

	curPlay := gjson.GetBytes(data, "playtime").Float()
	curPlay = round2(curPlay + float64(s.Ticks)*float64(frameTime)/60000.0)
	if data, err = sjson.SetBytes(data, "playtime", curPlay); err != nil {
		return err
	}
	sessions := gjson.GetBytes(data, "sessions").Int()
	if data, err = sjson.SetBytes(data, "sessions", sessions+1); err != nil {
		return err
	}

	names := make([]string, 0, len(s.Actors))
	for name := range s.Actors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a := s.Actors[name]
		base := "actors." + statsKeyEscaper.Replace(name)

		dist := gjson.GetBytes(data, base+".distance").Float()
		if data, err = sjson.SetBytes(data, base+".distance", round2(dist+a.Distance)); err != nil {
			return err
		}
		lines := gjson.GetBytes(data, base+".lines").Int()
		if data, err = sjson.SetBytes(data, base+".lines", lines+int64(a.Lines)); err != nil {
			return err
		}
		for key, n := range a.Chores {
			p := base + ".chores." + statsKeyEscaper.Replace(key)
			cur := gjson.GetBytes(data, p).Int()
			if data, err = sjson.SetBytes(data, p, cur+int64(n)); err != nil {
				return err
			}
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
