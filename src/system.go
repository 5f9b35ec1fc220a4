package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	lua "github.com/yuin/gopher-lua"
)

// sys
// The only instance of a System struct.
// Do not create more than 1.
var sys = System{
	frameTime: 16,
	sets:      make(map[string]*Set),
	stats:     newStatsLog(),
	errLog:    log.New(NewLogWriter(), "", log.LstdFlags),
}

// System struct, holds most of the data that is accessed globally through the program.
type System struct {
	cfg         Config
	cmdFlags    map[string]string
	errLog      *log.Logger
	consoleText []string
	luaLState   *lua.LState
	loader      *ResourceLoader
	sound       *SoundManager
	renderer    Renderer
	env         *componentEnv
	actors      []*Actor
	sets        map[string]*Set
	currSet     *Set
	frameTime   int32 // ms per frame
	tickCount   int32
	stats       *StatsLog
	statsFile   string
	gameEnd     bool
}

// Initializes the subsystems from cfg and returns the Lua state the main
// script runs in.
func (s *System) init() (*lua.LState, error) {
	s.frameTime = s.cfg.frameTime()
	s.loader = newResourceLoader(s.cfg.Config.AssetDirs)
	if err := s.loader.setEncoding(s.cfg.Assets.Encoding); err != nil {
		return nil, err
	}
	enabled := s.cfg.Sound.Enabled
	if _, ok := s.cmdFlags["-nosound"]; ok {
		enabled = false
	}
	s.sound = newSoundManager(s.loader, enabled, s.cfg.Sound.SampleRate, s.cfg.Sound.MasterVolume)
	r, err := newRenderer(s.cfg.Video.RenderMode)
	if err != nil {
		return nil, err
	}
	s.renderer = r
	s.renderer.Init()
	if s.stats == nil {
		s.stats = newStatsLog()
	}
	if s.statsFile == "" {
		s.statsFile = s.cfg.Debug.StatsFile
	}

	l := lua.NewState()
	l.Options.IncludeGoStackTrace = true
	s.env = &componentEnv{loader: s.loader, sound: s.sound,
		vars: luaVariableSink{l}, set: func() *Set { return s.currSet }}
	systemScriptInit(l)

	if s.cfg.Config.StartSet != "" {
		if err := s.makeCurrentSet(s.cfg.Config.StartSet); err != nil {
			return nil, err
		}
	}
	s.errLog.Printf("Renderer: %v, sound: %v", s.renderer.GetName(), s.sound)
	return l, nil
}

func (s *System) appendToConsole(str string) {
	s.consoleText = append(s.consoleText, str)
	if len(s.consoleText) > s.cfg.Debug.ConsoleRows {
		s.consoleText = s.consoleText[len(s.consoleText)-s.cfg.Debug.ConsoleRows:]
	}
	if s.errLog != nil {
		s.errLog.Println(str)
	}
}

// Amount of a per-second rate covered by one frame.
func (s *System) perSecond(rate float32) float32 {
	return rate * float32(s.frameTime) / 1000
}

func (s *System) setFrameTime(ms int32) {
	s.frameTime = Max(1, ms)
}

// ------------------------------------------------------------------
// Actors and sets

// newActor creates an actor with the configured movement defaults and
// registers it.
func (s *System) newActor(name string) *Actor {
	a := newActor(name, s.env)
	a.walkRate = s.cfg.Actor.WalkRate
	a.turnRate = s.cfg.Actor.TurnRate
	a.reflectionAngle = s.cfg.Actor.ReflectionAngle
	a.constrain = s.cfg.Actor.Constrain
	if tc := s.cfg.Actor.TalkColor; len(tc) >= 3 {
		a.setTalkColor(tc[0], tc[1], tc[2])
	}
	s.addActor(a)
	return a
}

func (s *System) addActor(a *Actor) {
	s.actors = append(s.actors, a)
}

func (s *System) removeActor(a *Actor) {
	for i, b := range s.actors {
		if b == a {
			a.destroy()
			s.actors = append(s.actors[:i], s.actors[i+1:]...)
			return
		}
	}
}

// loadSet returns the set loaded from name, loading it on first use.
func (s *System) loadSet(name string) (*Set, error) {
	key := strings.ToLower(name)
	if set, ok := s.sets[key]; ok {
		return set, nil
	}
	if s.loader == nil {
		return nil, Error("no resource loader")
	}
	set, err := s.loader.loadSet(name)
	if err != nil {
		return nil, err
	}
	if s.sets == nil {
		s.sets = make(map[string]*Set)
	}
	s.sets[key] = set
	s.sets[strings.ToLower(set.name)] = set
	return set, nil
}

func (s *System) makeCurrentSet(name string) error {
	set, err := s.loadSet(name)
	if err != nil {
		return err
	}
	if s.currSet != set && s.sound != nil {
		s.sound.stopAll()
	}
	s.currSet = set
	return nil
}

// setName maps a set file name to the name actors refer to it by.
func (s *System) setName(name string) string {
	if set, ok := s.sets[strings.ToLower(name)]; ok {
		return set.name
	}
	return name
}

// Name the actors refer to the current set by.
func (s *System) currentSetName() string {
	if s.currSet == nil {
		return ""
	}
	return s.currSet.name
}

// ------------------------------------------------------------------
// Frame

// step runs one frame: audio, actor updates, drawing.
func (s *System) step() {
	if s.sound != nil {
		s.sound.advance(s.frameTime)
	}
	setName := s.currentSetName()
	for _, a := range s.actors {
		if !a.inSet(setName) {
			continue
		}
		a.update(&UpdateContext{actor: a, frameTime: s.frameTime, set: s.currSet, sound: s.sound})
	}
	if s.renderer != nil {
		s.renderer.BeginFrame(true)
		for _, a := range s.actors {
			if a.inSet(setName) {
				a.draw(s.renderer)
			}
		}
		s.renderer.EndFrame()
	}
	s.tickCount++
	if s.stats != nil {
		s.stats.tick()
	}
}

func (s *System) stepFrames(n int32) {
	for i := int32(0); i < n && !s.gameEnd; i++ {
		s.step()
	}
}

// costumeDump is what DumpCostumes prints per actor.
type costumeDump struct {
	Actor    string
	Set      string
	Costumes []string
	Playing  []string
}

func (a *Actor) costumeDump() costumeDump {
	d := costumeDump{Actor: a.name, Set: a.setName}
	for _, c := range a.costumes {
		d.Costumes = append(d.Costumes, c.fname)
		for _, ch := range c.chores {
			if ch.playing {
				d.Playing = append(d.Playing, c.fname+":"+ch.name)
			}
		}
	}
	sort.Strings(d.Playing)
	return d
}

var dumpConfig = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}

func (s *System) dumpCostumes() string {
	dump := struct {
		Actors []costumeDump
		Assets []string
	}{Actors: make([]costumeDump, 0, len(s.actors))}
	for _, a := range s.actors {
		dump.Actors = append(dump.Actors, a.costumeDump())
	}
	if s.loader != nil {
		dump.Assets = s.loader.cachedAssets()
	}
	return dumpConfig.Sdump(dump)
}

// saveStats merges what was gathered since the last save into the stats
// file and starts counting afresh.
func (s *System) saveStats() error {
	if s.stats == nil || s.statsFile == "" {
		return nil
	}
	if err := s.stats.save(s.statsFile, s.frameTime); err != nil {
		return err
	}
	s.stats.reset()
	return nil
}

func (s *System) shutdown() {
	if s.cfg.Debug.DumpCostumes {
		s.errLog.Printf("Costumes at exit:\n%s", s.dumpCostumes())
	}
	for _, a := range s.actors {
		a.destroy()
	}
	s.actors = nil
	if s.sound != nil {
		s.sound.stopAll()
	}
	if s.renderer != nil {
		s.renderer.Close()
	}
	if err := s.saveStats(); err != nil {
		s.errLog.Printf("Failed to save stats: %v", err)
	}
	if s.luaLState != nil {
		s.luaLState.Close()
		s.luaLState = nil
	}
}

// Opens the log file and mirrors errLog into it.
func (s *System) openLogFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log %v: %v", path, err)
	}
	s.errLog = log.New(io.MultiWriter(NewLogWriter(), f), "", log.LstdFlags)
	return f, nil
}
