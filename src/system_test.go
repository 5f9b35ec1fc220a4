package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"
)

// initTestSystem boots sys on the default config with dir as the only
// asset directory, ten frames per second and sound off.
func initTestSystem(t *testing.T, dir string) *lua.LState {
	t.Helper()
	resetSys(t)
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Config.AssetDirs = []string{dir}
	cfg.Config.Framerate = 10
	cfg.Debug.ConsoleRows = 100
	cfg.Debug.StatsFile = ""
	sys.cfg = *cfg
	sys.cmdFlags = map[string]string{"-nosound": ""}
	l, err := sys.init()
	if err != nil {
		t.Fatal(err)
	}
	sys.luaLState = l
	t.Cleanup(func() {
		if sys.luaLState != nil {
			sys.luaLState.Close()
		}
	})
	return l
}

func writeSceneAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeModelAssets(t, dir)
	writeAsset(t, dir, "anim.cos", []byte(animCostume))
	writeAsset(t, dir, "room.set", []byte(roomSet))
	writeAsset(t, dir, "other.set", []byte("name: other\nsectors: []\n"))
	return dir
}

func TestSystemInit(t *testing.T) {
	dir := writeSceneAssets(t)
	initTestSystem(t, dir)
	if sys.frameTime != 100 || sys.sound.enabled || sys.renderer.GetName() != "headless" {
		t.Errorf("frame time %v sound %v renderer %v", sys.frameTime, sys.sound.enabled, sys.renderer.GetName())
	}

	a := sys.newActor("manny")
	if a.walkRate != 1 || a.turnRate != 100 || !a.constrain || a.env != sys.env {
		t.Errorf("actor defaults: %+v", a)
	}
	sys.removeActor(a)
	if len(sys.actors) != 0 {
		t.Error("removeActor")
	}

	resetSys(t)
	sys.cfg.Config.Framerate = 60
	sys.cfg.Video.RenderMode = "vulkan"
	if _, err := sys.init(); err == nil {
		t.Error("unknown render mode accepted")
	}
}

func TestSystemStepOnlyCurrentSet(t *testing.T) {
	dir := writeSceneAssets(t)
	initTestSystem(t, dir)
	if err := sys.makeCurrentSet("room.set"); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.loadSet("other.set"); err != nil {
		t.Fatal(err)
	}
	if sys.setName("ROOM.SET") != "room" || sys.currentSetName() != "room" {
		t.Errorf("set names: %q %q", sys.setName("ROOM.SET"), sys.currentSetName())
	}

	here, away := sys.newActor("here"), sys.newActor("away")
	here.putInSet("room")
	away.putInSet("other")
	for _, a := range []*Actor{here, away} {
		a.walkRate = 10
		a.walkTo(a.pos.Add(here.forwardVec().Mul(5)))
	}
	sys.stepFrames(2)
	if !almostEqual(here.pos[1], 2) || away.pos[1] != 0 {
		t.Errorf("here at %v, away at %v", here.pos, away.pos)
	}
	if sys.tickCount != 2 || sys.stats.Ticks != 2 {
		t.Errorf("ticks %d stats %d", sys.tickCount, sys.stats.Ticks)
	}
	if r := sys.renderer.(*HeadlessRenderer); r.frames != 2 || r.actorDraws != 0 {
		t.Errorf("renderer: %d frames %d actor draws", r.frames, r.actorDraws)
	}

	if err := here.pushCostume("anim.cos"); err != nil {
		t.Fatal(err)
	}
	here.setRestChore(choreRest, here.currentCostume())
	if err := here.pushCostume("model.cos"); err != nil {
		t.Fatal(err)
	}
	dump := sys.dumpCostumes()
	for _, want := range []string{`"here"`, `"anim.cos:rest"`, `"other"`, `"body.gltf x1"`} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump lacks %s:\n%s", want, dump)
		}
	}

	sys.gameEnd = true
	sys.stepFrames(5)
	if sys.tickCount != 2 {
		t.Error("frames ran after the game ended")
	}
}

func TestSystemShutdownSavesStats(t *testing.T) {
	dir := writeSceneAssets(t)
	l := initTestSystem(t, dir)
	sys.statsFile = filepath.Join(t.TempDir(), "stats.json")
	a := sys.newActor("manny")
	if err := a.pushCostume("anim.cos"); err != nil {
		t.Fatal(err)
	}
	a.playChore(choreWalk, a.currentCostume(), false)
	sys.stepFrames(300)
	if err := l.DoString(`saveStats()`); err != nil {
		t.Fatal(err)
	}
	if sys.stats.Ticks != 0 || len(sys.stats.Actors) != 0 {
		t.Errorf("saveStats kept %d ticks", sys.stats.Ticks)
	}
	sys.stepFrames(300)
	sys.shutdown()

	if len(sys.actors) != 0 || sys.luaLState != nil || a.costumeStackDepth() != 0 {
		t.Error("shutdown left state behind")
	}
	data, err := os.ReadFile(sys.statsFile)
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(data, "playtime").Float(); got != 1 {
		t.Errorf("playtime = %v", got)
	}
	if got := gjson.GetBytes(data, "sessions").Int(); got != 2 {
		t.Errorf("sessions = %v", got)
	}
	if got := gjson.GetBytes(data, `actors.manny.chores.anim\.cos:walk`).Int(); got != 1 {
		t.Errorf("walk plays = %v\n%s", got, data)
	}
}

const sceneScript = `
manny = loadActor("manny")
assert(getActorName(manny) == "manny")
assert(loadCostume("anim.cos") and not loadCostume("nope.cos"))
setActorCostume(manny, "anim.cos")
pushActorCostume(manny, "model.cos")
assert(getActorCostumeDepth(manny) == 2)
assert(getActorCostume(manny) == "model.cos")
assert(getActorCostume(manny, 0) == "anim.cos")
assert(getActorCostume(manny, 5) == nil)

assert(loadSet("room.set") == "room")
makeCurrentSet("room.set")
assert(getCurrentSet() == "room")
putActorInSet(manny, "room.set")
putActorAt(manny, 5, 5, 0)
local name, id = getActorSector(manny)
assert(name == "floor" and id == 1)
assert(isActorInSector(manny, "floor") and not isActorInSector(manny, "hallway"))
assert(getPointSector(50, 50, 0) == nil)
assert(getPointSector(5, 15, 0) == "hallway")
local image, visible = getObjectState("door")
assert(image == 1 and visible)

setActorWalkRate(manny, 10)
assert(getActorWalkRate(manny) == 10)
walkActorForward(manny)
local x, y, z = getActorPos(manny)
assert(math.abs(y - 6) < 0.001)
local px, py = getActorPuckVector(manny, true)
assert(math.abs(py - 7) < 0.001)

playActorChore(manny, 0)
assert(isActorChoring(manny, 0))
assert(not isActorChoring(manny, 0, false, "anim.cos"))
setActorRestChore(manny, 0, "anim.cos")
stopActorChore(manny, nil)
assert(not isActorChoring(manny, nil))
refresh()
assert(isActorChoring(manny, 0, false, 0))
assert(anim_state == 0)
completeActorChore(manny, 1, "anim.cos")
assert(anim_state == 1)

setActorRot(manny, 0, 90, 0, true)
assert(isActorTurning(manny) and not isActorResting(manny))
setActorRot(manny, 0, 0, 0)
assert(math.abs(getActorYawToPoint(manny, 6, 7, 0) + 45) < 0.001)
other = loadActor()
assert(getActorName(other) == "<unnamed>")
putActorAt(other, 5, 8, 0)
assert(math.abs(getAngleBetweenActors(manny, other)) < 0.001)
assert(not turnActorTo(manny, other))

setActorTalkColor(manny, 300, 20, -1)
local r, g, b = getActorTalkColor(manny)
assert(r == 255 and g == 20 and b == 0)

local hx, hy, hz = getActorNodeLocation(manny, 1)
assert(hz ~= nil)
assert(getActorNodeLocation(manny, 9) == nil)

local mx, my = getActorPos(manny)
sayLine(manny, "/intro/Hello there.")
local sx, sy = getSoundPosition("INTRO.WAV")
assert(sx == mx and sy == my)
assert(getSoundPosition("nobody.wav") == nil)
assert(isActorTalking(manny))
shutUpActor(manny)
assert(not isActorTalking(manny))

setActorHead(manny, 1, -1, -1, 0, 30, 80)
actorLookAt(manny, 0, 10, 2.5, 400)
assert(getActorLookRate(manny) == 400 and isActorLooking(manny))
actorLookAt(manny, other)
assert(isActorLooking(manny))
actorLookAt(manny, nil)
assert(not isActorLooking(manny))
assert(getActorLookRate(other) == nil)
actorLookAt(other, manny)
assert(not isActorLooking(other))
destroyActor(other)

printActorCostumes(manny)
setActorCostume(manny, nil)
assert(getActorCostumeDepth(manny) == 0)
`

func TestScriptSceneAPI(t *testing.T) {
	dir := writeSceneAssets(t)
	l := initTestSystem(t, dir)
	if err := l.DoString(sceneScript); err != nil {
		t.Fatal(err)
	}
	if len(sys.actors) != 1 || sys.actors[0].name != "manny" {
		t.Errorf("%d actors after destroyActor", len(sys.actors))
	}
	found := false
	for _, str := range sys.consoleText {
		found = found || strings.Contains(str, "model.cos")
	}
	if !found {
		t.Errorf("printActorCostumes did not reach the console: %v", sys.consoleText)
	}
}

func TestScriptErrors(t *testing.T) {
	dir := writeSceneAssets(t)
	l := initTestSystem(t, dir)
	if err := l.DoString(`manny = loadActor("manny")`); err != nil {
		t.Fatal(err)
	}
	for script, want := range map[string]string{
		`pushActorCostume(manny, "nope.cos")`:    "nope.cos",
		`makeCurrentSet("nowhere.set")`:          "nowhere.set",
		`setActorColormap(manny, "red.cmp")`:     "no costume",
		`getActorName(42)`:                       "userdata",
		`setActorTurnChores(manny, 1, nil, nil)`: "only one turn chore",
		`getActorCostume(manny, {})`:             "not a costume",
	} {
		err := l.DoString(script)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("%s: error %v, want %q", script, err, want)
		}
	}

	err := l.DoString(`setFrameTime(0) stepFrames(3) endGame() stepFrames(3)`)
	if !isGameEnd(err) || !sys.gameEnd {
		t.Fatalf("endGame: %v", err)
	}
	if sys.tickCount != 3 || sys.frameTime != 1 {
		t.Errorf("ticks %d frame time %d", sys.tickCount, sys.frameTime)
	}
	if err := l.DoString(`assert(getTicks() == 3 and getFrameTime() == 1 and #getConsole() == 0)`); err != nil {
		t.Error(err)
	}
}

func TestScriptCostumeMisses(t *testing.T) {
	dir := writeSceneAssets(t)
	l := initTestSystem(t, dir)
	if err := l.DoString(`manny = loadActor("manny") pushActorCostume(manny, "anim.cos")`); err != nil {
		t.Fatal(err)
	}
	for script, want := range map[string]string{
		`setActorRestChore(manny, 0, 4)`:          "no costume at stack index 4",
		`setActorWalkChore(manny, 1, "nope.cos")`: "nope.cos is not on the stack",
		`stopActorChore(manny, 0, -1)`:            "no costume at stack index -1",
	} {
		sys.consoleText = nil
		if err := l.DoString(script); err != nil {
			t.Fatalf("%s: %v", script, err)
		}
		if len(sys.consoleText) != 1 || !strings.Contains(sys.consoleText[0], want) {
			t.Errorf("%s: console %v, want %q", script, sys.consoleText, want)
		}
	}
	if a := sys.actors[0]; a.restChore.cost != nil || a.walkChore.cost != nil {
		t.Error("a missing costume still set a chore")
	}
}
