package main

import (
	"fmt"
	"strings"

	mgl "github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"
)

// Data handlers
func luaRegister(l *lua.LState, name string, f func(*lua.LState) int) {
	l.Register(name, f)
}
func nilArg(l *lua.LState, argi int) bool {
	lv := l.Get(argi)
	return lua.LVIsFalse(lv) && lv != lua.LFalse
}
func strArg(l *lua.LState, argi int) string {
	if !lua.LVCanConvToString(l.Get(argi)) {
		l.RaiseError("\nArgument %v is not a string: %v\n", argi, l.Get(argi))
	}
	return l.ToString(argi)
}
func numArg(l *lua.LState, argi int) float64 {
	num, ok := l.Get(argi).(lua.LNumber)
	if !ok {
		l.RaiseError("\nArgument %v is not a number: %v\n", argi, l.Get(argi))
	}
	return float64(num)
}
func boolArg(l *lua.LState, argi int) bool {
	return l.ToBool(argi)
}
func newUserData(l *lua.LState, value interface{}) *lua.LUserData {
	ud := l.NewUserData()
	ud.Value = value
	return ud
}
func toUserData(l *lua.LState, argi int) interface{} {
	if ud := l.ToUserData(argi); ud != nil {
		return ud.Value
	}
	return nil
}
func userDataError(l *lua.LState, argi int, udtype interface{}) {
	l.RaiseError("\nArgument %v is not a userdata of type: %T\n", argi, udtype)
}

func actorArg(l *lua.LState, argi int) *Actor {
	a, ok := toUserData(l, argi).(*Actor)
	if !ok {
		userDataError(l, argi, a)
	}
	return a
}

// A nil chore means none (-1).
func choreArg(l *lua.LState, argi int) int32 {
	if nilArg(l, argi) {
		return -1
	}
	return int32(numArg(l, argi))
}

// costumeArg selects one of a's costumes by name or by stack index (0 is
// the bottom). nil selects the current costume. Misses are logged and
// return nil.
func costumeArg(l *lua.LState, a *Actor, argi int) *Costume {
	if nilArg(l, argi) {
		return a.currentCostume()
	}
	switch v := l.Get(argi).(type) {
	case lua.LNumber:
		if i := int(v); i >= 0 && i < len(a.costumes) {
			return a.costumes[i]
		}
		a.warnf("no costume at stack index %v (depth %v)", v, len(a.costumes))
		return nil
	case lua.LString:
		c := a.findCostume(string(v))
		if c == nil {
			a.warnf("costume %v is not on the stack", v)
		}
		return c
	}
	l.RaiseError("\nArgument %v is not a costume: %v\n", argi, l.Get(argi))
	return nil
}

func vec3Arg(l *lua.LState, argi int) mgl.Vec3 {
	return mgl.Vec3{float32(numArg(l, argi)), float32(numArg(l, argi+1)), float32(numArg(l, argi+2))}
}

// A point given either as an actor or as x, y, z.
func pointArg(l *lua.LState, argi int) mgl.Vec3 {
	if other, ok := toUserData(l, argi).(*Actor); ok {
		return other.pos
	}
	return vec3Arg(l, argi)
}

func pushVec3(l *lua.LState, v mgl.Vec3) int {
	l.Push(lua.LNumber(v[0]))
	l.Push(lua.LNumber(v[1]))
	l.Push(lua.LNumber(v[2]))
	return 3
}

func sectorTypeArg(l *lua.LState, argi int) SectorType {
	if nilArg(l, argi) {
		return ST_Walk
	}
	return SectorType(numArg(l, argi))
}

func pushSector(l *lua.LState, s *Sector) int {
	if s == nil {
		l.Push(lua.LNil)
		return 1
	}
	l.Push(lua.LString(s.name))
	l.Push(lua.LNumber(s.id))
	return 2
}

// luaVariableSink lets costume variable components write Lua globals.
type luaVariableSink struct {
	l *lua.LState
}

func (v luaVariableSink) setGlobalInt(name string, value int32) {
	if v.l != nil {
		v.l.SetGlobal(name, lua.LNumber(value))
	}
}

func systemScriptInit(l *lua.LState) {
	actorFunctions(l)
	choreFunctions(l)
	movementFunctions(l)
	sceneFunctions(l)
	luaRegister(l, "refresh", func(*lua.LState) int {
		sys.step()
		return 0
	})
	luaRegister(l, "stepFrames", func(*lua.LState) int {
		sys.stepFrames(int32(numArg(l, 1)))
		return 0
	})
	luaRegister(l, "getTicks", func(*lua.LState) int {
		l.Push(lua.LNumber(sys.tickCount))
		return 1
	})
	luaRegister(l, "getFrameTime", func(*lua.LState) int {
		l.Push(lua.LNumber(sys.frameTime))
		return 1
	})
	luaRegister(l, "setFrameTime", func(*lua.LState) int {
		sys.setFrameTime(int32(numArg(l, 1)))
		return 0
	})
	luaRegister(l, "getConsole", func(*lua.LState) int {
		tbl := l.NewTable()
		for _, str := range sys.consoleText {
			tbl.Append(lua.LString(str))
		}
		l.Push(tbl)
		return 1
	})
	luaRegister(l, "saveStats", func(*lua.LState) int {
		if err := sys.saveStats(); err != nil {
			l.RaiseError("\nFailed to save stats: %v\n", err)
		}
		return 0
	})
	luaRegister(l, "endGame", func(*lua.LState) int {
		sys.gameEnd = true
		l.RaiseError("<game end>")
		return 0
	})
}

func actorFunctions(l *lua.LState) {
	luaRegister(l, "loadActor", func(*lua.LState) int {
		name := "<unnamed>"
		if !nilArg(l, 1) {
			name = strArg(l, 1)
		}
		l.Push(newUserData(l, sys.newActor(name)))
		return 1
	})
	luaRegister(l, "destroyActor", func(*lua.LState) int {
		sys.removeActor(actorArg(l, 1))
		return 0
	})
	luaRegister(l, "getActorName", func(*lua.LState) int {
		l.Push(lua.LString(actorArg(l, 1).name))
		return 1
	})
	luaRegister(l, "loadCostume", func(*lua.LState) int {
		_, err := sys.loader.find(strArg(l, 1))
		l.Push(lua.LBool(err == nil))
		return 1
	})
	luaRegister(l, "setActorCostume", func(*lua.LState) int {
		a := actorArg(l, 1)
		if nilArg(l, 2) {
			a.clearCostumes()
			l.Push(lua.LTrue)
			return 1
		}
		if err := a.setCostume(strArg(l, 2)); err != nil {
			l.RaiseError("%v", err)
		}
		l.Push(lua.LTrue)
		return 1
	})
	luaRegister(l, "pushActorCostume", func(*lua.LState) int {
		if err := actorArg(l, 1).pushCostume(strArg(l, 2)); err != nil {
			l.RaiseError("%v", err)
		}
		return 0
	})
	luaRegister(l, "popActorCostume", func(*lua.LState) int {
		actorArg(l, 1).popCostume()
		return 0
	})
	luaRegister(l, "getActorCostume", func(*lua.LState) int {
		a := actorArg(l, 1)
		if c := costumeArg(l, a, 2); c != nil {
			l.Push(lua.LString(c.fname))
		} else {
			l.Push(lua.LNil)
		}
		return 1
	})
	luaRegister(l, "getActorCostumeDepth", func(*lua.LState) int {
		l.Push(lua.LNumber(actorArg(l, 1).costumeStackDepth()))
		return 1
	})
	luaRegister(l, "printActorCostumes", func(*lua.LState) int {
		a := actorArg(l, 1)
		for _, str := range strings.Split(dumpConfig.Sdump(a.costumeDump()), "\n") {
			if str != "" {
				fmt.Println(str)
				sys.appendToConsole(str)
			}
		}
		return 0
	})
	luaRegister(l, "setActorColormap", func(*lua.LState) int {
		if err := actorArg(l, 1).setColormap(strArg(l, 2)); err != nil {
			l.RaiseError("%v", err)
		}
		return 0
	})
	luaRegister(l, "setActorVisibility", func(*lua.LState) int {
		actorArg(l, 1).setVisibility(boolArg(l, 2))
		return 0
	})
	luaRegister(l, "setActorTalkColor", func(*lua.LState) int {
		actorArg(l, 1).setTalkColor(int32(numArg(l, 2)), int32(numArg(l, 3)), int32(numArg(l, 4)))
		return 0
	})
	luaRegister(l, "getActorTalkColor", func(*lua.LState) int {
		c := actorArg(l, 1).talkColor
		l.Push(lua.LNumber(c[0]))
		l.Push(lua.LNumber(c[1]))
		l.Push(lua.LNumber(c[2]))
		return 3
	})
	luaRegister(l, "sayLine", func(*lua.LState) int {
		a := actorArg(l, 1)
		id := ""
		if !nilArg(l, 3) {
			id = strArg(l, 3)
		}
		a.sayLine(strArg(l, 2), id)
		return 0
	})
	luaRegister(l, "shutUpActor", func(*lua.LState) int {
		actorArg(l, 1).shutUp()
		return 0
	})
	luaRegister(l, "isActorTalking", func(*lua.LState) int {
		l.Push(lua.LBool(actorArg(l, 1).isTalking()))
		return 1
	})
}

func choreFunctions(l *lua.LState) {
	luaRegister(l, "setActorRestChore", func(*lua.LState) int {
		a := actorArg(l, 1)
		a.setRestChore(choreArg(l, 2), costumeArg(l, a, 3))
		return 0
	})
	luaRegister(l, "setActorWalkChore", func(*lua.LState) int {
		a := actorArg(l, 1)
		a.setWalkChore(choreArg(l, 2), costumeArg(l, a, 3))
		return 0
	})
	luaRegister(l, "setActorTurnChores", func(*lua.LState) int {
		a := actorArg(l, 1)
		if err := a.setTurnChores(choreArg(l, 2), choreArg(l, 3), costumeArg(l, a, 4)); err != nil {
			l.RaiseError("%v", err)
		}
		return 0
	})
	luaRegister(l, "setActorTalkChore", func(*lua.LState) int {
		a := actorArg(l, 1)
		a.setTalkChore(int32(numArg(l, 2)), choreArg(l, 3), costumeArg(l, a, 4))
		return 0
	})
	luaRegister(l, "setActorMumbleChore", func(*lua.LState) int {
		a := actorArg(l, 1)
		a.setMumbleChore(choreArg(l, 2), costumeArg(l, a, 3))
		return 0
	})
	luaRegister(l, "playActorChore", func(*lua.LState) int {
		a := actorArg(l, 1)
		a.playChore(choreArg(l, 2), costumeArg(l, a, 3), false)
		return 0
	})
	luaRegister(l, "playActorChoreLooping", func(*lua.LState) int {
		a := actorArg(l, 1)
		a.playChore(choreArg(l, 2), costumeArg(l, a, 3), true)
		return 0
	})
	luaRegister(l, "completeActorChore", func(*lua.LState) int {
		a := actorArg(l, 1)
		if c := costumeArg(l, a, 3); c != nil {
			c.setChoreLastFrame(choreArg(l, 2))
		} else if nilArg(l, 3) {
			a.warnf("completeActorChore: no costume")
		}
		return 0
	})
	luaRegister(l, "setActorChoreLooping", func(*lua.LState) int {
		a := actorArg(l, 1)
		if c := costumeArg(l, a, 4); c != nil {
			c.setChoreLooping(choreArg(l, 2), boolArg(l, 3))
		} else if nilArg(l, 4) {
			a.warnf("setActorChoreLooping: no costume")
		}
		return 0
	})
	luaRegister(l, "stopActorChore", func(*lua.LState) int {
		a := actorArg(l, 1)
		chore := choreArg(l, 2)
		costumes := a.costumes
		if !nilArg(l, 3) {
			c := costumeArg(l, a, 3)
			if c == nil {
				return 0
			}
			costumes = []*Costume{c}
		}
		for _, c := range costumes {
			if chore < 0 {
				c.stopChores()
			} else {
				c.stopChore(chore)
			}
		}
		return 0
	})
	luaRegister(l, "isActorChoring", func(*lua.LState) int {
		a := actorArg(l, 1)
		var cost *Costume
		if !nilArg(l, 4) {
			if cost = costumeArg(l, a, 4); cost == nil {
				l.Push(lua.LFalse)
				return 1
			}
		}
		l.Push(lua.LBool(a.isChoring(choreArg(l, 2), boolArg(l, 3), cost)))
		return 1
	})
}

func movementFunctions(l *lua.LState) {
	luaRegister(l, "putActorAt", func(*lua.LState) int {
		actorArg(l, 1).setPos(vec3Arg(l, 2))
		return 0
	})
	luaRegister(l, "getActorPos", func(*lua.LState) int {
		return pushVec3(l, actorArg(l, 1).pos)
	})
	luaRegister(l, "setActorRot", func(*lua.LState) int {
		a := actorArg(l, 1)
		pitch, yaw, roll := float32(numArg(l, 2)), float32(numArg(l, 3)), float32(numArg(l, 4))
		if boolArg(l, 5) {
			a.turnTo(pitch, yaw, roll)
		} else {
			a.setRot(pitch, yaw, roll)
		}
		return 0
	})
	luaRegister(l, "getActorRot", func(*lua.LState) int {
		a := actorArg(l, 1)
		l.Push(lua.LNumber(a.pitch))
		l.Push(lua.LNumber(a.yaw))
		l.Push(lua.LNumber(a.roll))
		return 3
	})
	luaRegister(l, "turnActor", func(*lua.LState) int {
		dir := int32(numArg(l, 2))
		if dir > 0 {
			dir = 1
		} else if dir < 0 {
			dir = -1
		}
		actorArg(l, 1).turn(dir)
		return 0
	})
	luaRegister(l, "turnActorTo", func(*lua.LState) int {
		a := actorArg(l, 1)
		yaw := a.yawTo(pointArg(l, 2))
		a.turnTo(a.pitch, yaw, a.roll)
		l.Push(lua.LBool(a.isTurning()))
		return 1
	})
	luaRegister(l, "walkActorTo", func(*lua.LState) int {
		actorArg(l, 1).walkTo(vec3Arg(l, 2))
		return 0
	})
	luaRegister(l, "walkActorForward", func(*lua.LState) int {
		actorArg(l, 1).walkForward()
		return 0
	})
	luaRegister(l, "setActorWalkRate", func(*lua.LState) int {
		actorArg(l, 1).setWalkRate(float32(numArg(l, 2)))
		return 0
	})
	luaRegister(l, "getActorWalkRate", func(*lua.LState) int {
		l.Push(lua.LNumber(actorArg(l, 1).walkRate))
		return 1
	})
	luaRegister(l, "setActorTurnRate", func(*lua.LState) int {
		actorArg(l, 1).setTurnRate(float32(numArg(l, 2)))
		return 0
	})
	luaRegister(l, "getActorTurnRate", func(*lua.LState) int {
		l.Push(lua.LNumber(actorArg(l, 1).turnRate))
		return 1
	})
	luaRegister(l, "setActorReflection", func(*lua.LState) int {
		actorArg(l, 1).setReflection(float32(numArg(l, 2)))
		return 0
	})
	luaRegister(l, "setActorConstrain", func(*lua.LState) int {
		actorArg(l, 1).setConstrain(boolArg(l, 2))
		return 0
	})
	luaRegister(l, "getActorPuckVector", func(*lua.LState) int {
		a := actorArg(l, 1)
		v := a.puckVector()
		if boolArg(l, 2) {
			v = v.Add(a.pos)
		}
		return pushVec3(l, v)
	})
	luaRegister(l, "getActorYawToPoint", func(*lua.LState) int {
		a := actorArg(l, 1)
		l.Push(lua.LNumber(a.yawTo(pointArg(l, 2))))
		return 1
	})
	luaRegister(l, "getAngleBetweenActors", func(*lua.LState) int {
		a, b := actorArg(l, 1), actorArg(l, 2)
		l.Push(lua.LNumber(a.angleTo(b)))
		return 1
	})
	luaRegister(l, "getActorNodeLocation", func(*lua.LState) int {
		p, ok := actorArg(l, 1).nodeLocation(int(numArg(l, 2)))
		if !ok {
			l.Push(lua.LNil)
			return 1
		}
		return pushVec3(l, p)
	})
	luaRegister(l, "setActorHead", func(*lua.LState) int {
		actorArg(l, 1).setHead(int(numArg(l, 2)), int(numArg(l, 3)), int(numArg(l, 4)),
			float32(numArg(l, 5)), float32(numArg(l, 6)), float32(numArg(l, 7)))
		return 0
	})
	// actorLookAt(actor, x, y, z[, rate]), (actor, other[, rate]) or
	// (actor, nil[, rate]) to look ahead again.
	luaRegister(l, "actorLookAt", func(*lua.LState) int {
		a := actorArg(l, 1)
		if a.currentCostume() == nil {
			a.warnf("actorLookAt: no costume")
			return 0
		}
		rateArg := 3
		switch v := l.Get(2).(type) {
		case lua.LNumber:
			p := mgl.Vec3{float32(v)}
			for i := 1; i < 3; i++ {
				if n, ok := l.Get(2 + i).(lua.LNumber); ok {
					p[i] = float32(n)
				}
			}
			a.lookAt(&p)
			rateArg = 5
		case *lua.LUserData:
			other, ok := v.Value.(*Actor)
			if !ok {
				userDataError(l, 2, other)
			}
			p := other.pos
			a.lookAt(&p)
		default:
			if !nilArg(l, 2) {
				l.RaiseError("\nArgument 2 is not a point or an actor: %v\n", v)
			}
			a.lookAt(nil)
		}
		if n, ok := l.Get(rateArg).(lua.LNumber); ok {
			a.setLookRate(float32(n))
		}
		return 0
	})
	luaRegister(l, "setActorLookRate", func(*lua.LState) int {
		actorArg(l, 1).setLookRate(float32(numArg(l, 2)))
		return 0
	})
	luaRegister(l, "getActorLookRate", func(*lua.LState) int {
		a := actorArg(l, 1)
		if a.currentCostume() == nil {
			l.Push(lua.LNil)
		} else {
			l.Push(lua.LNumber(a.head.rate))
		}
		return 1
	})
	luaRegister(l, "isActorLooking", func(*lua.LState) int {
		l.Push(lua.LBool(actorArg(l, 1).isLooking()))
		return 1
	})
	luaRegister(l, "isActorMoving", func(*lua.LState) int {
		l.Push(lua.LBool(actorArg(l, 1).isWalking()))
		return 1
	})
	luaRegister(l, "isActorTurning", func(*lua.LState) int {
		l.Push(lua.LBool(actorArg(l, 1).isTurning()))
		return 1
	})
	luaRegister(l, "isActorResting", func(*lua.LState) int {
		l.Push(lua.LBool(actorArg(l, 1).isResting()))
		return 1
	})
}

func sceneFunctions(l *lua.LState) {
	luaRegister(l, "loadSet", func(*lua.LState) int {
		set, err := sys.loadSet(strArg(l, 1))
		if err != nil {
			l.RaiseError("%v", err)
		}
		l.Push(lua.LString(set.name))
		return 1
	})
	luaRegister(l, "makeCurrentSet", func(*lua.LState) int {
		if err := sys.makeCurrentSet(strArg(l, 1)); err != nil {
			l.RaiseError("%v", err)
		}
		return 0
	})
	luaRegister(l, "getCurrentSet", func(*lua.LState) int {
		if sys.currSet == nil {
			l.Push(lua.LNil)
		} else {
			l.Push(lua.LString(sys.currSet.name))
		}
		return 1
	})
	luaRegister(l, "putActorInSet", func(*lua.LState) int {
		a := actorArg(l, 1)
		if nilArg(l, 2) {
			a.putInSet("")
		} else {
			a.putInSet(sys.setName(strArg(l, 2)))
		}
		return 0
	})
	luaRegister(l, "getActorSector", func(*lua.LState) int {
		a := actorArg(l, 1)
		if sys.currSet == nil || !a.inSet(sys.currSet.name) {
			l.Push(lua.LNil)
			return 1
		}
		return pushSector(l, sys.currSet.findPointSector(a.pos, sectorTypeArg(l, 2)))
	})
	luaRegister(l, "isActorInSector", func(*lua.LState) int {
		a := actorArg(l, 1)
		in := false
		if sys.currSet != nil {
			if s := sys.currSet.findSector(strArg(l, 2)); s != nil {
				in = s.visible && s.isPointInSector(a.pos)
			}
		}
		l.Push(lua.LBool(in))
		return 1
	})
	luaRegister(l, "getPointSector", func(*lua.LState) int {
		if sys.currSet == nil {
			l.Push(lua.LNil)
			return 1
		}
		return pushSector(l, sys.currSet.findPointSector(vec3Arg(l, 1), sectorTypeArg(l, 4)))
	})
	luaRegister(l, "getSoundPosition", func(*lua.LState) int {
		if sys.currSet == nil {
			l.Push(lua.LNil)
			return 1
		}
		p, ok := sys.currSet.soundPosition(strArg(l, 1))
		if !ok {
			l.Push(lua.LNil)
			return 1
		}
		return pushVec3(l, p)
	})
	luaRegister(l, "getObjectState", func(*lua.LState) int {
		if sys.currSet == nil {
			l.Push(lua.LNil)
			return 1
		}
		o := sys.currSet.findState(strArg(l, 1))
		if o == nil {
			l.Push(lua.LNil)
			return 1
		}
		l.Push(lua.LNumber(o.activeImage))
		l.Push(lua.LBool(o.visible))
		return 2
	})
}
