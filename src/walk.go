package main

import (
	"math"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// Step past an exit point when looking for the next sector.
const sectorExitEpsilon = 0.0001

func (a *Actor) setPos(p mgl.Vec3) {
	a.walking = false
	a.pos = p
}

func (a *Actor) setRot(pitch, yaw, roll float32) {
	a.pitch, a.yaw, a.roll = pitch, normAngle(yaw), roll
	a.turning = false
}

// turnTo starts turning toward yaw. Pitch and roll apply at once.
func (a *Actor) turnTo(pitch, yaw, roll float32) {
	a.pitch, a.roll = pitch, roll
	yaw = normAngle(yaw)
	if a.yaw != yaw {
		a.turning = true
		a.destYaw = yaw
	} else {
		a.turning = false
	}
}

// turn steps the yaw by one frame of turning in dir (1 left, -1 right).
func (a *Actor) turn(dir int32) {
	a.yaw = normAngle(a.yaw + sys.perSecond(a.turnRate)*float32(dir))
	a.currTurnDir = dir
}

func (a *Actor) walkTo(p mgl.Vec3) {
	if p == a.pos {
		a.walking = false
		return
	}
	a.walking = true
	a.destPos = p
	if p[0] != a.pos[0] || p[1] != a.pos[1] {
		a.turnTo(a.pitch, a.yawTo(p), a.roll)
	}
}

func (a *Actor) setWalkRate(r float32)       { a.walkRate = r }
func (a *Actor) setTurnRate(r float32)       { a.turnRate = r }
func (a *Actor) setReflection(angle float32) { a.reflectionAngle = angle }
func (a *Actor) setConstrain(c bool)         { a.constrain = c }

func (a *Actor) isWalking() bool {
	return a.walkedLast || a.walkedCur || a.walking
}

func (a *Actor) isTurning() bool {
	return a.turning || a.lastTurnDir != 0 || a.currTurnDir != 0
}

func (a *Actor) isResting() bool {
	return !(a.walking || a.turning)
}

func (a *Actor) forwardVec() mgl.Vec3 {
	yaw, pitch := float64(mgl.DegToRad(a.yaw)), float64(mgl.DegToRad(a.pitch))
	return mgl.Vec3{float32(-math.Sin(yaw) * math.Cos(pitch)),
		float32(math.Cos(yaw) * math.Cos(pitch)), float32(math.Sin(pitch))}
}

// Yaw (degrees) that faces p.
func (a *Actor) yawTo(p mgl.Vec3) float32 {
	dx, dy := p[0]-a.pos[0], p[1]-a.pos[1]
	if dx == 0 && dy == 0 {
		return a.yaw
	}
	return mgl.RadToDeg(float32(math.Atan2(float64(-dx), float64(dy))))
}

// Unsigned angle (degrees) between the facing and the direction to other.
func (a *Actor) angleTo(other *Actor) float32 {
	yaw := float64(mgl.DegToRad(a.yaw))
	forward := mgl.Vec3{float32(-math.Sin(yaw)), float32(math.Cos(yaw)), 0}
	delta := other.pos.Sub(a.pos)
	delta[2] = 0
	return mgl.RadToDeg(vecAngle(forward, delta))
}

// puckVector is the facing projected onto the walk sector under the actor.
func (a *Actor) puckVector() mgl.Vec3 {
	yaw := float64(mgl.DegToRad(a.yaw))
	forward := mgl.Vec3{float32(-math.Sin(yaw)), float32(math.Cos(yaw)), 0}
	set := a.env.currentSet()
	if set == nil {
		return forward
	}
	sector := set.findPointSector(a.pos, ST_Walk)
	if sector == nil {
		return forward
	}
	return sector.projectToPuckVector(forward)
}

// walkForward moves one frame along the facing. Constrained actors slide
// through adjacent walk sectors and glance off walls hit at no more than
// the reflection angle; steeper walls stop them.
func (a *Actor) walkForward() {
	dist := sys.perSecond(a.walkRate)
	forwardVec := a.forwardVec()
	set := a.env.currentSet()
	if !a.constrain || set == nil {
		a.pos = a.pos.Add(forwardVec.Mul(dist))
		a.walkedCur = true
		a.recordDistance(AbsF(dist))
		return
	}
	if dist < 0 {
		forwardVec = forwardVec.Mul(-1)
		dist = -dist
	}

	currSector, snapped := set.findClosestSector(a.pos, ST_Walk)
	if currSector == nil {
		a.pos = a.pos.Add(forwardVec.Mul(dist))
		a.walkedCur = true
		a.recordDistance(dist)
		return
	}
	a.pos = snapped

	var ei ExitInfo
	for {
		prevSector := currSector
		puckVector := currSector.projectToPuckVector(forwardVec)
		if puckVector.Len() == 0 {
			return
		}
		puckVector = puckVector.Normalize()
		ei = currSector.getExitInfo(a.pos, puckVector)
		exitDist := ei.exitPoint.Sub(a.pos).Len()
		if dist < exitDist {
			a.pos = a.pos.Add(puckVector.Mul(dist))
			a.walkedCur = true
			a.recordDistance(dist)
			return
		}
		a.pos = ei.exitPoint
		dist -= exitDist
		if exitDist > sectorExitEpsilon {
			a.walkedCur = true
			a.recordDistance(exitDist)
		}
		currSector = set.findPointSector(ei.exitPoint.Add(puckVector.Mul(sectorExitEpsilon)), ST_Walk)
		if currSector == nil || currSector == prevSector {
			break
		}
	}

	// Hit a wall.
	angle := mgl.RadToDeg(ei.angleWithEdge)
	turnDir := float32(1)
	if angle > 90 {
		angle = 180 - angle
		turnDir = -1
	}
	if angle > a.reflectionAngle || angle < sectorExitEpsilon {
		return
	}
	angle += 0.1
	turnAmt := sys.perSecond(a.turnRate)
	if turnAmt > angle {
		turnAmt = angle
	}
	a.yaw = normAngle(a.yaw + turnAmt*turnDir)
}
