package main

import (
	"strings"
)

// Muted lines without a readable clip last this long per character of
// text, and never less than talkMinMutedTime.
const (
	talkMsPerChar    = 60
	talkMinMutedTime = 1000
)

// parseMessageID splits "/msgId/text" into its id and text. Messages
// without an id return "" and the whole message.
func parseMessageID(msg string) (id, text string) {
	if !strings.HasPrefix(msg, "/") {
		return "", msg
	}
	end := strings.Index(msg[1:], "/")
	if end < 0 {
		return "", msg
	}
	return msg[1 : end+1], msg[end+2:]
}

// sayLine starts the voice clip msgID.wav and drives the talk chores from
// msgID.lip. Without usable lip-sync data the mumble chore loops instead.
func (a *Actor) sayLine(msg, msgID string) {
	text := msg
	if msgID == "" {
		msgID, text = parseMessageID(msg)
	}
	if msgID == "" {
		a.warnf("sayLine: no message id in %q", msg)
		return
	}
	soundName := msgID + ".wav"
	if a.talkSoundName == soundName {
		return
	}
	sm := a.env.sound
	if a.talkSoundName != "" || msg == "" {
		a.shutUp()
	}
	a.talkSoundName = soundName
	a.mutedTimeLeft = 0
	if sm != nil && sm.enabled {
		if err := sm.startVoice(soundName); err != nil {
			a.warnf("sayLine: %v", err)
		}
	} else {
		a.mutedTimeLeft = a.mutedLineTime(soundName, text)
	}
	if set := a.env.currentSet(); set != nil {
		set.setSoundPosition(soundName, a.pos)
	}
	if sys.stats != nil {
		sys.stats.addLine(a.name)
	}
	a.talkAnim = -1
	if !a.visible {
		return
	}
	ls, err := a.env.loader.loadLipSync(msgID + ".lip")
	if err != nil {
		a.warnf("sayLine: %v", err)
	} else if !ls.isValid() {
		a.warnf("sayLine: %v.lip has no entries", msgID)
		a.env.loader.release(ls)
		ls = nil
	}
	if ls == nil || sm == nil || !sm.enabled {
		if ls != nil {
			a.env.loader.release(ls)
		}
		a.mumbleChore.playLooping()
		return
	}
	a.lipSync = ls
}

// shutUp stops the current line and its talk or mumble chore.
func (a *Actor) shutUp() {
	if a.talkSoundName != "" {
		if sm := a.env.sound; sm != nil {
			sm.stop(a.talkSoundName)
		}
		a.talkSoundName = ""
	}
	if a.lipSync != nil {
		if a.talkAnim >= 0 {
			a.talkChore[a.talkAnim].stop()
		}
		a.env.loader.release(a.lipSync)
		a.lipSync = nil
	} else {
		a.mumbleChore.stop()
	}
	a.talkAnim = -1
	a.mutedTimeLeft = 0
}

// mutedLineTime is how long a line runs with sound off: the length of its
// clip when the clip loads, otherwise an estimate from the text.
func (a *Actor) mutedLineTime(soundName, text string) int32 {
	if clip, err := a.env.loader.loadSound(soundName); err == nil {
		ms := int32(int64(clip.length()) * 1000 / int64(clip.format.SampleRate))
		a.env.loader.release(clip)
		return Max(ms, 1)
	}
	return Max(int32(len([]rune(text)))*talkMsPerChar, talkMinMutedTime)
}

func (a *Actor) isTalking() bool {
	if a.talkSoundName == "" {
		return false
	}
	sm := a.env.sound
	if sm == nil || !sm.enabled {
		return a.mutedTimeLeft > 0
	}
	return sm.isPlaying(a.talkSoundName)
}

// updateLipSync switches talk chores to follow the voice clip. A position
// the lip-sync data doesn't cover holds the current chore.
func (a *Actor) updateLipSync(ctx *UpdateContext) {
	if a.talkSoundName == "" {
		return
	}
	sm := ctx.sound
	if sm == nil || !sm.enabled {
		a.mutedTimeLeft -= ctx.frameTime
		if a.mutedTimeLeft <= 0 {
			a.shutUp()
		}
		return
	}
	if !sm.isPlaying(a.talkSoundName) {
		a.shutUp()
		return
	}
	if a.lipSync == nil {
		return
	}
	anim := a.lipSync.getAnim(sm.posIn60HzTicks(a.talkSoundName))
	if anim < 0 || anim == a.talkAnim {
		return
	}
	if a.talkAnim >= 0 {
		a.talkChore[a.talkAnim].stop()
	}
	a.talkAnim = anim
	a.talkChore[anim].playLooping()
}
