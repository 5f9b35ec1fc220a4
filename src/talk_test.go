package main

import (
	"strings"
	"testing"
)

const helloLip = `{"entries": [
  {"frame": 60, "anim": 0},
  {"frame": 0, "anim": 2},
  {"frame": 30, "phoneme": "m"}
]}`

// newTalker returns an actor wearing anim.cos with talk chores bound for
// anims 0, 2 and 6, and hello.wav (one second) and hello.lip on disk.
func newTalker(t *testing.T, soundEnabled bool) (*Actor, *Costume) {
	t.Helper()
	a, dir := newCostumedActor(t)
	writeAsset(t, dir, "hello.wav", testWAV(44100, 44100))
	writeAsset(t, dir, "hello.lip", []byte(helloLip))
	a.env.sound = newSoundManager(a.env.loader, soundEnabled, 44100, 100)
	c := a.currentCostume()
	a.setTalkChore(1, choreMouthClosed, c)
	a.setTalkChore(3, choreMouthOpen, c)
	a.setTalkChore(7, choreMouthM, c)
	a.setMumbleChore(choreMumble, c)
	return a, c
}

func TestParseMessageID(t *testing.T) {
	for _, tc := range []struct{ msg, id, text string }{
		{"/hello01/Hello there.", "hello01", "Hello there."},
		{"/x/", "x", ""},
		{"Hello there.", "", "Hello there."},
		{"/unterminated", "", "/unterminated"},
	} {
		id, text := parseMessageID(tc.msg)
		if id != tc.id || text != tc.text {
			t.Errorf("parseMessageID(%q) = %q, %q", tc.msg, id, text)
		}
	}
}

func TestSayLineLipSync(t *testing.T) {
	resetSys(t)
	a, c := newTalker(t, true)
	sm := a.env.sound
	ctx := &UpdateContext{frameTime: 100, sound: sm}

	a.sayLine("/hello/Hello there.", "")
	if !a.isTalking() || a.lipSync == nil || !sm.isPlaying("hello.wav") {
		t.Fatal("line did not start with lip-sync")
	}
	a.update(ctx)
	if a.talkAnim != 2 || !c.isChoring(choreMouthOpen, false) {
		t.Errorf("talk anim %d at the start", a.talkAnim)
	}

	sm.advance(600)
	if pos := sm.posIn60HzTicks("hello.wav"); pos != 36 {
		t.Errorf("voice at tick %d, want 36", pos)
	}
	a.update(ctx)
	if a.talkAnim != 6 || !c.isChoring(choreMouthM, false) || c.isChoring(choreMouthOpen, false) {
		t.Errorf("talk anim %d after 600ms", a.talkAnim)
	}

	sm.advance(600)
	if sm.isPlaying("hello.wav") {
		t.Fatal("voice still playing past its end")
	}
	a.update(ctx)
	if a.isTalking() || a.lipSync != nil || a.talkAnim != -1 || c.isChoring(choreMouthM, false) {
		t.Error("actor still talking after the voice ended")
	}
	if n := len(a.env.loader.cache); n != 0 {
		t.Errorf("%d assets cached after the line", n)
	}
	if sys.stats.actor("manny").Lines != 1 {
		t.Error("line not counted")
	}
}

func TestSayLineMumblesWithoutSound(t *testing.T) {
	resetSys(t)
	a, c := newTalker(t, false)
	ctx := &UpdateContext{frameTime: 100, sound: a.env.sound}
	a.sayLine("Hello there.", "hello")
	if !a.isTalking() || a.lipSync != nil || !c.isChoring(choreMumble, false) {
		t.Fatal("muted line should mumble")
	}
	if a.mutedTimeLeft != 1000 {
		t.Errorf("muted line lasts %dms, want the clip length", a.mutedTimeLeft)
	}
	for i := 0; i < 9; i++ {
		a.update(ctx)
	}
	if !a.isTalking() {
		t.Error("muted line ended before the clip length")
	}
	a.update(ctx)
	if a.isTalking() || c.isChoring(choreMumble, false) {
		t.Error("muted line did not end after the clip length")
	}
	if n := len(a.env.loader.cache); n != 0 {
		t.Errorf("%d assets cached", n)
	}

	a.sayLine("/ghost/Boooooooooooooooooo!", "")
	if a.mutedTimeLeft != 20*talkMsPerChar {
		t.Errorf("muted line without a clip lasts %dms", a.mutedTimeLeft)
	}
	a.shutUp()
	if a.isTalking() || c.isChoring(choreMumble, false) {
		t.Error("shutUp left the mumble playing")
	}
	a.sayLine("/ghost/Boo.", "")
	if a.mutedTimeLeft != talkMinMutedTime {
		t.Errorf("short muted line lasts %dms", a.mutedTimeLeft)
	}
}

func TestSayLineWithoutLipSync(t *testing.T) {
	resetSys(t)
	a, c := newTalker(t, true)
	a.sayLine("/bye/Bye.", "")
	if !c.isChoring(choreMumble, false) {
		t.Error("line without lip-sync data should mumble")
	}
	console := strings.Join(sys.consoleText, "\n")
	if !strings.Contains(console, "bye.wav") || !strings.Contains(console, "bye.lip") {
		t.Errorf("missing assets not reported: %v", sys.consoleText)
	}

	a.sayLine("no id here", "")
	if !strings.Contains(sys.consoleText[len(sys.consoleText)-1], "no message id") {
		t.Error("line without an id accepted")
	}
}

func TestSayLineMissingLipFile(t *testing.T) {
	resetSys(t)
	a, c := newTalker(t, true)
	writeAsset(t, a.env.loader.dirs[0], "solo.wav", testWAV(4410, 44100))
	a.sayLine("/solo/No lips.", "")
	if !a.env.sound.isPlaying("solo.wav") || a.lipSync != nil || !c.isChoring(choreMumble, false) {
		t.Error("line without a .lip file should play the voice and mumble")
	}
	if len(sys.consoleText) != 1 || !strings.Contains(sys.consoleText[0], "solo.lip") {
		t.Errorf("missing lip-sync file not reported: %v", sys.consoleText)
	}
}

func TestSayLineInvisibleActor(t *testing.T) {
	resetSys(t)
	a, c := newTalker(t, true)
	a.setVisibility(false)
	a.sayLine("/hello/Hi.", "")
	if !a.isTalking() || a.lipSync != nil || c.isChoringAny(false) >= 0 {
		t.Error("invisible actor should talk without chores")
	}
	a.destroy()
	if a.isTalking() || a.env.sound.isPlaying("hello.wav") {
		t.Error("destroy did not stop the line")
	}
}
