package main

type ChoreKey struct {
	time  int32
	value int32
}

type ChoreTrack struct {
	compID int
	keys   []ChoreKey
}

// Chore is a timed script of component keys. currTime is -1 until the
// first update after play.
type Chore struct {
	name      string
	length    int32
	tracks    []ChoreTrack
	owner     *Costume
	hasPlayed bool
	playing   bool
	looping   bool
	currTime  int32
}

func newChore(owner *Costume, name string, length int32, tracks []ChoreTrack) *Chore {
	return &Chore{name: name, length: length, tracks: tracks, owner: owner, currTime: -1}
}

func (ch *Chore) component(id int) Component {
	if ch.owner == nil || id < 0 || id >= len(ch.owner.components) {
		return nil
	}
	return ch.owner.components[id]
}

func (ch *Chore) play() {
	ch.playing = true
	ch.looping = false
	ch.hasPlayed = true
	ch.currTime = -1
}

func (ch *Chore) playLooping() {
	ch.play()
	ch.looping = true
}

func (ch *Chore) setLooping(loop bool) {
	ch.looping = loop
}

// stop resets every track's component. Stopping a stopped chore does
// nothing.
func (ch *Chore) stop() {
	if !ch.playing {
		return
	}
	ch.playing = false
	ch.hasPlayed = false
	ch.resetTracks()
}

func (ch *Chore) resetTracks() {
	for _, t := range ch.tracks {
		if c := ch.component(t.compID); c != nil {
			c.reset()
		}
	}
}

// setLastFrame snaps a never played chore to its end state.
func (ch *Chore) setLastFrame() {
	if ch.hasPlayed {
		return
	}
	ch.currTime = ch.length
	ch.playing = false
	ch.hasPlayed = true
	ch.looping = false
	ch.setKeys(-1, ch.length)
}

// setKeys dispatches every key with startTime < time <= stopTime, in time
// order within each track.
func (ch *Chore) setKeys(startTime, stopTime int32) {
	for _, t := range ch.tracks {
		c := ch.component(t.compID)
		if c == nil {
			continue
		}
		for _, k := range t.keys {
			if k.time > stopTime {
				break
			}
			if k.time > startTime {
				c.setKey(k.value)
			}
		}
	}
}

func (ch *Chore) update(frameTime int32) {
	if !ch.playing {
		return
	}
	var newTime int32
	if ch.currTime < 0 {
		newTime = 0
	} else {
		newTime = ch.currTime + frameTime
	}
	ch.setKeys(ch.currTime, newTime)
	if newTime > ch.length {
		if !ch.looping || ch.length <= 0 {
			ch.stop()
			return
		}
		for newTime > ch.length {
			newTime -= ch.length
			ch.setKeys(-1, newTime)
		}
	}
	ch.currTime = newTime
}

func (ch *Chore) isPlaying(excludeLooping bool) bool {
	return ch.playing && !(excludeLooping && ch.looping)
}
