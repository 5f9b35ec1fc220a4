package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	audioFrequency       = 44100
	audioResampleQuality = 1
	audioMixChunk        = 512
)

// ------------------------------------------------------------------
// SoundClip

// SoundClip is a fully decoded sound asset.
type SoundClip struct {
	buf    *beep.Buffer
	format beep.Format
}

func decodeSoundClip(r io.Reader, ext string) (*SoundClip, error) {
	var s beep.StreamSeekCloser
	var format beep.Format
	var err error
	switch strings.ToLower(ext) {
	case ".ogg":
		s, format, err = vorbis.Decode(io.NopCloser(r))
	case ".mp3":
		s, format, err = mp3.Decode(io.NopCloser(r))
	case ".flac":
		s, format, err = flac.Decode(r)
	default:
		s, format, err = wav.Decode(r)
	}
	if err != nil {
		return nil, err
	}
	defer s.Close()
	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err = s.Err(); err != nil {
		return nil, err
	}
	return &SoundClip{buf: buf, format: format}, nil
}

// Clip length in samples.
func (c *SoundClip) length() int {
	return c.buf.Len()
}

// ------------------------------------------------------------------
// BufferSeeker ‒ wraps *beep.Buffer and tracks the play position

type BufferSeeker struct {
	buf *beep.Buffer
	pos int
	str beep.Streamer
}

func newBufferSeeker(buf *beep.Buffer) *BufferSeeker {
	return &BufferSeeker{
		buf: buf,
		str: buf.Streamer(0, buf.Len()),
	}
}

func (b *BufferSeeker) Stream(out [][2]float64) (n int, ok bool) {
	n, ok = b.str.Stream(out)
	b.pos += n
	return n, ok
}

func (b *BufferSeeker) Seek(p int) error {
	if p < 0 {
		p = 0
	} else if p > b.buf.Len() {
		p = b.buf.Len()
	}
	b.pos = p
	b.str = b.buf.Streamer(p, b.buf.Len())
	return nil
}

func (b *BufferSeeker) Position() int { return b.pos }
func (b *BufferSeeker) Len() int      { return b.buf.Len() }
func (b *BufferSeeker) Err() error    { return nil }

// ------------------------------------------------------------------
// StreamLooper

// Based on Loop() from Beep package. loopcount -1 loops forever, 0 plays
// through to the end; it may be changed while playing.
type StreamLooper struct {
	s         beep.StreamSeeker
	loopcount int
	err       error
}

func newStreamLooper(s beep.StreamSeeker, loopcount int) *StreamLooper {
	return &StreamLooper{s: s, loopcount: loopcount}
}

func (l *StreamLooper) Stream(samples [][2]float64) (n int, ok bool) {
	if l.err != nil || l.s.Len() == 0 {
		return 0, false
	}
	for len(samples) > 0 {
		toStream := len(samples)
		if l.loopcount != 0 {
			samplesUntilEnd := l.s.Len() - l.s.Position()
			if samplesUntilEnd <= 0 {
				if l.loopcount > 0 {
					l.loopcount--
				}
				if err := l.s.Seek(0); err != nil {
					l.err = err
					return n, true
				}
				continue
			}
			toStream = MinI(samplesUntilEnd, toStream)
		}
		sn, sok := l.s.Stream(samples[:toStream])
		n += sn
		if sn < toStream || !sok {
			l.err = l.s.Err()
			return n, n > 0
		}
		samples = samples[sn:]
	}
	return n, true
}

func (l *StreamLooper) Err() error {
	return l.s.Err()
}

// ------------------------------------------------------------------
// AudioChannel

type AudioChannel struct {
	name   string
	clip   *SoundClip
	seeker *BufferSeeker
	looper *StreamLooper
	ctrl   *beep.Ctrl
	voice  bool
	done   bool
}

func (ch *AudioChannel) isPlaying() bool {
	return ch != nil && !ch.done && ch.ctrl != nil && ch.ctrl.Streamer != nil
}

func (ch *AudioChannel) stop() {
	if ch.ctrl != nil {
		ch.ctrl.Streamer = nil
	}
	ch.done = true
}

// ------------------------------------------------------------------
// SoundManager

// SoundManager plays sound effects and voice clips through a mixer that is
// pumped by the frame loop rather than an audio device.
type SoundManager struct {
	enabled      bool
	sampleRate   beep.SampleRate
	masterVolume int32
	loader       *ResourceLoader
	mixer        *beep.Mixer
	channels     map[string]*AudioChannel
	scratch      [][2]float64
	mixedSamples int
}

func newSoundManager(loader *ResourceLoader, enabled bool, sampleRate, masterVolume int32) *SoundManager {
	if sampleRate <= 0 {
		sampleRate = audioFrequency
	}
	return &SoundManager{
		enabled:      enabled,
		sampleRate:   beep.SampleRate(sampleRate),
		masterVolume: Clamp(masterVolume, 0, 100),
		loader:       loader,
		mixer:        &beep.Mixer{},
		channels:     make(map[string]*AudioChannel),
		scratch:      make([][2]float64, audioMixChunk),
	}
}

// Master volume as an effects.Volume exponent of base 2.
func (sm *SoundManager) volume() (float64, bool) {
	if sm.masterVolume <= 0 {
		return 0, true
	}
	return math.Log2(float64(sm.masterVolume) / 100), false
}

func (sm *SoundManager) start(name string, loop, voice bool) error {
	if !sm.enabled {
		return nil
	}
	key := strings.ToLower(name)
	if ch := sm.channels[key]; ch.isPlaying() {
		if loop {
			ch.looper.loopcount = -1
		}
		return nil
	}
	sm.remove(key)
	clip, err := sm.loader.loadSound(name)
	if err != nil {
		return err
	}
	ch := &AudioChannel{name: name, clip: clip, voice: voice}
	ch.seeker = newBufferSeeker(clip.buf)
	loopCount := 0
	if loop {
		loopCount = -1
	}
	ch.looper = newStreamLooper(ch.seeker, loopCount)
	vol, silent := sm.volume()
	var s beep.Streamer = &effects.Volume{Streamer: ch.looper, Base: 2, Volume: vol, Silent: silent}
	if clip.format.SampleRate != sm.sampleRate {
		s = beep.Resample(audioResampleQuality, clip.format.SampleRate, sm.sampleRate, s)
	}
	ch.ctrl = &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() { ch.done = true }))}
	sm.channels[key] = ch
	sm.mixer.Add(ch.ctrl)
	return nil
}

func (sm *SoundManager) startSfx(name string, loop bool) error {
	return sm.start(name, loop, false)
}

func (sm *SoundManager) startVoice(name string) error {
	return sm.start(name, false, true)
}

func (sm *SoundManager) remove(key string) {
	if ch, ok := sm.channels[key]; ok {
		ch.stop()
		delete(sm.channels, key)
		sm.loader.release(ch.clip)
	}
}

func (sm *SoundManager) stop(name string) {
	sm.remove(strings.ToLower(name))
}

func (sm *SoundManager) setLooping(name string, loop bool) {
	if ch := sm.channels[strings.ToLower(name)]; ch.isPlaying() {
		if loop {
			ch.looper.loopcount = -1
		} else {
			ch.looper.loopcount = 0
		}
	}
}

func (sm *SoundManager) isPlaying(name string) bool {
	return sm.channels[strings.ToLower(name)].isPlaying()
}

// posIn60HzTicks returns the play position of a clip, or -1 when it isn't
// playing.
func (sm *SoundManager) posIn60HzTicks(name string) int32 {
	ch := sm.channels[strings.ToLower(name)]
	if !ch.isPlaying() {
		return -1
	}
	rate := int(ch.clip.format.SampleRate)
	if rate <= 0 {
		return -1
	}
	return int32(ch.seeker.Position() * 60 / rate)
}

// advance mixes ms worth of output and retires finished channels.
func (sm *SoundManager) advance(ms int32) {
	if !sm.enabled || ms <= 0 {
		return
	}
	n := sm.sampleRate.N(time.Duration(ms) * time.Millisecond)
	for n > 0 {
		chunk := MinI(n, len(sm.scratch))
		sm.mixer.Stream(sm.scratch[:chunk])
		n -= chunk
		sm.mixedSamples += chunk
	}
	for key, ch := range sm.channels {
		if !ch.isPlaying() {
			sm.remove(key)
		}
	}
}

func (sm *SoundManager) stopAll() {
	for key := range sm.channels {
		sm.remove(key)
	}
	sm.mixer.Clear()
}

func (sm *SoundManager) String() string {
	return fmt.Sprintf("sound: %d channels, %d samples mixed", len(sm.channels), sm.mixedSamples)
}
