// Package audio is the built-in rendering backend: a small polyphonic
// synthesizer streaming through oto, for sessions without a MIDI destination.
package audio

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate   = 44100
	channelCount = 2
	bitDepth     = 2 // bytes per sample, 16-bit signed
)

// Wave selects the oscillator shape.
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
	WaveTriangle
)

// ParseWave maps a config string to a wave shape, defaulting to sine.
func ParseWave(s string) Wave {
	switch s {
	case "square":
		return WaveSquare
	case "saw", "sawtooth":
		return WaveSaw
	case "triangle":
		return WaveTriangle
	default:
		return WaveSine
	}
}

type voice struct {
	key       uint8
	channel   uint8
	freq      float64
	phase     float64
	gain      float64
	env       float64
	releasing bool
	active    bool
}

// Synth is a mutex-guarded oscillator bank. The oto player pulls samples from
// it on the audio thread while note calls arrive from the output sink's
// timers.
type Synth struct {
	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	voices []voice
	wave   Wave
	volume float64

	attack  float64 // envelope increment per sample
	release float64 // envelope decay factor per sample
}

const maxVoices = 32

func NewSynth(wave Wave, volume float64) (*Synth, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	if volume <= 0 || volume > 1 {
		volume = 0.3
	}
	s := &Synth{
		ctx:     ctx,
		voices:  make([]voice, maxVoices),
		wave:    wave,
		volume:  volume,
		attack:  1.0 / (0.005 * sampleRate),                // 5ms attack
		release: math.Pow(0.001, 1.0/(0.2*sampleRate)),     // ~200ms release tail
	}
	s.player = ctx.NewPlayer(&stream{synth: s})
	s.player.Play()
	return s, nil
}

// stream adapts the synth to the io.Reader oto pulls from.
type stream struct {
	synth *Synth
}

func (r *stream) Read(buf []byte) (int, error) {
	s := r.synth
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(buf) / (channelCount * bitDepth)
	for i := 0; i < frames; i++ {
		var sample float64
		for v := range s.voices {
			vc := &s.voices[v]
			if !vc.active {
				continue
			}
			sample += oscillate(s.wave, vc.phase) * vc.gain * vc.env * 0.2

			vc.phase += vc.freq / sampleRate
			if vc.phase >= 1.0 {
				vc.phase -= 1.0
			}
			if vc.releasing {
				vc.env *= s.release
				if vc.env < 0.001 {
					vc.active = false
				}
			} else if vc.env < 1.0 {
				vc.env += s.attack
				if vc.env > 1.0 {
					vc.env = 1.0
				}
			}
		}

		sample *= s.volume
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}
		out := int16(sample * 32767)

		idx := i * channelCount * bitDepth
		buf[idx] = byte(out)
		buf[idx+1] = byte(out >> 8)
		buf[idx+2] = byte(out)
		buf[idx+3] = byte(out >> 8)
	}
	return len(buf), nil
}

func oscillate(w Wave, phase float64) float64 {
	switch w {
	case WaveSquare:
		if phase < 0.5 {
			return 0.8
		}
		return -0.8
	case WaveSaw:
		return 2*phase - 1
	case WaveTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// NoteOn starts a voice, stealing the quietest one when the bank is full.
func (s *Synth) NoteOn(channel, key, velocity uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if velocity == 0 {
		s.noteOffLocked(channel, key)
		return
	}

	slot := -1
	quietest := math.Inf(1)
	for i := range s.voices {
		if !s.voices[i].active {
			slot = i
			break
		}
		if s.voices[i].env < quietest {
			quietest = s.voices[i].env
			slot = i
		}
	}

	s.voices[slot] = voice{
		key:     key,
		channel: channel,
		freq:    keyToFreq(key),
		gain:    float64(velocity) / 127.0,
		active:  true,
	}
}

// NoteOff releases the matching voice into its decay tail.
func (s *Synth) NoteOff(channel, key uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteOffLocked(channel, key)
}

func (s *Synth) noteOffLocked(channel, key uint8) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.active && !v.releasing && v.key == key && v.channel == channel {
			v.releasing = true
			return
		}
	}
}

// AllNotesOff releases every sounding voice.
func (s *Synth) AllNotesOff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.voices {
		if s.voices[i].active {
			s.voices[i].releasing = true
		}
	}
}

// SetVolume sets the master volume, clamped to [0, 1].
func (s *Synth) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	s.volume = v
}

// Close stops the stream. oto players need no explicit teardown beyond this.
func (s *Synth) Close() error {
	s.AllNotesOff()
	return nil
}

// keyToFreq converts a MIDI key number to Hz: A4 (69) is 440.
func keyToFreq(key uint8) float64 {
	return 440.0 * math.Pow(2.0, (float64(key)-69.0)/12.0)
}
