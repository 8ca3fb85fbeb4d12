package output

import (
	"github.com/endrorytm/Topos/internal/audio"
	"github.com/endrorytm/Topos/internal/clock"
)

// SynthSink renders events on the built-in software synth with the same
// timestamp discipline as the MIDI sink.
type SynthSink struct {
	synth *audio.Synth
	tl    *timeline
}

func NewSynthSink(synth *audio.Synth, source clock.TimeSource) *SynthSink {
	return &SynthSink{synth: synth, tl: newTimeline(source)}
}

func (s *SynthSink) Send(ev Event) error {
	ch, key, vel := ev.Channel, ev.Key, ev.Velocity
	s.tl.at(ev.When, func() {
		s.synth.NoteOn(ch, key, vel)
	})
	s.tl.at(ev.When+ev.Duration, func() {
		s.synth.NoteOff(ch, key)
	})
	return nil
}

func (s *SynthSink) Silence() error {
	s.synth.AllNotesOff()
	return nil
}

func (s *SynthSink) Close() error {
	s.tl.close()
	return s.synth.Close()
}
