package output

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/endrorytm/Topos/internal/clock"
)

// allNotesOff is the MIDI CC that silences a whole channel.
const allNotesOff = 123

// MIDISink renders events on a gomidi output port, scheduling note-on at the
// event timestamp and note-off after the gate duration.
type MIDISink struct {
	port drivers.Out
	send func(midi.Message) error
	tl   *timeline
}

// Ports lists the names of the available MIDI outputs.
func Ports() []string {
	outs := midi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names
}

// OpenMIDI opens the first output port whose name contains name, or the
// first available port when name is empty.
func OpenMIDI(name string, source clock.TimeSource) (*MIDISink, error) {
	outs := midi.GetOutPorts()
	if len(outs) == 0 {
		return nil, fmt.Errorf("no MIDI output ports available")
	}
	var port drivers.Out
	if name == "" {
		port = outs[0]
	} else {
		for _, out := range outs {
			if strings.Contains(strings.ToLower(out.String()), strings.ToLower(name)) {
				port = out
				break
			}
		}
		if port == nil {
			return nil, fmt.Errorf("no MIDI output matching %q", name)
		}
	}
	send, err := midi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", port.String(), err)
	}
	return &MIDISink{port: port, send: send, tl: newTimeline(source)}, nil
}

// Port returns the name of the open output port.
func (m *MIDISink) Port() string { return m.port.String() }

func (m *MIDISink) Send(ev Event) error {
	ch, key, vel := ev.Channel, ev.Key, ev.Velocity
	m.tl.at(ev.When, func() {
		_ = m.send(midi.NoteOn(ch, key, vel))
	})
	m.tl.at(ev.When+ev.Duration, func() {
		_ = m.send(midi.NoteOff(ch, key))
	})
	return nil
}

func (m *MIDISink) Silence() error {
	for ch := uint8(0); ch < 16; ch++ {
		if err := m.send(midi.ControlChange(ch, allNotesOff, 0)); err != nil {
			return err
		}
	}
	return nil
}

func (m *MIDISink) Close() error {
	m.tl.close()
	if err := m.Silence(); err != nil {
		_ = m.port.Close()
		return err
	}
	return m.port.Close()
}
