// Package playback flattens planned events into timed raw MIDI messages for
// players and synthesizers.
package playback

import (
	"fmt"

	"github.com/jsphweid/degreec/constants"
	"github.com/jsphweid/degreec/midi"
	"github.com/jsphweid/degreec/model"
	"github.com/jsphweid/degreec/planner"
	log "github.com/sirupsen/logrus"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Message is a channel message due Millis milliseconds after the start.
type Message struct {
	Millis float64
	Bytes  gomidi.Message
}

func (m Message) String() string {
	return fmt.Sprintf("%10.2fms % X %s", m.Millis, []byte(m.Bytes), m.Bytes)
}

// Millis converts a time in whole notes to milliseconds at bpm quarter notes
// per minute.
func Millis(t model.Ratio, bpm float64) float64 {
	return t.Float64() * 4 * 60000 / bpm
}

// Messages returns the channel events in order with their times in
// milliseconds. Meta events are dropped. A non-positive bpm uses the
// configured default.
func Messages(events []planner.TimedEvent, bpm float64) []Message {
	if bpm <= 0 {
		bpm = constants.GetDefaultBPM()
	}
	res := make([]Message, 0, len(events))
	for _, e := range events {
		msg, ok := convert(e)
		if !ok {
			continue
		}
		res = append(res, Message{Millis: Millis(e.Time, bpm), Bytes: msg})
	}
	return res
}

func convert(e planner.TimedEvent) (gomidi.Message, bool) {
	switch v := e.Event.(type) {
	case midi.NoteOn:
		return gomidi.NoteOn(v.Channel, v.Key, v.Velocity), true
	case midi.NoteOff:
		return gomidi.NoteOffVelocity(v.Channel, v.Key, v.Velocity), true
	case midi.ProgramChange:
		return gomidi.ProgramChange(v.Channel, v.Program), true
	case midi.Controller:
		return gomidi.ControlChange(v.Channel, v.Controller, v.Value), true
	case midi.PolyPressure:
		return gomidi.PolyAfterTouch(v.Channel, v.Key, v.Pressure), true
	case midi.ChannelPressure:
		return gomidi.AfterTouch(v.Channel, v.Pressure), true
	case midi.PitchBend:
		return gomidi.Pitchbend(v.Channel, int16(int(v.Value)-0x2000)), true
	}
	if !e.Event.Meta() {
		log.Warnf("playback: skipping unsupported event %s", e.Event)
	}
	return nil, false
}
