package playback

import (
	"testing"

	"github.com/jsphweid/degreec/midi"
	"github.com/jsphweid/degreec/model"
	"github.com/jsphweid/degreec/parser"
	"github.com/jsphweid/degreec/planner"
	"github.com/stretchr/testify/assert"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestMillis(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(500.0, Millis(model.R(1, 4), 120))
	assert.Equal(2000.0, Millis(model.R(1, 1), 120))
	assert.Equal(625.0, Millis(model.R(1, 4), 96))
	assert.Equal(0.0, Millis(model.Ratio{}, 60))
}

func TestMessagesForProgramMelody(t *testing.T) {
	tree, errs := parser.Parse("['program_5' _/8 0 'verse' _/4 2- ]")
	assert.Empty(t, errs)
	res, err := planner.Interpret(tree)
	assert.NoError(t, err)

	msgs := Messages(res.Events, 120)

	assert := assert.New(t)
	assert.Equal([]Message{
		{Millis: 0, Bytes: gomidi.Message{0xcf, 5}},
		{Millis: 0, Bytes: gomidi.Message{0x9f, 60, 64}},
		{Millis: 250, Bytes: gomidi.Message{0x8f, 60, 0}},
		{Millis: 250, Bytes: gomidi.Message{0x9f, 63, 64}},
		{Millis: 750, Bytes: gomidi.Message{0x8f, 63, 0}},
	}, msgs)

	var ch, key, vel uint8
	assert.True(msgs[1].Bytes.GetNoteOn(&ch, &key, &vel))
	assert.Equal(uint8(15), ch)
	assert.Equal(uint8(60), key)
}

func TestMessagesMatchEncodedEvents(t *testing.T) {
	events := []planner.TimedEvent{
		{Event: midi.Controller{Channel: 2, Controller: 7, Value: 100}},
		{Event: midi.PolyPressure{Channel: 3, Key: 61, Pressure: 20}},
		{Event: midi.ChannelPressure{Channel: 4, Pressure: 30}},
		{Event: midi.PitchBend{Channel: 5, Value: 0x2000}},
		{Event: midi.PitchBend{Channel: 5, Value: 0x3fff}},
		{Event: midi.Tempo(500000)},
	}

	msgs := Messages(events, 0)
	if !assert.Len(t, msgs, 5) {
		return
	}
	for i, m := range msgs {
		b, err := events[i].Event.Encode()
		assert.NoError(t, err)
		assert.Equal(t, b, []byte(m.Bytes), "event %s", events[i].Event)
	}
}
