package sample

import (
	"testing"

	"github.com/jsphweid/degreec/compile"
	"github.com/jsphweid/degreec/midi"
	"github.com/stretchr/testify/assert"
)

func TestCreateFromOffset(t *testing.T) {
	res, err := compile.Compile("['program_7' _/8 0 _/4 1 _/4 2 _/4 0 _/8 r ]")
	if !assert.NoError(t, err) {
		return
	}

	s := Create(res.File, 96, 2)

	assert := assert.New(t)
	assert.Equal(res.File.Timing, s.Timing)
	assert.Equal(midi.Track{{Event: midi.EndOfTrack{}}}, s.Tracks[0])
	assert.Equal(midi.Track{
		{Delta: 0, Event: midi.ProgramChange{Channel: 15, Program: 7}},
		{Delta: 48, Event: midi.NoteOn{Channel: 15, Key: 64, Velocity: 64}},
		{Delta: 96, Event: midi.NoteOff{Channel: 15, Key: 64}},
		{Delta: 0, Event: midi.NoteOn{Channel: 15, Key: 60, Velocity: 64}},
		{Delta: 96, Event: midi.NoteOff{Channel: 15, Key: 60}},
		{Delta: 0, Event: midi.EndOfTrack{}},
	}, s.Tracks[1])

	_, err = midi.Encode(s)
	assert.NoError(err)
}

func TestCreateWithoutLimitKeepsEverything(t *testing.T) {
	res, err := compile.Compile("[ 0 1 2 ]")
	if !assert.NoError(t, err) {
		return
	}

	s := Create(res.File, 0, 0)
	assert.Equal(t, res.File.Tracks[1][:6], s.Tracks[1][:6])
	assert.Len(t, s.Tracks[1], 7)
}
