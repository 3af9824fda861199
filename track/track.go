// Package track lays planned events out as the two tracks of a format 1 file.
package track

import (
	"sort"

	"github.com/jsphweid/degreec/constants"
	"github.com/jsphweid/degreec/midi"
	"github.com/jsphweid/degreec/model"
	"github.com/jsphweid/degreec/planner"
	"github.com/pkg/errors"
)

// ErrTooLong is returned when an event lands beyond the last tick a track
// can address.
var ErrTooLong = errors.New("score is too long")

const (
	MetaTrack    = 0
	ChannelTrack = 1
)

// Pulses converts a time in whole notes to file ticks, truncating. Times
// past midi.MaxVLQ ticks return ErrTooLong.
func Pulses(t model.Ratio) (uint32, error) {
	p := t.Floor(constants.PulsesPerWhole)
	if p < 0 {
		return 0, nil
	}
	if p > midi.MaxVLQ {
		return 0, errors.Wrapf(ErrTooLong, "%s whole notes is %d ticks", t, p)
	}
	return uint32(p), nil
}

// Assemble builds the output file. Meta events, including any extra ones in
// meta, go to track 0 and channel events to track 1. Both tracks end at the
// duration of res.
func Assemble(res *planner.Result, meta []planner.TimedEvent) (*midi.File, error) {
	metaEvents := append([]planner.TimedEvent(nil), meta...)
	var channelEvents []planner.TimedEvent
	for _, e := range res.Events {
		if e.Event.Meta() {
			metaEvents = append(metaEvents, e)
		} else {
			channelEvents = append(channelEvents, e)
		}
	}
	sort.SliceStable(metaEvents, func(i, j int) bool {
		return metaEvents[i].Time.Less(metaEvents[j].Time)
	})

	metaTrack, err := deltas(metaEvents, res.Duration)
	if err != nil {
		return nil, err
	}
	channelTrack, err := deltas(channelEvents, res.Duration)
	if err != nil {
		return nil, err
	}
	return &midi.File{
		Format: 1,
		Timing: midi.MetricTiming(constants.TicksPerQuarter),
		Tracks: []midi.Track{metaTrack, channelTrack},
	}, nil
}

// deltas converts sorted absolute times to delta ticks and closes the track.
func deltas(events []planner.TimedEvent, end model.Ratio) (midi.Track, error) {
	t := make(midi.Track, 0, len(events)+1)
	var last uint32
	for _, e := range events {
		at, err := Pulses(e.Time)
		if err != nil {
			return nil, err
		}
		t = append(t, midi.TrackEvent{Delta: at - last, Event: e.Event})
		last = at
	}
	closing, err := Pulses(end)
	if err != nil {
		return nil, err
	}
	if closing < last {
		closing = last
	}
	return append(t, midi.TrackEvent{Delta: closing - last, Event: midi.EndOfTrack{}}), nil
}
