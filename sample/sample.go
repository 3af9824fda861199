package sample

import (
	"github.com/jsphweid/degreec/midi"
)

// Create returns a short preview of f starting at ticksOffset. Each track
// keeps at most maxNotes notes starting at or after the offset, with their
// releases, shifted so the offset lands at zero. Earlier setup events such as
// program changes and tempos are kept at time zero; earlier notes are
// dropped. A maxNotes of 0 keeps every note.
func Create(f *midi.File, ticksOffset uint32, maxNotes int) *midi.File {
	res := &midi.File{Format: f.Format, Timing: f.Timing}

	for _, track := range f.Tracks {
		var newTrack midi.Track
		var absTicks, last uint32
		var numNoteOn int
		open := map[[2]uint8]int{}
	TrackEventLoop:
		for _, evt := range track {
			absTicks += evt.Delta
			var at uint32
			if absTicks > ticksOffset {
				at = absTicks - ticksOffset
			}
			full := maxNotes > 0 && numNoteOn >= maxNotes
			switch v := evt.Event.(type) {
			case midi.NoteOn:
				if absTicks < ticksOffset || full {
					continue
				}
				numNoteOn++
				open[[2]uint8{v.Channel, v.Key}]++
			case midi.NoteOff:
				k := [2]uint8{v.Channel, v.Key}
				if open[k] == 0 {
					continue
				}
				open[k]--
			case midi.EndOfTrack:
				break TrackEventLoop
			default:
				if full && absTicks >= ticksOffset {
					continue
				}
			}
			newTrack = append(newTrack, midi.TrackEvent{Delta: at - last, Event: evt.Event})
			last = at
		}

		newTrack = append(newTrack, midi.TrackEvent{Event: midi.EndOfTrack{}})
		res.Tracks = append(res.Tracks, newTrack)
	}

	return res
}
