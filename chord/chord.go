package chord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jsphweid/degreec/midi"
	"github.com/jsphweid/degreec/model"
	"github.com/jsphweid/degreec/util"
)

type sounding = map[uint8]map[uint8]int

func CreateChordKey(notes []uint8) string {
	sort.Slice(notes, func(i, j int) bool {
		return notes[i] < notes[j]
	})
	parts := make([]string, len(notes))
	for i, note := range notes {
		parts[i] = fmt.Sprintf("%v", note)
	}
	return strings.Join(parts, "-")
}

type noteEvent struct {
	tick    uint32
	on      bool
	channel uint8
	key     uint8
}

func collect(f *midi.File) []noteEvent {
	var events []noteEvent
	for _, t := range f.Tracks {
		var abs uint32
		for _, e := range t {
			abs += e.Delta
			switch v := e.Event.(type) {
			case midi.NoteOn:
				events = append(events, noteEvent{tick: abs, on: v.Velocity > 0, channel: v.Channel, key: v.Key})
			case midi.NoteOff:
				events = append(events, noteEvent{tick: abs, channel: v.Channel, key: v.Key})
			}
		}
	}

	// releases before attacks at the same tick
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})
	return events
}

func getChord(tick uint32, pressed sounding, formedByNoteOn bool) model.ChordSummary {
	c := model.ChordSummary{AbsTickOffset: tick, FormedByNoteOn: formedByNoteOn}
	seen := map[uint8]bool{}
	for _, ch := range util.GetKeys(pressed) {
		keys := pressed[ch]
		if len(keys) == 0 {
			continue
		}
		c.Channels = append(c.Channels, ch)
		for key := range keys {
			if !seen[key] {
				seen[key] = true
				c.Notes = append(c.Notes, key)
			}
		}
	}
	sort.Slice(c.Notes, func(i, j int) bool { return c.Notes[i] < c.Notes[j] })
	sort.Slice(c.Channels, func(i, j int) bool { return c.Channels[i] < c.Channels[j] })
	return c
}

// GetChords returns the set of sounding keys after every tick at which a note
// starts or stops, skipping silences.
func GetChords(f *midi.File) []model.ChordSummary {
	var chords []model.ChordSummary
	pressed := make(sounding)
	events := collect(f)
	for i := 0; i < len(events); {
		tick := events[i].tick
		formedByNoteOn := false
		for ; i < len(events) && events[i].tick == tick; i++ {
			e := events[i]
			if pressed[e.channel] == nil {
				pressed[e.channel] = map[uint8]int{}
			}
			if e.on {
				pressed[e.channel][e.key]++
				formedByNoteOn = true
				continue
			}
			if pressed[e.channel][e.key] > 1 {
				pressed[e.channel][e.key]--
			} else {
				delete(pressed[e.channel], e.key)
			}
		}
		c := getChord(tick, pressed, formedByNoteOn)
		if len(c.Notes) > 0 {
			chords = append(chords, c)
		}
	}
	return chords
}
