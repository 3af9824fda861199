package compile

import (
	"math/bits"

	"github.com/jsphweid/degreec/midi"
	"github.com/jsphweid/degreec/planner"
	log "github.com/sirupsen/logrus"
)

// MetaEvents turns the recognised metadata keys into header events at time
// zero:
//
//	'tempo' = 96          beats per minute
//	'title' = 'name'      sequence name
//	'time'  = [3, 4]      time signature
//	'copyright' = 'text'
//
// Other keys are left for collaborators. Values of the wrong shape are logged
// and ignored.
func MetaEvents(meta map[string]any, logger *log.Entry) []planner.TimedEvent {
	var events []planner.TimedEvent
	add := func(e midi.Event) {
		events = append(events, planner.TimedEvent{Event: e})
	}

	if v, ok := meta["title"]; ok {
		if s, ok := v.(string); ok {
			add(midi.Text{Type: midi.MetaTrackName, Text: s})
		} else {
			logger.Warnf("ignoring title metadata %v: not text", v)
		}
	}
	if v, ok := meta["copyright"]; ok {
		if s, ok := v.(string); ok {
			add(midi.Text{Type: midi.MetaCopyright, Text: s})
		} else {
			logger.Warnf("ignoring copyright metadata %v: not text", v)
		}
	}
	if v, ok := meta["tempo"]; ok {
		if bpm, ok := v.(int64); ok && bpm > 0 && bpm <= 1000 {
			add(midi.TempoFromBPM(float64(bpm)))
		} else {
			logger.Warnf("ignoring tempo metadata %v: want beats per minute", v)
		}
	}
	if v, ok := meta["time"]; ok {
		if sig, ok := timeSignature(v); ok {
			add(sig)
		} else {
			logger.Warnf("ignoring time metadata %v: want [beats, power of two]", v)
		}
	}
	return events
}

func timeSignature(v any) (midi.TimeSignature, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return midi.TimeSignature{}, false
	}
	num, ok1 := pair[0].(int64)
	den, ok2 := pair[1].(int64)
	if !ok1 || !ok2 || num < 1 || num > 255 || den < 1 || den > 128 || den&(den-1) != 0 {
		return midi.TimeSignature{}, false
	}
	return midi.TimeSignature{
		Numerator:        uint8(num),
		DenominatorPower: uint8(bits.TrailingZeros64(uint64(den))),
		ClocksPerClick:   24,
		ThirtySeconds:    8,
	}, true
}
