package planner

import (
	"strconv"
	"strings"

	"github.com/jsphweid/degreec/model"
)

// Params is the performance context inherited down the tree.
type Params struct {
	Channel  uint8
	Duration model.Ratio
	Key      int
	Velocity uint8
}

func DefaultParams() Params {
	return Params{
		Channel:  0,
		Duration: model.R(1, 4),
		Key:      0,
		Velocity: Dynamics["mf"],
	}
}

var Dynamics = map[string]uint8{
	"pppp": 8,
	"ppp":  20,
	"pp":   31,
	"p":    42,
	"mp":   53,
	"mf":   64,
	"f":    80,
	"ff":   96,
	"fff":  112,
	"ffff": 127,
}

// With returns p overridden by the duration, key and dynamics in o. Program
// and other labels need the interpreter and are ignored here.
func (p Params) With(o *model.Options) Params {
	if o == nil {
		return p
	}
	if o.Duration != nil {
		p.Duration = *o.Duration
	}
	if o.Key != nil {
		p.Key = *o.Key
	}
	for _, label := range o.Labels {
		if v, ok := Dynamics[label]; ok {
			p.Velocity = v
		}
	}
	return p
}

// programLabel parses labels of the form program_<n>.
func programLabel(label string) (uint8, bool) {
	if !strings.HasPrefix(label, "program_") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(label, "program_"))
	if err != nil || n < 0 || n > 127 {
		return 0, false
	}
	return uint8(n), true
}

// Pitch maps a scale degree in a key to a MIDI key number: degree 0 in key 0
// is middle C (60).
func Pitch(degree, accidental, key int) uint8 {
	p := floorDiv(425+12*degree+key, 7) + accidental
	if p < 0 {
		return 0
	}
	if p > 127 {
		return 127
	}
	return uint8(p)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
