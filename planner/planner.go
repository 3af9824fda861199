// Package planner walks a parsed tree and produces absolute-time MIDI events.
package planner

import (
	"sort"

	"github.com/jsphweid/degreec/midi"
	"github.com/jsphweid/degreec/model"
	"github.com/pkg/errors"
)

var ErrOutOfChannels = errors.New("out of channels")

// TimedEvent is an event at an absolute time in whole notes.
type TimedEvent struct {
	Time  model.Ratio
	Event midi.Event
}

type Result struct {
	Events   []TimedEvent
	Duration model.Ratio
}

// Percussion channels are never handed out by the allocator.
var reserved = map[int]bool{9: true, 10: true}

// channels tracks which program each channel is bound to; -1 is free.
type channels [16]int

func newChannels() *channels {
	var c channels
	for i := range c {
		c[i] = -1
	}
	return &c
}

// allocate returns the channel playing program, binding the highest free
// channel if none is. fresh reports whether a new binding was made.
func (c *channels) allocate(program uint8) (ch uint8, fresh bool, err error) {
	free := -1
	for i := 15; i >= 0; i-- {
		if reserved[i] {
			continue
		}
		if c[i] == int(program) {
			return uint8(i), false, nil
		}
		if c[i] < 0 && free < 0 {
			free = i
		}
	}
	if free < 0 {
		return 0, false, errors.Wrapf(ErrOutOfChannels, "no channel left for program %d", program)
	}
	c[free] = int(program)
	return uint8(free), true, nil
}

type interpreter struct {
	tree     *model.Tree
	channels *channels
	// bound holds the context each section was first played with.
	bound  map[int]Params
	events []TimedEvent
}

// Interpret plays tree from time zero with DefaultParams.
func Interpret(tree *model.Tree) (*Result, error) {
	in := &interpreter{
		tree:     tree,
		channels: newChannels(),
		bound:    make(map[int]Params),
	}
	var end model.Ratio
	if tree.Main != nil {
		var err error
		end, err = in.walk(tree.Main, DefaultParams(), model.Ratio{})
		if err != nil {
			return nil, err
		}
	}

	// Chords and inserts emit out of time order.
	sort.SliceStable(in.events, func(i, j int) bool {
		return in.events[i].Time.Less(in.events[j].Time)
	})
	return &Result{Events: in.events, Duration: end}, nil
}

func (in *interpreter) emit(at model.Ratio, e midi.Event) {
	in.events = append(in.events, TimedEvent{Time: at, Event: e})
}

// label applies a single label to p. Dynamics set the velocity, programs
// switch channel and any other label is kept as a text event.
func (in *interpreter) label(p Params, label string, at model.Ratio) (Params, error) {
	if v, ok := Dynamics[label]; ok {
		p.Velocity = v
		return p, nil
	}
	if program, ok := programLabel(label); ok {
		ch, fresh, err := in.channels.allocate(program)
		if err != nil {
			return p, err
		}
		if fresh {
			in.emit(at, midi.ProgramChange{Channel: ch, Program: program})
		}
		p.Channel = ch
		return p, nil
	}
	in.emit(at, midi.Text{Type: midi.MetaText, Text: label})
	return p, nil
}

// enter combines the parent context with a node's options.
func (in *interpreter) enter(p Params, o *model.Options, at model.Ratio) (Params, error) {
	if o == nil {
		return p, nil
	}
	p = p.With(o)
	for _, l := range o.Labels {
		if _, ok := Dynamics[l]; ok {
			continue
		}
		var err error
		if p, err = in.label(p, l, at); err != nil {
			return p, err
		}
	}
	return p, nil
}

// event applies an Event node and returns the context for its later siblings.
func (in *interpreter) event(e model.Event, p Params, at model.Ratio) (Params, error) {
	p, err := in.enter(p, e.Opts, at)
	if err != nil {
		return p, err
	}
	return in.label(p, e.Label, at)
}

func (in *interpreter) walk(n model.Node, p Params, t model.Ratio) (model.Ratio, error) {
	switch v := n.(type) {
	case model.Note:
		p, err := in.enter(p, v.Opts, t)
		if err != nil {
			return t, err
		}
		key := Pitch(v.Degree, v.Accidental, p.Key)
		end, err := t.Add(p.Duration)
		if err != nil {
			return t, err
		}
		in.emit(t, midi.NoteOn{Channel: p.Channel, Key: key, Velocity: p.Velocity})
		in.emit(end, midi.NoteOff{Channel: p.Channel, Key: key})
		return end, nil

	case model.Rest:
		p, err := in.enter(p, v.Opts, t)
		if err != nil {
			return t, err
		}
		return t.Add(p.Duration)

	case model.Sequence:
		p, err := in.enter(p, v.Opts, t)
		if err != nil {
			return t, err
		}
		for _, child := range v.Children {
			if ev, ok := child.(model.Event); ok {
				if p, err = in.event(ev, p, t); err != nil {
					return t, err
				}
				continue
			}
			if t, err = in.walk(child, p, t); err != nil {
				return t, err
			}
		}
		return t, nil

	case model.Chord:
		p, err := in.enter(p, v.Opts, t)
		if err != nil {
			return t, err
		}
		end := t
		for _, child := range v.Children {
			if ev, ok := child.(model.Event); ok {
				if p, err = in.event(ev, p, t); err != nil {
					return t, err
				}
				continue
			}
			childEnd, err := in.walk(child, p, t)
			if err != nil {
				return t, err
			}
			end = model.MaxRatio(end, childEnd)
		}
		return end, nil

	case model.Insert:
		if v.Section < 0 || v.Section >= len(in.tree.Sections) {
			return t, errors.Errorf("insert refers to missing section %d", v.Section)
		}
		bp, ok := in.bound[v.Section]
		if !ok {
			bp = p
			in.bound[v.Section] = p
		}
		return in.walk(in.tree.Sections[v.Section].Node, bp, t)

	case model.Event:
		_, err := in.event(v, p, t)
		return t, err

	case model.Error:
		return t, nil
	}
	return t, errors.Errorf("unknown node type %T", n)
}
