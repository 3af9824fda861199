package midi

import (
	"bytes"
	"fmt"
	"io"
)

// Timing is the division field of the MThd chunk.
type Timing interface {
	division() (uint16, error)
	String() string
}

// MetricTiming counts ticks per quarter note. The high bit must be clear.
type MetricTiming uint16

func (t MetricTiming) division() (uint16, error) {
	if t&0x8000 != 0 {
		return 0, fmt.Errorf("ticks per quarter note %d sets the timecode bit", uint16(t))
	}
	return uint16(t), nil
}

func (t MetricTiming) String() string {
	return fmt.Sprintf("%d ticks per quarter note", uint16(t))
}

// SMPTETiming divides each second into FPS frames of Subframes ticks.
type SMPTETiming struct {
	FPS       uint8
	Subframes uint8
}

func (t SMPTETiming) division() (uint16, error) {
	if t.FPS == 0 || t.FPS > 0x80 {
		return 0, fmt.Errorf("bad frames per second: %d", t.FPS)
	}
	// The frame rate is stored as a negative two's complement byte.
	return uint16(uint8(-int8(t.FPS)))<<8 | uint16(t.Subframes), nil
}

func (t SMPTETiming) String() string {
	return fmt.Sprintf("%d frames per second, %d ticks per frame", t.FPS, t.Subframes)
}

func timingFromDivision(d uint16) Timing {
	if d&0x8000 == 0 {
		return MetricTiming(d)
	}
	return SMPTETiming{
		FPS:       uint8(-int8(d >> 8)),
		Subframes: uint8(d & 0xff),
	}
}

// TrackEvent pairs an event with the ticks elapsed since the previous event in
// the same track.
type TrackEvent struct {
	Delta uint32
	Event Event
}

type Track []TrackEvent

// File is a parsed Standard MIDI File.
type File struct {
	Format uint16
	Timing Timing
	Tracks []Track
}

func (f *File) String() string {
	return fmt.Sprintf("format %d, %d track(s), %s", f.Format, len(f.Tracks), f.Timing)
}

var (
	headerTag = []byte("MThd")
	trackTag  = []byte("MTrk")
)

func (t Track) encode() ([]byte, error) {
	var body []byte
	var err error
	for i, te := range t {
		body, err = AppendVLQ(body, te.Delta)
		if err != nil {
			return nil, fmt.Errorf("event %d: bad delta time: %s", i, err)
		}
		if te.Event == nil {
			return nil, fmt.Errorf("event %d: missing event", i)
		}
		b, err := te.Event.Encode()
		if err != nil {
			return nil, fmt.Errorf("event %d: %s", i, err)
		}
		body = append(body, b...)
	}
	out := make([]byte, 0, len(body)+8)
	out = append(out, trackTag...)
	out = AppendFixed(out, uint32(len(body)), 4)
	return append(out, body...), nil
}

// Encode serializes f. Every channel event carries its own status byte.
func Encode(f *File) ([]byte, error) {
	if f.Format > 2 {
		return nil, fmt.Errorf("unsupported format %d", f.Format)
	}
	if len(f.Tracks) > 0xffff {
		return nil, fmt.Errorf("too many tracks (%d), limited to %d", len(f.Tracks), 0xffff)
	}
	if f.Timing == nil {
		return nil, fmt.Errorf("missing timing")
	}
	division, err := f.Timing.division()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(headerTag)
	buf.Write(EncodeFixed(6, 4))
	buf.Write(EncodeFixed(uint32(f.Format), 2))
	buf.Write(EncodeFixed(uint32(len(f.Tracks)), 2))
	buf.Write(EncodeFixed(uint32(division), 2))
	for i, t := range f.Tracks {
		chunk, err := t.encode()
		if err != nil {
			return nil, fmt.Errorf("track %d: %s", i, err)
		}
		buf.Write(chunk)
	}
	return buf.Bytes(), nil
}

// Write serializes f to w.
func Write(w io.Writer, f *File) error {
	b, err := Encode(f)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
