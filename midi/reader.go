package midi

import (
	"fmt"
	"io"
)

// ReadError reports malformed input along with the offending byte offset.
type ReadError struct {
	Offset int
	Msg    string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// decoder walks a byte slice; offsets in errors are absolute positions in buf.
type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) failAt(offset int, format string, args ...any) error {
	return &ReadError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) done() bool {
	return d.pos >= len(d.buf)
}

func (d *decoder) byte() (byte, error) {
	if d.done() {
		return 0, d.failAt(d.pos, "unexpected end of data")
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) expect(want byte) error {
	at := d.pos
	got, err := d.byte()
	if err != nil {
		return err
	}
	if got != want {
		return d.failAt(at, "expected byte 0x%02x, got 0x%02x", want, got)
	}
	return nil
}

func (d *decoder) expectAll(want []byte) error {
	for _, b := range want {
		if err := d.expect(b); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.buf)-d.pos < n {
		return nil, d.failAt(d.pos, "need %d bytes, %d left", n, len(d.buf)-d.pos)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) fixed(size int) (uint32, error) {
	b, err := d.take(size)
	if err != nil {
		return 0, err
	}
	var n uint32
	for _, v := range b {
		n = n<<8 | uint32(v)
	}
	return n, nil
}

func (d *decoder) vlq() (uint32, error) {
	start := d.pos
	var n uint32
	for i := 0; i < 4; i++ {
		b, err := d.byte()
		if err != nil {
			return 0, err
		}
		n = n<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return n, nil
		}
	}
	return 0, d.failAt(start, "variable-length quantity longer than 4 bytes")
}

// Decode parses a complete Standard MIDI File.
func Decode(b []byte) (*File, error) {
	d := &decoder{buf: b}
	if err := d.expectAll(headerTag); err != nil {
		return nil, err
	}
	if err := d.expectAll([]byte{0, 0, 0, 6}); err != nil {
		return nil, err
	}
	format, err := d.fixed(2)
	if err != nil {
		return nil, err
	}
	if format > 2 {
		return nil, d.failAt(d.pos-2, "unsupported format %d", format)
	}
	count, err := d.fixed(2)
	if err != nil {
		return nil, err
	}
	division, err := d.fixed(2)
	if err != nil {
		return nil, err
	}
	f := &File{
		Format: uint16(format),
		Timing: timingFromDivision(uint16(division)),
		Tracks: make([]Track, 0, count),
	}
	for i := 0; i < int(count); i++ {
		t, err := d.track()
		if err != nil {
			return nil, err
		}
		f.Tracks = append(f.Tracks, t)
	}
	return f, nil
}

// Read parses a Standard MIDI File from r.
func Read(r io.Reader) (*File, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

func (d *decoder) track() (Track, error) {
	if err := d.expectAll(trackTag); err != nil {
		return nil, err
	}
	length, err := d.fixed(4)
	if err != nil {
		return nil, err
	}
	if int(length) > len(d.buf)-d.pos {
		return nil, d.failAt(d.pos-4, "track length %d runs past end of data", length)
	}
	// Events may not cross the chunk boundary, so decode within a window that
	// keeps absolute offsets.
	body := &decoder{buf: d.buf[:d.pos+int(length)], pos: d.pos}
	d.pos += int(length)

	t := Track{}
	var running byte
	var carry uint32
	for !body.done() {
		delta, err := body.vlq()
		if err != nil {
			return nil, err
		}
		e, err := body.event(&running)
		if err != nil {
			return nil, err
		}
		if e == nil {
			// Skipped events still take up time.
			carry += delta
			continue
		}
		t = append(t, TrackEvent{Delta: carry + delta, Event: e})
		carry = 0
	}
	return t, nil
}

// event decodes one event. It returns a nil Event for skipped sysex and
// unknown meta events.
func (d *decoder) event(running *byte) (Event, error) {
	at := d.pos
	status, err := d.byte()
	if err != nil {
		return nil, err
	}
	switch {
	case status == 0xff:
		*running = 0
		return d.meta()
	case status == 0xf0 || status == 0xf7:
		*running = 0
		n, err := d.vlq()
		if err != nil {
			return nil, err
		}
		_, err = d.take(int(n))
		return nil, err
	case status >= 0xf0:
		return nil, d.failAt(at, "unexpected system message 0x%02x in track", status)
	case status < 0x80:
		if *running == 0 {
			return nil, d.failAt(at, "data byte 0x%02x without running status", status)
		}
		// The byte is the first data byte of a running-status message.
		d.pos = at
		status = *running
	default:
		*running = status
	}
	return d.channel(status)
}

func (d *decoder) data() (uint8, error) {
	at := d.pos
	b, err := d.byte()
	if err != nil {
		return 0, err
	}
	if b&0x80 != 0 {
		return 0, d.failAt(at, "expected data byte, got 0x%02x", b)
	}
	return b, nil
}

func (d *decoder) data2() (uint8, uint8, error) {
	a, err := d.data()
	if err != nil {
		return 0, 0, err
	}
	b, err := d.data()
	return a, b, err
}

func (d *decoder) channel(status byte) (Event, error) {
	ch := status & 0x0f
	switch int(status>>4) - 8 {
	case typeNoteOff:
		k, v, err := d.data2()
		return NoteOff{Channel: ch, Key: k, Velocity: v}, err
	case typeNoteOn:
		k, v, err := d.data2()
		return NoteOn{Channel: ch, Key: k, Velocity: v}, err
	case typePolyPressure:
		k, p, err := d.data2()
		return PolyPressure{Channel: ch, Key: k, Pressure: p}, err
	case typeController:
		c, v, err := d.data2()
		return Controller{Channel: ch, Controller: c, Value: v}, err
	case typeProgramChange:
		p, err := d.data()
		return ProgramChange{Channel: ch, Program: p}, err
	case typeChannelPressure:
		p, err := d.data()
		return ChannelPressure{Channel: ch, Pressure: p}, err
	default:
		lsb, msb, err := d.data2()
		return PitchBend{Channel: ch, Value: uint16(msb)<<7 | uint16(lsb)}, err
	}
}

func (d *decoder) meta() (Event, error) {
	kind, err := d.byte()
	if err != nil {
		return nil, err
	}
	lengthAt := d.pos
	n, err := d.vlq()
	if err != nil {
		return nil, err
	}
	data, err := d.take(int(n))
	if err != nil {
		return nil, err
	}
	size := func(want int) error {
		if len(data) != want {
			return d.failAt(lengthAt, "meta event 0x%02x has length %d, expected %d", kind, len(data), want)
		}
		return nil
	}
	switch {
	case kind == MetaSequenceNumber:
		if err := size(2); err != nil {
			return nil, err
		}
		return SequenceNumber(uint16(data[0])<<8 | uint16(data[1])), nil
	case kind >= 0x01 && kind <= 0x0f:
		return Text{Type: kind, Text: string(data)}, nil
	case kind == MetaChannelPrefix:
		if err := size(1); err != nil {
			return nil, err
		}
		return ChannelPrefix(data[0]), nil
	case kind == MetaEndOfTrack:
		if err := size(0); err != nil {
			return nil, err
		}
		return EndOfTrack{}, nil
	case kind == MetaTempo:
		if err := size(3); err != nil {
			return nil, err
		}
		return Tempo(uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])), nil
	case kind == MetaSMPTEOffset:
		if err := size(5); err != nil {
			return nil, err
		}
		return SMPTEOffset{Hours: data[0], Minutes: data[1], Seconds: data[2], Frames: data[3], Hundredths: data[4]}, nil
	case kind == MetaTimeSignature:
		if err := size(4); err != nil {
			return nil, err
		}
		return TimeSignature{Numerator: data[0], DenominatorPower: data[1], ClocksPerClick: data[2], ThirtySeconds: data[3]}, nil
	case kind == MetaKeySignature:
		if err := size(2); err != nil {
			return nil, err
		}
		sharps := int8(data[0])
		if sharps < -7 || sharps > 7 || data[1] > 1 {
			return nil, d.failAt(lengthAt+1, "bad key signature %d/%d", sharps, data[1])
		}
		return KeySignature{Sharps: sharps, Minor: data[1] == 1}, nil
	case kind == MetaSequencerSpecific:
		if len(data) == 0 {
			return SequencerSpecific{}, nil
		}
		return SequencerSpecific{Data: append([]byte(nil), data...)}, nil
	}
	return nil, nil
}
