package midi

import (
	"fmt"
)

// Event is a single track event without its delta time.
type Event interface {
	// Encode returns the event's bytes as written in a track chunk.
	Encode() ([]byte, error)
	// Meta reports whether this is a meta event (0xFF status).
	Meta() bool
	String() string
}

// Channel message type indices; the status byte is 0x80 + 0x10*type + channel.
const (
	typeNoteOff = iota
	typeNoteOn
	typePolyPressure
	typeController
	typeProgramChange
	typeChannelPressure
	typePitchBend
)

func channelStatus(kind int, channel uint8) byte {
	return byte(0x80 + 0x10*kind + int(channel&0x0f))
}

type NoteOff struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
}

func (e NoteOff) Encode() ([]byte, error) {
	return []byte{channelStatus(typeNoteOff, e.Channel), e.Key & 0x7f, e.Velocity & 0x7f}, nil
}

func (NoteOff) Meta() bool { return false }

func (e NoteOff) String() string {
	return fmt.Sprintf("note off: channel %d, key %d, velocity %d", e.Channel, e.Key, e.Velocity)
}

type NoteOn struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
}

func (e NoteOn) Encode() ([]byte, error) {
	return []byte{channelStatus(typeNoteOn, e.Channel), e.Key & 0x7f, e.Velocity & 0x7f}, nil
}

func (NoteOn) Meta() bool { return false }

func (e NoteOn) String() string {
	return fmt.Sprintf("note on: channel %d, key %d, velocity %d", e.Channel, e.Key, e.Velocity)
}

// PolyPressure is polyphonic key pressure (aftertouch).
type PolyPressure struct {
	Channel  uint8
	Key      uint8
	Pressure uint8
}

func (e PolyPressure) Encode() ([]byte, error) {
	return []byte{channelStatus(typePolyPressure, e.Channel), e.Key & 0x7f, e.Pressure & 0x7f}, nil
}

func (PolyPressure) Meta() bool { return false }

func (e PolyPressure) String() string {
	return fmt.Sprintf("poly pressure: channel %d, key %d, pressure %d", e.Channel, e.Key, e.Pressure)
}

type Controller struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

func (e Controller) Encode() ([]byte, error) {
	return []byte{channelStatus(typeController, e.Channel), e.Controller & 0x7f, e.Value & 0x7f}, nil
}

func (Controller) Meta() bool { return false }

func (e Controller) String() string {
	return fmt.Sprintf("controller: channel %d, controller %d, value %d", e.Channel, e.Controller, e.Value)
}

type ProgramChange struct {
	Channel uint8
	Program uint8
}

func (e ProgramChange) Encode() ([]byte, error) {
	return []byte{channelStatus(typeProgramChange, e.Channel), e.Program & 0x7f}, nil
}

func (ProgramChange) Meta() bool { return false }

func (e ProgramChange) String() string {
	return fmt.Sprintf("program change: channel %d, program %d", e.Channel, e.Program)
}

type ChannelPressure struct {
	Channel  uint8
	Pressure uint8
}

func (e ChannelPressure) Encode() ([]byte, error) {
	return []byte{channelStatus(typeChannelPressure, e.Channel), e.Pressure & 0x7f}, nil
}

func (ChannelPressure) Meta() bool { return false }

func (e ChannelPressure) String() string {
	return fmt.Sprintf("channel pressure: channel %d, pressure %d", e.Channel, e.Pressure)
}

// PitchBend holds an unsigned 14-bit bend value; 0x2000 is centered.
type PitchBend struct {
	Channel uint8
	Value   uint16
}

func (e PitchBend) Encode() ([]byte, error) {
	if e.Value > 0x3fff {
		return nil, fmt.Errorf("pitch bend value 0x%04x does not fit in 14 bits", e.Value)
	}
	return []byte{channelStatus(typePitchBend, e.Channel), byte(e.Value & 0x7f), byte(e.Value >> 7)}, nil
}

func (PitchBend) Meta() bool { return false }

func (e PitchBend) String() string {
	return fmt.Sprintf("pitch bend: channel %d, value %d", e.Channel, e.Value)
}

// Meta event types.
const (
	MetaSequenceNumber    = 0x00
	MetaText              = 0x01
	MetaCopyright         = 0x02
	MetaTrackName         = 0x03
	MetaInstrumentName    = 0x04
	MetaLyric             = 0x05
	MetaMarker            = 0x06
	MetaCuePoint          = 0x07
	MetaChannelPrefix     = 0x20
	MetaEndOfTrack        = 0x2f
	MetaTempo             = 0x51
	MetaSMPTEOffset       = 0x54
	MetaTimeSignature     = 0x58
	MetaKeySignature      = 0x59
	MetaSequencerSpecific = 0x7f
)

func encodeMeta(kind byte, data []byte) ([]byte, error) {
	out, err := AppendVLQ([]byte{0xff, kind}, uint32(len(data)))
	if err != nil {
		return nil, fmt.Errorf("meta event 0x%02x too long: %s", kind, err)
	}
	return append(out, data...), nil
}

type SequenceNumber uint16

func (n SequenceNumber) Encode() ([]byte, error) {
	return encodeMeta(MetaSequenceNumber, EncodeFixed(uint32(n), 2))
}

func (SequenceNumber) Meta() bool { return true }

func (n SequenceNumber) String() string {
	return fmt.Sprintf("sequence number: %d", uint16(n))
}

// Text is any of the text-like meta events, types 0x01 through 0x0f.
type Text struct {
	Type uint8
	Text string
}

func (t Text) Encode() ([]byte, error) {
	if t.Type < 0x01 || t.Type > 0x0f {
		return nil, fmt.Errorf("meta type 0x%02x is not a text event", t.Type)
	}
	return encodeMeta(t.Type, []byte(t.Text))
}

func (Text) Meta() bool { return true }

func (t Text) String() string {
	names := map[uint8]string{
		MetaText:           "text",
		MetaCopyright:      "copyright",
		MetaTrackName:      "track name",
		MetaInstrumentName: "instrument name",
		MetaLyric:          "lyric",
		MetaMarker:         "marker",
		MetaCuePoint:       "cue point",
	}
	name, ok := names[t.Type]
	if !ok {
		name = fmt.Sprintf("text 0x%02x", t.Type)
	}
	return fmt.Sprintf("%s: %q", name, t.Text)
}

type ChannelPrefix uint8

func (c ChannelPrefix) Encode() ([]byte, error) {
	return encodeMeta(MetaChannelPrefix, []byte{byte(c)})
}

func (ChannelPrefix) Meta() bool { return true }

func (c ChannelPrefix) String() string {
	return fmt.Sprintf("channel prefix: %d", uint8(c))
}

type EndOfTrack struct{}

func (EndOfTrack) Encode() ([]byte, error) {
	return []byte{0xff, MetaEndOfTrack, 0}, nil
}

func (EndOfTrack) Meta() bool { return true }

func (EndOfTrack) String() string { return "end of track" }

// Tempo is expressed in microseconds per quarter note.
type Tempo uint32

// TempoFromBPM converts beats (quarter notes) per minute to a Tempo.
func TempoFromBPM(bpm float64) Tempo {
	return Tempo(60000000 / bpm)
}

func (t Tempo) BPM() float64 {
	if t == 0 {
		return 0
	}
	return 60000000 / float64(t)
}

func (t Tempo) Encode() ([]byte, error) {
	if t > 0xffffff {
		return nil, fmt.Errorf("tempo %d does not fit in 3 bytes", uint32(t))
	}
	return encodeMeta(MetaTempo, EncodeFixed(uint32(t), 3))
}

func (Tempo) Meta() bool { return true }

func (t Tempo) String() string {
	return fmt.Sprintf("tempo: %d us per quarter (%.2f bpm)", uint32(t), t.BPM())
}

type SMPTEOffset struct {
	Hours      uint8
	Minutes    uint8
	Seconds    uint8
	Frames     uint8
	Hundredths uint8
}

func (s SMPTEOffset) Encode() ([]byte, error) {
	return encodeMeta(MetaSMPTEOffset, []byte{s.Hours, s.Minutes, s.Seconds, s.Frames, s.Hundredths})
}

func (SMPTEOffset) Meta() bool { return true }

func (s SMPTEOffset) String() string {
	return fmt.Sprintf("smpte offset: %02d:%02d:%02d, frame %d.%02d", s.Hours, s.Minutes, s.Seconds, s.Frames, s.Hundredths)
}

// TimeSignature stores the denominator as a power of two, as on the wire.
type TimeSignature struct {
	Numerator        uint8
	DenominatorPower uint8
	ClocksPerClick   uint8
	ThirtySeconds    uint8
}

func (s TimeSignature) Encode() ([]byte, error) {
	return encodeMeta(MetaTimeSignature, []byte{s.Numerator, s.DenominatorPower, s.ClocksPerClick, s.ThirtySeconds})
}

func (TimeSignature) Meta() bool { return true }

func (s TimeSignature) String() string {
	return fmt.Sprintf("time signature: %d/%d", s.Numerator, 1<<s.DenominatorPower)
}

// KeySignature counts sharps (positive) or flats (negative), -7 to 7.
type KeySignature struct {
	Sharps int8
	Minor  bool
}

func (s KeySignature) Encode() ([]byte, error) {
	if s.Sharps < -7 || s.Sharps > 7 {
		return nil, fmt.Errorf("bad sharp or flat count in key signature: %d", s.Sharps)
	}
	minor := byte(0)
	if s.Minor {
		minor = 1
	}
	return encodeMeta(MetaKeySignature, []byte{byte(s.Sharps), minor})
}

func (KeySignature) Meta() bool { return true }

func (s KeySignature) String() string {
	mode := "major"
	if s.Minor {
		mode = "minor"
	}
	return fmt.Sprintf("key signature: %d, %s", s.Sharps, mode)
}

type SequencerSpecific struct {
	Data []byte
}

func (s SequencerSpecific) Encode() ([]byte, error) {
	return encodeMeta(MetaSequencerSpecific, s.Data)
}

func (SequencerSpecific) Meta() bool { return true }

func (s SequencerSpecific) String() string {
	return fmt.Sprintf("sequencer specific: % x", s.Data)
}
