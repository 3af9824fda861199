package model

type Notes = []uint8

// ChordSummary is the set of keys sounding from AbsTickOffset until the next note
// on or off in the file.
type ChordSummary struct {
	AbsTickOffset uint32
	Notes         Notes
	Channels      []uint8
	// NOTE: true when the chord began with a note on rather than a release
	FormedByNoteOn bool
}
