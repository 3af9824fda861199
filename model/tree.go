package model

// Node is one element of a parsed score. The concrete types are Note, Rest,
// Sequence, Chord, Insert, Event and Error.
type Node interface {
	node()
}

// Options are the per-node overrides written before a primary. Unset fields
// inherit from the enclosing node when the tree is interpreted.
type Options struct {
	Duration *Ratio
	Key      *int
	Labels   []string
}

func (o *Options) Empty() bool {
	return o == nil || (o.Duration == nil && o.Key == nil && len(o.Labels) == 0)
}

// Note is a scale degree relative to the tonal center, shifted by Accidental
// semitones (-2 to 2).
type Note struct {
	Degree     int
	Accidental int
	Opts       *Options
}

type Rest struct {
	Opts *Options
}

// Sequence plays its children back to back.
type Sequence struct {
	Children []Node
	Opts     *Options
}

// Chord starts all of its children together and lasts as long as the longest.
type Chord struct {
	Children []Node
	Opts     *Options
}

// Insert plays Tree.Sections[Section].
type Insert struct {
	Section int
}

// Event is a quoted label such as a dynamic ('f') or a program
// ('program_64').
type Event struct {
	Label string
	Opts  *Options
}

// Error stands in for a passage that failed to parse.
type Error struct {
	Offset  int
	Message string
}

func (Note) node()     {}
func (Rest) node()     {}
func (Sequence) node() {}
func (Chord) node()    {}
func (Insert) node()   {}
func (Event) node()    {}
func (Error) node()    {}

// OptionsOf returns the options attached to n, or nil.
func OptionsOf(n Node) *Options {
	switch v := n.(type) {
	case Note:
		return v.Opts
	case Rest:
		return v.Opts
	case Sequence:
		return v.Opts
	case Chord:
		return v.Opts
	case Event:
		return v.Opts
	}
	return nil
}

// Section is a marked passage declared with `$name = node`.
type Section struct {
	Mark string
	Node Node
}

// Tree is the parse result: the main passage, every declared section indexed
// by Insert.Section, and the trailing metadata block.
type Tree struct {
	Main     Node
	Sections []Section
	Metadata map[string]any
}
