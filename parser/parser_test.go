package parser

import (
	"testing"

	"github.com/jsphweid/degreec/model"
	"github.com/stretchr/testify/assert"
)

func dur(num, den int64) *model.Options {
	r := model.R(num, den)
	return &model.Options{Duration: &r}
}

func parseClean(t *testing.T, src string) *model.Tree {
	t.Helper()
	tree, errs := Parse(src)
	for _, err := range errs {
		t.Errorf("unexpected syntax error: %s", err)
	}
	return tree
}

func TestParseMelody(t *testing.T) {
	tree := parseClean(t, "[ _/8 0 _/4 1 _/4 2 _/4 0 _/8 r ]")

	assert.Equal(t, model.Sequence{Children: []model.Node{
		model.Note{Degree: 0, Opts: dur(1, 8)},
		model.Note{Degree: 1, Opts: dur(1, 4)},
		model.Note{Degree: 2, Opts: dur(1, 4)},
		model.Note{Degree: 0, Opts: dur(1, 4)},
		model.Rest{Opts: dur(1, 8)},
	}}, tree.Main)
	assert.Empty(t, tree.Sections)
	assert.Nil(t, tree.Metadata)
}

func TestParseChordWithAccidentals(t *testing.T) {
	tree := parseClean(t, "_/2{ 0 2- 4 }")

	assert.Equal(t, model.Chord{
		Children: []model.Node{
			model.Note{Degree: 0},
			model.Note{Degree: 2, Accidental: -1},
			model.Note{Degree: 4},
		},
		Opts: dur(1, 2),
	}, tree.Main)
}

func TestParseAccidentals(t *testing.T) {
	tree := parseClean(t, "{ 1+ 1++ 1- 1-- -1 -1+ }")

	chord := tree.Main.(model.Chord)
	var got [][2]int
	for _, c := range chord.Children {
		n := c.(model.Note)
		got = append(got, [2]int{n.Degree, n.Accidental})
	}
	assert.Equal(t, [][2]int{{1, 1}, {1, 2}, {1, -1}, {1, -2}, {-1, 0}, {-1, 1}}, got)
}

func TestParseRepeatedMark(t *testing.T) {
	tree := parseClean(t, "[$C = _/4 0 $C]")

	assert := assert.New(t)
	assert.Equal(model.Sequence{Children: []model.Node{
		model.Insert{Section: 0},
		model.Insert{Section: 0},
	}}, tree.Main)
	assert.Equal([]model.Section{
		{Mark: "$C", Node: model.Note{Degree: 0, Opts: dur(1, 4)}},
	}, tree.Sections)
}

func TestParseNestedMarkScopes(t *testing.T) {
	tree := parseClean(t, "[ $A = 0 [ $B = { $A 2 } $B ] $A ]")

	assert := assert.New(t)
	assert.Len(tree.Sections, 2)
	assert.Equal("$A", tree.Sections[0].Mark)
	assert.Equal(model.Chord{Children: []model.Node{model.Insert{Section: 0}, model.Note{Degree: 2}}}, tree.Sections[1].Node)
}

func TestParseMarkOutOfScope(t *testing.T) {
	tree, errs := Parse("[ [ $A = 0 ] $A ] 1")

	assert := assert.New(t)
	if assert.Len(errs, 1) {
		assert.Contains(errs[0].Message, "$A")
		assert.Equal(13, errs[0].Offset)
		assert.Equal(1, errs[0].Line)
		assert.Equal(14, errs[0].Column)
	}
	assert.Equal(model.Sequence{Children: []model.Node{
		model.Error{Offset: 13, Message: errs[0].Message},
		model.Note{Degree: 1},
	}}, tree.Main)
}

func TestParseForwardReferenceIsError(t *testing.T) {
	_, errs := Parse("[ $B $B = 0 ]")
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "mark $B is not defined", errs[0].Message)
	}
}

func TestParseRecoveryKeepsSiblings(t *testing.T) {
	tree, errs := Parse("[ 0 [ 1 key 9 [ 2 ] 3 ] 4 ]\n{ 5 }")

	assert := assert.New(t)
	if assert.Len(errs, 1) {
		assert.Equal("key 9 is out of range -7..7", errs[0].Message)
	}
	assert.Equal(model.Sequence{Children: []model.Node{
		model.Sequence{Children: []model.Node{
			model.Note{Degree: 0},
			model.Error{Offset: 12, Message: "key 9 is out of range -7..7"},
			model.Note{Degree: 4},
		}},
		model.Chord{Children: []model.Node{model.Note{Degree: 5}}},
	}}, tree.Main)
}

func TestParseUnboundMarkKeepsNextSibling(t *testing.T) {
	tree, errs := Parse("$X [ 0 1 ] 2")

	assert := assert.New(t)
	if assert.Len(errs, 1) {
		assert.Equal("mark $X is not defined", errs[0].Message)
	}
	assert.Equal(model.Sequence{Children: []model.Node{
		model.Error{Offset: 0, Message: "mark $X is not defined"},
		model.Sequence{Children: []model.Node{model.Note{Degree: 0}, model.Note{Degree: 1}}},
		model.Note{Degree: 2},
	}}, tree.Main)
}

func TestParseRecoveryCases(t *testing.T) {
	cases := []struct {
		name     string
		src      string
		messages []string
		main     model.Node
	}{
		{
			name:     "double key",
			src:      "[ key 1 key 2 0 ] 1",
			messages: []string{"key is already set for this node"},
			main:     model.Sequence{Children: []model.Node{model.Error{Offset: 8, Message: "key is already set for this node"}, model.Note{Degree: 1}}},
		},
		{
			name:     "double duration",
			src:      "{ _/4 _/8 0 }",
			messages: []string{"duration is already set for this node"},
			main:     model.Error{Offset: 6, Message: "duration is already set for this node"},
		},
		{
			name:     "mismatched close",
			src:      "[ [ 0 } 1 ]",
			messages: []string{"expected ']', found '}' \"}\""},
			main: model.Sequence{Children: []model.Node{
				model.Error{Offset: 6, Message: "expected ']', found '}' \"}\""},
				model.Note{Degree: 1},
			}},
		},
		{
			name:     "unclosed group",
			src:      "[ 0 1",
			messages: []string{"expected ']' before end of input"},
			main:     model.Error{Offset: 5, Message: "expected ']' before end of input"},
		},
		{
			name:     "lexical error",
			src:      "0 { 1 # } 2",
			messages: []string{"unexpected character '#'"},
			main: model.Sequence{Children: []model.Node{
				model.Note{Degree: 0},
				model.Error{Offset: 6, Message: "unexpected character '#'"},
				model.Note{Degree: 2},
			}},
		},
		{
			name:     "stray close at top level",
			src:      "0 ] 1",
			messages: []string{"expected a collection, an operation, a rest, or a note, found ']' \"]\""},
			main: model.Sequence{Children: []model.Node{
				model.Note{Degree: 0},
				model.Error{Offset: 2, Message: "expected a collection, an operation, a rest, or a note, found ']' \"]\""},
				model.Note{Degree: 1},
			}},
		},
		{
			name:     "dangling options",
			src:      "[ 0 _/4 ]",
			messages: []string{"expected a collection, an operation, a rest, or a note, found ']' \"]\""},
			main:     model.Error{Offset: 8, Message: "expected a collection, an operation, a rest, or a note, found ']' \"]\""},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tree, errs := Parse(c.src)
			var messages []string
			for _, err := range errs {
				messages = append(messages, err.Message)
			}
			assert.Equal(t, c.messages, messages)
			assert.Equal(t, c.main, tree.Main)
		})
	}
}

func TestParseEventsAndLabels(t *testing.T) {
	tree := parseClean(t, "[ 'program_64' 'f' _/4 'pp' 0 key -2 1 ]")

	key := -2
	quarter := model.R(1, 4)
	assert.Equal(t, model.Sequence{Children: []model.Node{
		model.Event{Label: "program_64"},
		model.Event{Label: "f"},
		model.Note{Degree: 0, Opts: &model.Options{Duration: &quarter, Labels: []string{"pp"}}},
		model.Note{Degree: 1, Opts: &model.Options{Key: &key}},
	}}, tree.Main)
}

func TestParseTopLevel(t *testing.T) {
	assert := assert.New(t)

	tree := parseClean(t, "0 1")
	assert.Equal(model.Sequence{Children: []model.Node{model.Note{Degree: 0}, model.Note{Degree: 1}}}, tree.Main)

	tree = parseClean(t, "   % nothing here\n")
	assert.Equal(model.Sequence{}, tree.Main)
}

func TestParseMetadata(t *testing.T) {
	tree := parseClean(t, "[ 0 ], { 'tempo' = 96, 'title' = 'It''s', mode = minor, 'sig' = [3, 4], 'nested' = { 'a' = -1 }, }")

	assert.Equal(t, map[string]any{
		"tempo":  int64(96),
		"title":  "It's",
		"mode":   "minor",
		"sig":    []any{int64(3), int64(4)},
		"nested": map[string]any{"a": int64(-1)},
	}, tree.Metadata)
}

func TestParseMetadataErrors(t *testing.T) {
	tree, errs := Parse("0, { 'tempo' 96 }")

	assert := assert.New(t)
	assert.Equal(model.Note{Degree: 0}, tree.Main)
	if assert.Len(errs, 1) {
		assert.Equal(13, errs[0].Offset)
	}

	_, errs = Parse("0, { 'tempo' = 96 } 1")
	if assert.Len(errs, 1) {
		assert.Contains(errs[0].Message, "expected end of input")
	}
}
