// Package parser builds a model.Tree from degree notation source.
//
// The grammar, one token of lookahead:
//
//	document := node* (',' metadata)?
//	node     := mark ('=' node)? | options? primary
//	primary  := '[' node* ']' | '{' node* '}' | note | rest | text
//	options  := ('key' int | duration | text)*
//
// A text is only taken as an option label once another option has been seen;
// otherwise it is an Event node of its own.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jsphweid/degreec/lexer"
	"github.com/jsphweid/degreec/model"
)

// SyntaxError is a recovered parse failure.
type SyntaxError struct {
	Offset  int
	Line    int
	Column  int
	Message string
	Token   lexer.Token
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

type parser struct {
	src      string
	lex      *lexer.Lexer
	tok      lexer.Token
	sections []model.Section
	// scopes[i] maps mark names to section indices for the i-th open group.
	scopes []map[string]int
	errs   []*SyntaxError
}

// Parse parses src. It always returns a tree; passages that failed to parse
// are replaced by model.Error nodes and reported in the returned errors.
func Parse(src string) (*model.Tree, []*SyntaxError) {
	p := &parser{src: src, lex: lexer.New(src)}
	p.advance()
	tree := p.document()
	return tree, p.errs
}

func (p *parser) advance() {
	p.tok = p.lex.Next()
}

func (p *parser) errorf(tok lexer.Token, format string, args ...any) *SyntaxError {
	line, col := lexer.Position(p.src, tok.Offset)
	return &SyntaxError{
		Offset:  tok.Offset,
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
		Token:   tok,
	}
}

func (p *parser) expectedPrimary() *SyntaxError {
	if p.tok.Kind == lexer.Error {
		return p.errorf(p.tok, "%s", p.tok.Value)
	}
	return p.errorf(p.tok, "expected a collection, an operation, a rest, or a note, found %s", p.tok)
}

// synchronize skips tokens until the bracket depth, starting at depth, returns to
// zero. Starting at 1 just inside a group consumes through its matching close;
// starting at 0 skips one balanced item.
func (p *parser) synchronize(depth int) {
	for p.tok.Kind != lexer.EOF {
		if p.tok.Open() {
			depth++
		} else if p.tok.Close() {
			depth--
		}
		p.advance()
		if depth <= 0 {
			return
		}
	}
}

// fail records err and returns the node that stands in for the failed
// passage.
func (p *parser) fail(err *SyntaxError) model.Node {
	p.errs = append(p.errs, err)
	return model.Error{Offset: err.Offset, Message: err.Message}
}

func (p *parser) document() *model.Tree {
	tree := &model.Tree{}
	p.scopes = []map[string]int{{}}

	var nodes []model.Node
	for p.tok.Kind != lexer.EOF && p.tok.Kind != lexer.Comma {
		n, err := p.node()
		if err != nil {
			n = p.fail(err)
			// an unbound mark has already been consumed
			if err.Offset == p.tok.Offset {
				p.synchronize(0)
			}
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 1 {
		tree.Main = nodes[0]
	} else {
		tree.Main = model.Sequence{Children: nodes}
	}

	if p.tok.Kind == lexer.Comma {
		p.advance()
		meta, err := p.metadata()
		if err != nil {
			p.fail(err)
			return p.finish(tree)
		}
		tree.Metadata = meta
	}
	if p.tok.Kind != lexer.EOF {
		p.fail(p.errorf(p.tok, "expected end of input, found %s", p.tok))
	}
	return p.finish(tree)
}

func (p *parser) finish(tree *model.Tree) *model.Tree {
	tree.Sections = p.sections
	return tree
}

func (p *parser) node() (model.Node, *SyntaxError) {
	if p.tok.Kind == lexer.Mark {
		return p.insert()
	}
	opts, err := p.options()
	if err != nil {
		return nil, err
	}
	return p.primary(opts)
}

func (p *parser) lookup(name string) (int, bool) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if idx, ok := p.scopes[i][name]; ok {
			return idx, true
		}
	}
	return 0, false
}

func (p *parser) insert() (model.Node, *SyntaxError) {
	mark := p.tok
	p.advance()
	if p.tok.Kind != lexer.Equals {
		idx, ok := p.lookup(mark.Text)
		if !ok {
			return nil, p.errorf(mark, "mark %s is not defined", mark.Text)
		}
		return model.Insert{Section: idx}, nil
	}

	p.advance()
	n, err := p.node()
	if err != nil {
		return nil, err
	}
	idx := len(p.sections)
	p.sections = append(p.sections, model.Section{Mark: mark.Text, Node: n})
	p.scopes[len(p.scopes)-1][mark.Text] = idx
	return model.Insert{Section: idx}, nil
}

func (p *parser) options() (*model.Options, *SyntaxError) {
	var opts model.Options
	seen := false
	for {
		switch p.tok.Kind {
		case lexer.Key:
			if opts.Key != nil {
				return nil, p.errorf(p.tok, "key is already set for this node")
			}
			p.advance()
			key, err := p.keyValue()
			if err != nil {
				return nil, err
			}
			opts.Key = &key
		case lexer.Duration:
			if opts.Duration != nil {
				return nil, p.errorf(p.tok, "duration is already set for this node")
			}
			d, err := p.duration()
			if err != nil {
				return nil, err
			}
			opts.Duration = &d
		case lexer.Text:
			if !seen {
				return nil, nil
			}
			opts.Labels = append(opts.Labels, p.tok.Value)
			p.advance()
		default:
			if !seen {
				return nil, nil
			}
			return &opts, nil
		}
		seen = true
	}
}

func (p *parser) keyValue() (int, *SyntaxError) {
	if p.tok.Kind != lexer.Int {
		return 0, p.errorf(p.tok, "expected an integer after 'key', found %s", p.tok)
	}
	key, err := strconv.Atoi(p.tok.Text)
	if err != nil || key < -7 || key > 7 {
		return 0, p.errorf(p.tok, "key %s is out of range -7..7", p.tok.Text)
	}
	p.advance()
	return key, nil
}

// duration parses `_n/d`; a missing numerator or denominator is 1.
func (p *parser) duration() (model.Ratio, *SyntaxError) {
	tok := p.tok
	num, den := int64(1), int64(1)
	body := strings.TrimPrefix(tok.Text, "_")
	numText, denText, hasDen := strings.Cut(body, "/")
	var err error
	if numText != "" {
		if num, err = strconv.ParseInt(numText, 10, 32); err != nil {
			return model.Ratio{}, p.errorf(tok, "duration %s is out of range", tok.Text)
		}
	}
	if hasDen {
		if den, err = strconv.ParseInt(denText, 10, 32); err != nil {
			return model.Ratio{}, p.errorf(tok, "duration %s is out of range", tok.Text)
		}
	}
	if num == 0 || den == 0 {
		return model.Ratio{}, p.errorf(tok, "duration %s must be positive", tok.Text)
	}
	p.advance()
	return model.R(num, den), nil
}

func (p *parser) primary(opts *model.Options) (model.Node, *SyntaxError) {
	tok := p.tok
	switch tok.Kind {
	case lexer.LBracket:
		children, err := p.group(lexer.RBracket)
		if err != nil {
			return p.fail(err), nil
		}
		return model.Sequence{Children: children, Opts: opts}, nil
	case lexer.LBrace:
		children, err := p.group(lexer.RBrace)
		if err != nil {
			return p.fail(err), nil
		}
		return model.Chord{Children: children, Opts: opts}, nil
	case lexer.Int, lexer.Note:
		body := strings.TrimRight(tok.Text, "+-")
		degree, err := strconv.Atoi(body)
		if err != nil || degree < -100 || degree > 100 {
			return nil, p.errorf(tok, "degree %s is out of range", body)
		}
		accidental := 0
		if suffix := tok.Text[len(body):]; suffix != "" {
			accidental = len(suffix)
			if suffix[0] == '-' {
				accidental = -accidental
			}
		}
		p.advance()
		return model.Note{Degree: degree, Accidental: accidental, Opts: opts}, nil
	case lexer.Rest:
		p.advance()
		return model.Rest{Opts: opts}, nil
	case lexer.Text:
		p.advance()
		return model.Event{Label: tok.Value, Opts: opts}, nil
	}
	return nil, p.expectedPrimary()
}

// group parses the children of a bracketed group. On failure the caller turns
// the whole group into an Error node; group has already skipped to the
// matching close bracket.
func (p *parser) group(close lexer.Kind) ([]model.Node, *SyntaxError) {
	p.advance()
	depth := len(p.scopes)
	p.scopes = append(p.scopes, map[string]int{})
	defer func() { p.scopes = p.scopes[:depth] }()

	var children []model.Node
	for {
		switch {
		case p.tok.Kind == close:
			p.advance()
			return children, nil
		case p.tok.Kind == lexer.EOF:
			return nil, p.errorf(p.tok, "expected %s before end of input", close)
		case p.tok.Close():
			err := p.errorf(p.tok, "expected %s, found %s", close, p.tok)
			p.synchronize(1)
			return nil, err
		}
		n, err := p.node()
		if err != nil {
			p.synchronize(1)
			return nil, err
		}
		children = append(children, n)
	}
}

func (p *parser) metadata() (map[string]any, *SyntaxError) {
	if p.tok.Kind != lexer.LBrace {
		return nil, p.errorf(p.tok, "expected '{' to start metadata, found %s", p.tok)
	}
	p.advance()
	meta := map[string]any{}
	for p.tok.Kind != lexer.RBrace {
		var key string
		switch p.tok.Kind {
		case lexer.Text:
			key = p.tok.Value
		case lexer.Mark:
			key = p.tok.Text
		default:
			return nil, p.errorf(p.tok, "expected a metadata key, found %s", p.tok)
		}
		p.advance()
		if p.tok.Kind != lexer.Equals {
			return nil, p.errorf(p.tok, "expected '=' after metadata key %q, found %s", key, p.tok)
		}
		p.advance()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		meta[key] = v
		if p.tok.Kind == lexer.Comma {
			p.advance()
		} else if p.tok.Kind != lexer.RBrace {
			return nil, p.errorf(p.tok, "expected ',' or '}' in metadata, found %s", p.tok)
		}
	}
	p.advance()
	return meta, nil
}

func (p *parser) value() (any, *SyntaxError) {
	tok := p.tok
	switch tok.Kind {
	case lexer.Int:
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "integer %s is out of range", tok.Text)
		}
		p.advance()
		return n, nil
	case lexer.Text:
		p.advance()
		return tok.Value, nil
	case lexer.Mark:
		p.advance()
		return tok.Text, nil
	case lexer.LBrace:
		return p.metadata()
	case lexer.LBracket:
		p.advance()
		values := []any{}
		for p.tok.Kind != lexer.RBracket {
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			if p.tok.Kind == lexer.Comma {
				p.advance()
			} else if p.tok.Kind != lexer.RBracket {
				return nil, p.errorf(p.tok, "expected ',' or ']' in metadata, found %s", p.tok)
			}
		}
		p.advance()
		return values, nil
	}
	return nil, p.errorf(tok, "expected a metadata value, found %s", tok)
}
