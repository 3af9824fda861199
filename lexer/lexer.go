// Package lexer splits degree notation source into positioned tokens.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Kind int

const (
	EOF Kind = iota
	Error
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Equals
	Duration
	Int
	Note
	Text
	Key
	Rest
	Mark
)

var kindNames = map[Kind]string{
	EOF:      "end of input",
	Error:    "invalid token",
	LBracket: "'['",
	RBracket: "']'",
	LBrace:   "'{'",
	RBrace:   "'}'",
	Comma:    "','",
	Equals:   "'='",
	Duration: "duration",
	Int:      "integer",
	Note:     "note",
	Text:     "text",
	Key:      "'key'",
	Rest:     "rest",
	Mark:     "mark",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a lexeme and its byte offset in the source. Value holds the
// decoded contents of Text tokens and the message of Error tokens.
type Token struct {
	Kind   Kind
	Offset int
	Text   string
	Value  string
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return t.Kind.String()
	case Error:
		return fmt.Sprintf("%q (%s)", t.Text, t.Value)
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

// Open reports whether the token opens a group.
func (t Token) Open() bool { return t.Kind == LBracket || t.Kind == LBrace }

// Close reports whether the token closes a group.
func (t Token) Close() bool { return t.Kind == RBracket || t.Kind == RBrace }

var punctuation = map[byte]Kind{
	'[': LBracket, ']': RBracket, '{': LBrace, '}': RBrace, ',': Comma, '=': Equals,
}

type Lexer struct {
	src string
	pos int
}

func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Tokenize returns every token in src, ending with EOF.
func Tokenize(src string) []Token {
	l := New(src)
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == EOF {
			return toks
		}
	}
}

func (l *Lexer) peek(ahead int) byte {
	if l.pos+ahead >= len(l.src) {
		return 0
	}
	return l.src[l.pos+ahead]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		switch {
		case unicode.IsSpace(r):
			l.pos += size
		case r == '%':
			if i := strings.IndexByte(l.src[l.pos:], '\n'); i >= 0 {
				l.pos += i + 1
			} else {
				l.pos = len(l.src)
			}
		default:
			return
		}
	}
}

func (l *Lexer) emit(kind Kind, start int) Token {
	return Token{Kind: kind, Offset: start, Text: l.src[start:l.pos]}
}

func (l *Lexer) fail(start int, msg string) Token {
	t := l.emit(Error, start)
	t.Value = msg
	return t
}

func (l *Lexer) digits() {
	for isDigit(l.peek(0)) {
		l.pos++
	}
}

// Next returns the next token. After the end of input it keeps returning EOF.
func (l *Lexer) Next() Token {
	l.skipSpaceAndComments()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Offset: start}
	}

	c := l.src[l.pos]
	if kind, ok := punctuation[c]; ok {
		l.pos++
		return l.emit(kind, start)
	}

	switch {
	case c == '_':
		return l.duration(start)
	case c == '\'':
		return l.text(start)
	case isDigit(c) || (c == '-' && isDigit(l.peek(1))):
		return l.number(start)
	}

	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	if r == '$' || unicode.IsLetter(r) {
		return l.word(start)
	}
	l.pos += size
	if r == utf8.RuneError && size == 1 {
		return l.fail(start, "invalid UTF-8")
	}
	return l.fail(start, fmt.Sprintf("unexpected character %q", r))
}

// duration reads `_`, an optional numerator and an optional `/denominator`.
func (l *Lexer) duration(start int) Token {
	l.pos++
	l.digits()
	if l.peek(0) == '/' {
		l.pos++
		if !isDigit(l.peek(0)) {
			return l.fail(start, "expected a denominator after '/'")
		}
		l.digits()
	}
	return l.emit(Duration, start)
}

// number reads an integer. A trailing run of one or two identical '+' or '-'
// makes it a Note token carrying an accidental.
func (l *Lexer) number(start int) Token {
	if l.peek(0) == '-' {
		l.pos++
	}
	l.digits()
	if sign := l.peek(0); sign == '+' || sign == '-' {
		l.pos++
		if l.peek(0) == sign {
			l.pos++
		}
		return l.emit(Note, start)
	}
	return l.emit(Int, start)
}

// text reads a quoted string; a doubled quote stands for one quote.
func (l *Lexer) text(start int) Token {
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.pos++
		if c != '\'' {
			sb.WriteByte(c)
			continue
		}
		if l.peek(0) == '\'' {
			l.pos++
			sb.WriteByte('\'')
			continue
		}
		t := l.emit(Text, start)
		t.Value = sb.String()
		return t
	}
	return l.fail(start, "unterminated text")
}

func (l *Lexer) word(start int) Token {
	if l.peek(0) == '$' {
		l.pos++
	}
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isWordRune(r) {
			break
		}
		l.pos += size
	}
	switch word := l.src[start:l.pos]; word {
	case "$":
		return l.fail(start, "expected a mark name after '$'")
	case "key":
		return l.emit(Key, start)
	case "r":
		return l.emit(Rest, start)
	}
	return l.emit(Mark, start)
}

// Position converts a byte offset into a 1-based line and column, counting
// columns in runes.
func Position(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	line = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, utf8.RuneCountInString(src[lineStart:offset]) + 1
}
