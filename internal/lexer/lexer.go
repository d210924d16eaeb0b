// Package lexer turns the raw statement stream into tokens.
//
// The grammar has a single instruction shape:
//
//	<channel> <function>(<input>*) <output>*\n[<body>\n]
//
// The Lexer is incremental. Feed appends bytes as they arrive and Lex emits
// every token whose closing delimiter is already buffered. A token that is
// still open is never emitted in part; Lex simply stops and waits for the
// next Feed. Names are delimited by space, tab, carriage return, newline and
// parentheses; a backslash makes the following delimiter (or backslash) part
// of the name.
//
// The body of a statement whose function declares a binary payload is the
// next line, or exactly n raw bytes plus a newline when that line is "#n".
package lexer

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/errs"
)

// Resolver is the part of the function catalogue the lexer needs.
type Resolver interface {
	Resolve(name string) (catalogue.FunctionID, error)
	HasBinaryPayload(id catalogue.FunctionID) bool
}

// MaxBodySize bounds the length a "#n" body header may declare.
const MaxBodySize = 64 << 20

// Lexer is an incremental state machine keyed by the last emitted token.
// It is not safe for concurrent use.
type Lexer struct {
	cat  Resolver
	buf  []byte
	pos  int
	line int64
	last Kind
	fn   catalogue.FunctionID
	err  error
}

// New creates a Lexer that resolves function names against cat.
func New(cat Resolver) *Lexer {
	return &Lexer{cat: cat, line: 1}
}

// Feed appends raw input.
func (l *Lexer) Feed(p []byte) {
	l.buf = append(l.buf, p...)
}

// Buffered returns the number of bytes fed but not yet consumed.
func (l *Lexer) Buffered() int {
	return len(l.buf) - l.pos
}

// Line returns the line the lexer is currently positioned on.
func (l *Lexer) Line() int64 {
	return l.line
}

// Lex emits every complete token currently buffered, then drops the consumed
// prefix. Running out of data is not an error: Lex returns what it has and
// should be called again after the next Feed.
//
// A grammar violation or an unknown function name is returned together with
// the tokens emitted before it. Errors are sticky; the stream has no
// resynchronization point, so every later call returns the same error.
func (l *Lexer) Lex() ([]Token, error) {
	if l.err != nil {
		return nil, l.err
	}
	var toks []Token
	for {
		tok, ok, err := l.next()
		if err != nil {
			l.err = err
			break
		}
		if !ok {
			break
		}
		toks = append(toks, tok)
	}
	l.compact()
	return toks, l.err
}

// Close reports whether the stream ended cleanly, between statements with
// only whitespace left over.
func (l *Lexer) Close() error {
	if l.err != nil {
		return l.err
	}
	if l.last != None && l.last != StatementEnd {
		return l.fail("statement truncated by end of input")
	}
	if len(bytes.TrimSpace(l.buf[l.pos:])) > 0 {
		return l.fail("statement truncated by end of input")
	}
	return nil
}

func (l *Lexer) compact() {
	if l.pos == 0 {
		return
	}
	l.buf = append(l.buf[:0], l.buf[l.pos:]...)
	l.pos = 0
}

func (l *Lexer) fail(format string, args ...any) error {
	return fmt.Errorf("line %d: %s: %w", l.line, fmt.Sprintf(format, args...), errs.ErrInvalidInput)
}

func (l *Lexer) emit(tok Token) (Token, bool, error) {
	l.last = tok.Kind
	return tok, true, nil
}

// next produces at most one token. ok is false when more data is needed.
func (l *Lexer) next() (tok Token, ok bool, err error) {
	switch l.last {
	case None, StatementEnd:
		return l.lexChannel()
	case Channel:
		return l.lexFunction()
	case Function:
		// lexFunction stops on the opening parenthesis.
		l.pos++
		return l.emit(Token{Kind: InputListStart, Line: l.line})
	case InputListStart, Input:
		return l.lexInput()
	case InputListEnd, Output:
		return l.lexOutput()
	case LineBreak:
		if !l.cat.HasBinaryPayload(l.fn) {
			return l.emit(Token{Kind: StatementEnd, Line: l.line})
		}
		return l.lexBody()
	case Body:
		return l.emit(Token{Kind: StatementEnd, Line: l.line})
	}
	return Token{}, false, fmt.Errorf("lexer in unknown state %s", l.last)
}

func (l *Lexer) lexChannel() (Token, bool, error) {
	for l.pos < len(l.buf) && isSpace(l.buf[l.pos], true) {
		if l.buf[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
	if l.pos >= len(l.buf) {
		return Token{}, false, nil
	}
	name, delim, end, ok := l.scanName()
	if !ok {
		return Token{}, false, nil
	}
	if name == "" {
		return Token{}, false, l.fail("expected channel name, found %q", delim)
	}
	if !isSpace(delim, false) {
		return Token{}, false, l.fail("channel %q must be followed by a space, found %q", name, delim)
	}
	return l.take(Token{Kind: Channel, Text: name, Line: l.line}, end)
}

func (l *Lexer) lexFunction() (Token, bool, error) {
	l.skipBlanks()
	if l.pos >= len(l.buf) {
		return Token{}, false, nil
	}
	name, delim, end, ok := l.scanName()
	if !ok {
		return Token{}, false, nil
	}
	if name == "" {
		return Token{}, false, l.fail("expected function name, found %q", delim)
	}
	if delim != '(' {
		return Token{}, false, l.fail("function %q must be followed by '(', found %q", name, delim)
	}
	id, err := l.cat.Resolve(name)
	if err != nil {
		return Token{}, false, fmt.Errorf("line %d: %w", l.line, err)
	}
	l.fn = id
	return l.take(Token{Kind: Function, Text: name, Function: id, Line: l.line}, end)
}

func (l *Lexer) lexInput() (Token, bool, error) {
	l.skipBlanks()
	if l.pos >= len(l.buf) {
		return Token{}, false, nil
	}
	switch c := l.buf[l.pos]; c {
	case ')':
		l.pos++
		return l.emit(Token{Kind: InputListEnd, Line: l.line})
	case '(', '\n':
		return Token{}, false, l.fail("unexpected %q in input list", c)
	}
	name, delim, end, ok := l.scanName()
	if !ok {
		return Token{}, false, nil
	}
	if delim == '(' || delim == '\n' {
		return Token{}, false, l.fail("input %q followed by %q", name, delim)
	}
	return l.take(Token{Kind: Input, Text: name, Line: l.line}, end)
}

func (l *Lexer) lexOutput() (Token, bool, error) {
	l.skipBlanks()
	if l.pos >= len(l.buf) {
		return Token{}, false, nil
	}
	switch c := l.buf[l.pos]; c {
	case '\n':
		tok := Token{Kind: LineBreak, Line: l.line}
		l.pos++
		l.line++
		return l.emit(tok)
	case '(', ')':
		return Token{}, false, l.fail("unexpected %q in output list", c)
	}
	name, delim, end, ok := l.scanName()
	if !ok {
		return Token{}, false, nil
	}
	if delim == '(' || delim == ')' {
		return Token{}, false, l.fail("output %q followed by %q", name, delim)
	}
	return l.take(Token{Kind: Output, Text: name, Line: l.line}, end)
}

func (l *Lexer) lexBody() (Token, bool, error) {
	nl := bytes.IndexByte(l.buf[l.pos:], '\n')
	if nl < 0 {
		return Token{}, false, nil
	}
	first := l.buf[l.pos : l.pos+nl]
	start := l.line

	n, sized, err := declaredLength(first)
	if err != nil {
		return Token{}, false, l.fail("%v", err)
	}
	if !sized {
		body := append([]byte{}, first...)
		l.pos += nl + 1
		l.line++
		return l.emit(Token{Kind: Body, Body: body, Line: start})
	}

	if n > MaxBodySize {
		return Token{}, false, l.fail("body of %d bytes exceeds the limit of %d", n, MaxBodySize)
	}

	from := l.pos + nl + 1
	if n >= len(l.buf)-from {
		return Token{}, false, nil
	}
	if l.buf[from+n] != '\n' {
		return Token{}, false, l.fail("body of %d bytes is not followed by a newline", n)
	}
	body := append([]byte{}, l.buf[from:from+n]...)
	l.pos = from + n + 1
	l.line += 2 + int64(bytes.Count(body, []byte{'\n'}))
	return l.emit(Token{Kind: Body, Body: body, Line: start})
}

// declaredLength recognises the "#n" body header.
func declaredLength(line []byte) (int, bool, error) {
	if len(line) < 2 || line[0] != '#' {
		return 0, false, nil
	}
	for _, c := range line[1:] {
		if c < '0' || c > '9' {
			return 0, false, nil
		}
	}
	n, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return 0, false, fmt.Errorf("body length %q: %v", line[1:], err)
	}
	return n, true, nil
}

// take emits tok and moves past a name that ended at end, leaving the
// delimiter in place.
func (l *Lexer) take(tok Token, end int) (Token, bool, error) {
	l.line += int64(bytes.Count(l.buf[l.pos:end], []byte{'\n'}))
	l.pos = end
	return l.emit(tok)
}

func (l *Lexer) skipBlanks() {
	for l.pos < len(l.buf) && isSpace(l.buf[l.pos], false) {
		l.pos++
	}
}

// scanName reads a possibly escaped name starting at pos. It reports the
// delimiter and its index, or ok=false when no delimiter is buffered yet.
func (l *Lexer) scanName() (name string, delim byte, end int, ok bool) {
	var b []byte
	for i := l.pos; i < len(l.buf); i++ {
		c := l.buf[i]
		if c == '\\' {
			if i+1 >= len(l.buf) {
				return "", 0, 0, false
			}
			if n := l.buf[i+1]; isDelim(n) || n == '\\' {
				b = append(b, n)
				i++
				continue
			}
			b = append(b, c)
			continue
		}
		if isDelim(c) {
			return string(b), c, i, true
		}
		b = append(b, c)
	}
	return "", 0, 0, false
}

func isDelim(c byte) bool {
	return isSpace(c, true) || c == '(' || c == ')'
}

func isSpace(c byte, newline bool) bool {
	return c == ' ' || c == '\t' || c == '\r' || (newline && c == '\n')
}
