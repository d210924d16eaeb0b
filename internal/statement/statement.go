// Package statement groups lexer tokens into resolved statements.
package statement

import (
	"errors"
	"fmt"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/errs"
	"github.com/vk/amnis/internal/lexer"
	"github.com/vk/amnis/internal/namespace"
)

// Statement is one fully resolved function invocation.
type Statement struct {
	Channel  int
	Function catalogue.FunctionID
	// Inputs are ids that were registered before the statement was read.
	Inputs []int
	// Outputs are ids registered for this statement, in declaration order.
	Outputs []int
	// Body is nil unless the function declares a binary payload.
	Body []byte
	Size uint64
	Line int64
}

// StatementError reports a statement that could not be assembled. The
// tokens of the statement are already discarded when it is returned.
type StatementError struct {
	Line int64
	Err  error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement at line %d: %v", e.Line, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// NameTable is the name registry as seen by the assembler.
type NameTable interface {
	RequireID(name string) (int, error)
	Register(name string) (int, error)
}

// BodyDeclarer reports whether a function takes a body.
type BodyDeclarer interface {
	HasBinaryPayload(id catalogue.FunctionID) bool
}

type localNames struct {
	ns *namespace.Namespace
}

// Local adapts a Namespace owned by the caller into a NameTable.
func Local(ns *namespace.Namespace) NameTable {
	return localNames{ns: ns}
}

func (l localNames) RequireID(name string) (int, error) { return l.ns.RequireID(name) }

func (l localNames) Register(name string) (int, error) { return l.ns.Register(name), nil }

// Assembler consumes tokens and yields statements, one StatementEnd boundary
// at a time.
type Assembler struct {
	names NameTable
	cat   BodyDeclarer
	toks  []lexer.Token
}

// NewAssembler creates an Assembler resolving names against names.
func NewAssembler(names NameTable, cat BodyDeclarer) *Assembler {
	return &Assembler{names: names, cat: cat}
}

// Push appends tokens in stream order.
func (a *Assembler) Push(toks ...lexer.Token) {
	a.toks = append(a.toks, toks...)
}

// Pending returns the number of tokens waiting for a boundary.
func (a *Assembler) Pending() int {
	return len(a.toks)
}

// Next assembles the oldest complete statement. It returns ok=false with a
// nil error when no StatementEnd has been pushed yet. On failure the tokens
// of the broken statement are dropped, so the following call moves on to
// the next one.
func (a *Assembler) Next() (*Statement, bool, error) {
	end := -1
	for i, tok := range a.toks {
		if tok.Kind == lexer.StatementEnd {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, false, nil
	}
	run := a.toks[:end+1]
	a.toks = a.toks[end+1:]
	if len(a.toks) == 0 {
		a.toks = nil
	}

	st, err := a.assemble(run)
	if err != nil {
		line := int64(0)
		if len(run) > 0 {
			line = run[0].Line
		}
		return nil, false, &StatementError{Line: line, Err: err}
	}
	return st, true, nil
}

// assemble resolves every reference before registering any output, so a
// failed statement leaves the name table untouched.
func (a *Assembler) assemble(run []lexer.Token) (*Statement, error) {
	var (
		channel, function *lexer.Token
		inputs, outputs   []string
		body              *lexer.Token
	)
	for i := range run {
		tok := &run[i]
		switch tok.Kind {
		case lexer.Channel:
			if channel != nil {
				return nil, fmt.Errorf("second channel %q: %w", tok.Text, errs.ErrInvalidInput)
			}
			channel = tok
		case lexer.Function:
			if function != nil {
				return nil, fmt.Errorf("second function %q: %w", tok.Text, errs.ErrInvalidInput)
			}
			function = tok
		case lexer.Input:
			inputs = append(inputs, tok.Text)
		case lexer.Output:
			outputs = append(outputs, tok.Text)
		case lexer.Body:
			body = tok
		}
	}
	if channel == nil || function == nil {
		return nil, fmt.Errorf("statement without channel or function: %w", errs.ErrInvalidInput)
	}

	st := &Statement{Function: function.Function, Line: channel.Line}
	var err error
	if st.Channel, err = a.names.RequireID(channel.Text); err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}
	st.Inputs = make([]int, 0, len(inputs))
	for _, name := range inputs {
		id, err := a.names.RequireID(name)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		st.Inputs = append(st.Inputs, id)
	}

	binary := a.cat.HasBinaryPayload(st.Function)
	switch {
	case binary && body == nil:
		return nil, fmt.Errorf("function %q requires a body: %w", function.Text, errs.ErrInvalidInput)
	case !binary && body != nil:
		return nil, fmt.Errorf("function %q takes no body: %w", function.Text, errs.ErrInvalidInput)
	case body != nil:
		st.Body = body.Body
		if st.Body == nil {
			st.Body = []byte{}
		}
		st.Size = uint64(len(st.Body))
	}

	st.Outputs = make([]int, 0, len(outputs))
	for _, name := range outputs {
		id, err := a.names.Register(name)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		st.Outputs = append(st.Outputs, id)
	}
	return st, nil
}

// Catalogue is what a Parser needs from the function table.
type Catalogue interface {
	lexer.Resolver
	BodyDeclarer
}

// Parser pairs a Lexer with an Assembler.
type Parser struct {
	lex *lexer.Lexer
	asm *Assembler
}

// NewParser creates a Parser over cat and names.
func NewParser(cat Catalogue, names NameTable) *Parser {
	return &Parser{lex: lexer.New(cat), asm: NewAssembler(names, cat)}
}

// Feed lexes p and queues the resulting tokens for Next. The returned error
// is a lexer error; it is sticky and ends the stream, though statements
// completed before it are still available from Next.
func (p *Parser) Feed(b []byte) error {
	p.lex.Feed(b)
	toks, err := p.lex.Lex()
	p.asm.Push(toks...)
	return err
}

// Next returns the next statement, as Assembler.Next.
func (p *Parser) Next() (*Statement, bool, error) {
	return p.asm.Next()
}

// Line is the line the lexer has reached.
func (p *Parser) Line() int64 {
	return p.lex.Line()
}

// Close reports a statement left unfinished by the end of input.
func (p *Parser) Close() error {
	return p.lex.Close()
}

// All feeds b and collects every statement it completes. It stops at the
// first error of either kind.
func (p *Parser) All(b []byte) ([]*Statement, error) {
	lexErr := p.Feed(b)
	var out []*Statement
	for {
		st, ok, err := p.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, st)
	}
	return out, lexErr
}

// IsRecoverable reports whether err concerns a single statement only.
func IsRecoverable(err error) bool {
	var se *StatementError
	return errors.As(err, &se)
}
