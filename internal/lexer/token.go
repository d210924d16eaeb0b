package lexer

import (
	"fmt"

	"github.com/vk/amnis/internal/catalogue"
)

// Kind is the type of a Token.
type Kind uint8

const (
	None Kind = iota
	Channel
	Function
	InputListStart
	Input
	InputListEnd
	Output
	LineBreak
	Body
	StatementEnd
)

var kindNames = [...]string{
	None:           "None",
	Channel:        "Channel",
	Function:       "Function",
	InputListStart: "InputListStart",
	Input:          "Input",
	InputListEnd:   "InputListEnd",
	Output:         "Output",
	LineBreak:      "LineBreak",
	Body:           "Body",
	StatementEnd:   "StatementEnd",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexical unit of the statement stream.
type Token struct {
	Kind Kind
	// Text is the unescaped name for Channel, Function, Input and Output.
	Text string
	// Function is the resolved id of a Function token.
	Function catalogue.FunctionID
	// Body holds the payload of a Body token.
	Body []byte
	// Line is the 1-based source line the token starts on.
	Line int64
}

func (t Token) String() string {
	switch t.Kind {
	case Channel, Input, Output:
		return fmt.Sprintf("%s(%q) at line %d", t.Kind, t.Text, t.Line)
	case Function:
		return fmt.Sprintf("%s(%q=%d) at line %d", t.Kind, t.Text, t.Function, t.Line)
	case Body:
		return fmt.Sprintf("%s(%d bytes) at line %d", t.Kind, len(t.Body), t.Line)
	}
	return fmt.Sprintf("%s at line %d", t.Kind, t.Line)
}
