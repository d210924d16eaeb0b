// Package frame defines the unit of output pushed through the multiplexing
// queue, and its text rendering for the debug surface.
package frame

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Tag distinguishes result frames from per-statement error reports.
type Tag uint8

const (
	// Data frames carry a function's result payload.
	Data Tag = iota
	// Error frames carry the message of a recoverable statement failure.
	Error
)

func (t Tag) String() string {
	if t == Error {
		return "err"
	}
	return "ok"
}

// SessionChannel is the channel id used for diagnostics that do not belong
// to any declared channel. Namespace ids start at 1, so it never collides.
const SessionChannel int64 = 0

// Frame is one unit of output.
type Frame struct {
	Channel int64
	Line    int64
	Size    uint64
	Tag     Tag
	Payload []byte
}

// New builds a data frame.
func New(channel, line int64, size uint64, payload []byte) Frame {
	return Frame{Channel: channel, Line: line, Size: size, Tag: Data, Payload: payload}
}

// Errorf builds an error frame.
func Errorf(channel, line int64, format string, args ...any) Frame {
	return Frame{Channel: channel, Line: line, Tag: Error, Payload: []byte(fmt.Sprintf(format, args...))}
}

// IsError reports whether f reports a failure.
func (f Frame) IsError() bool { return f.Tag == Error }

// Format renders f as a single text line:
//
//	<channel> <line> <size> <ok|err> <payload>\n
//
// The payload is written verbatim when it is printable single-line UTF-8
// without leading or trailing spaces and does not start with a quote;
// otherwise it is quoted with strconv.Quote.
func Format(f Frame) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%d %d %d %s ", f.Channel, f.Line, f.Size, f.Tag)
	if needsQuote(f.Payload) {
		b.WriteString(strconv.Quote(string(f.Payload)))
	} else {
		b.Write(f.Payload)
	}
	b.WriteByte('\n')
	return b.Bytes()
}

func needsQuote(p []byte) bool {
	if len(p) == 0 {
		return false
	}
	if !utf8.Valid(p) || p[0] == '"' || p[0] == ' ' || p[len(p)-1] == ' ' {
		return true
	}
	for _, r := range string(p) {
		if !strconv.IsPrint(r) {
			return true
		}
	}
	return false
}

// Parse decodes one line produced by Format. The trailing newline is optional.
func Parse(line []byte) (Frame, error) {
	s := strings.TrimSuffix(string(line), "\n")
	fields := strings.SplitN(s, " ", 5)
	if len(fields) != 5 {
		return Frame{}, fmt.Errorf("frame line %q: expected 5 fields, got %d", s, len(fields))
	}

	var f Frame
	var err error
	if f.Channel, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
		return Frame{}, fmt.Errorf("frame channel: %w", err)
	}
	if f.Line, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return Frame{}, fmt.Errorf("frame line: %w", err)
	}
	if f.Size, err = strconv.ParseUint(fields[2], 10, 64); err != nil {
		return Frame{}, fmt.Errorf("frame size: %w", err)
	}
	switch fields[3] {
	case "ok":
		f.Tag = Data
	case "err":
		f.Tag = Error
	default:
		return Frame{}, fmt.Errorf("frame tag %q", fields[3])
	}

	payload := fields[4]
	if strings.HasPrefix(payload, `"`) {
		unq, err := strconv.Unquote(payload)
		if err != nil {
			return Frame{}, fmt.Errorf("frame payload: %w", err)
		}
		payload = unq
	}
	f.Payload = []byte(payload)
	return f, nil
}
