// Package variable defines the runtime value bound to output names: a tagged
// union over scalar and homogeneous array types.
package variable

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags which member of the union a Variable holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindI32
	KindI64
	KindF32
	KindF64
	KindStr
	KindBytes
	KindI32Array
	KindI64Array
	KindF32Array
	KindF64Array
	KindStrArray
	KindBytesArray
)

var kindNames = map[Kind]string{
	KindI32:        "i32",
	KindI64:        "i64",
	KindF32:        "f32",
	KindF64:        "f64",
	KindStr:        "string",
	KindBytes:      "bytes",
	KindI32Array:   "list(i32)",
	KindI64Array:   "list(i64)",
	KindF32Array:   "list(f32)",
	KindF64Array:   "list(f64)",
	KindStrArray:   "list(string)",
	KindBytesArray: "list(bytes)",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// IsArray reports whether k is one of the array kinds.
func (k Kind) IsArray() bool {
	return k >= KindI32Array && k <= KindBytesArray
}

// ParseKind maps a type keyword, as written in configuration, to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown variable type %q", s)
}

// Variable is an immutable tagged value. The zero Variable is invalid.
type Variable struct {
	kind Kind
	v    any
}

func I32(v int32) Variable    { return Variable{KindI32, v} }
func I64(v int64) Variable    { return Variable{KindI64, v} }
func F32(v float32) Variable  { return Variable{KindF32, v} }
func F64(v float64) Variable  { return Variable{KindF64, v} }
func Str(v string) Variable   { return Variable{KindStr, v} }
func Bytes(v []byte) Variable { return Variable{KindBytes, clone(v)} }
func I32Array(v []int32) Variable {
	return Variable{KindI32Array, append([]int32(nil), v...)}
}
func I64Array(v []int64) Variable {
	return Variable{KindI64Array, append([]int64(nil), v...)}
}
func F32Array(v []float32) Variable {
	return Variable{KindF32Array, append([]float32(nil), v...)}
}
func F64Array(v []float64) Variable {
	return Variable{KindF64Array, append([]float64(nil), v...)}
}
func StrArray(v []string) Variable {
	return Variable{KindStrArray, append([]string(nil), v...)}
}
func BytesArray(v [][]byte) Variable {
	out := make([][]byte, len(v))
	for i, b := range v {
		out[i] = clone(b)
	}
	return Variable{KindBytesArray, out}
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return append([]byte(nil), b...)
}

// Kind returns the tag.
func (v Variable) Kind() Kind { return v.kind }

// IsValid reports whether v holds a value.
func (v Variable) IsValid() bool { return v.kind != KindInvalid }

// Value returns the held Go value: int32, int64, float32, float64, string,
// []byte or a slice of one of those. Callers must not mutate it.
func (v Variable) Value() any { return v.v }

// AsStr returns the string held by a KindStr variable.
func (v Variable) AsStr() (string, bool) {
	s, ok := v.v.(string)
	return s, ok && v.kind == KindStr
}

// AsBytes returns the bytes of a KindBytes or KindStr variable.
func (v Variable) AsBytes() ([]byte, bool) {
	switch v.kind {
	case KindBytes:
		return v.v.([]byte), true
	case KindStr:
		return []byte(v.v.(string)), true
	}
	return nil, false
}

// AsI64 widens any integer scalar.
func (v Variable) AsI64() (int64, bool) {
	switch v.kind {
	case KindI32:
		return int64(v.v.(int32)), true
	case KindI64:
		return v.v.(int64), true
	}
	return 0, false
}

// Len returns the element count of an array kind, or 1 for a scalar.
func (v Variable) Len() int {
	switch x := v.v.(type) {
	case []int32:
		return len(x)
	case []int64:
		return len(x)
	case []float32:
		return len(x)
	case []float64:
		return len(x)
	case []string:
		return len(x)
	case [][]byte:
		return len(x)
	case nil:
		return 0
	}
	return 1
}

// Size is the approximate number of bytes v occupies, used for memory gas.
func (v Variable) Size() int64 {
	switch x := v.v.(type) {
	case int32, float32:
		return 4
	case int64, float64:
		return 8
	case string:
		return int64(len(x))
	case []byte:
		return int64(len(x))
	case []int32:
		return int64(4 * len(x))
	case []float32:
		return int64(4 * len(x))
	case []int64:
		return int64(8 * len(x))
	case []float64:
		return int64(8 * len(x))
	case []string:
		var n int64
		for _, s := range x {
			n += int64(len(s))
		}
		return n
	case [][]byte:
		var n int64
		for _, b := range x {
			n += int64(len(b))
		}
		return n
	}
	return 0
}

// String renders v as text: scalars plainly, arrays as bracketed lists.
func (v Variable) String() string {
	switch x := v.v.(type) {
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	case []byte:
		return string(x)
	case []int32:
		return join(len(x), func(i int) string { return strconv.FormatInt(int64(x[i]), 10) })
	case []int64:
		return join(len(x), func(i int) string { return strconv.FormatInt(x[i], 10) })
	case []float32:
		return join(len(x), func(i int) string { return strconv.FormatFloat(float64(x[i]), 'g', -1, 32) })
	case []float64:
		return join(len(x), func(i int) string { return strconv.FormatFloat(x[i], 'g', -1, 64) })
	case []string:
		return join(len(x), func(i int) string { return strconv.Quote(x[i]) })
	case [][]byte:
		return join(len(x), func(i int) string { return strconv.Quote(string(x[i])) })
	}
	return "<invalid>"
}

func join(n int, item func(int) string) string {
	parts := make([]string, n)
	for i := range n {
		parts[i] = item(i)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
