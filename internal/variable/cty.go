package variable

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToCty converts v into its cty equivalent. Bytes become strings, so bytes
// that are not valid UTF-8 do not survive a round trip.
func (v Variable) ToCty() cty.Value {
	switch x := v.v.(type) {
	case int32:
		return cty.NumberIntVal(int64(x))
	case int64:
		return cty.NumberIntVal(x)
	case float32:
		return cty.NumberFloatVal(float64(x))
	case float64:
		return cty.NumberFloatVal(x)
	case string:
		return cty.StringVal(x)
	case []byte:
		return cty.StringVal(string(x))
	case []int32:
		return listVal(cty.Number, len(x), func(i int) cty.Value { return cty.NumberIntVal(int64(x[i])) })
	case []int64:
		return listVal(cty.Number, len(x), func(i int) cty.Value { return cty.NumberIntVal(x[i]) })
	case []float32:
		return listVal(cty.Number, len(x), func(i int) cty.Value { return cty.NumberFloatVal(float64(x[i])) })
	case []float64:
		return listVal(cty.Number, len(x), func(i int) cty.Value { return cty.NumberFloatVal(x[i]) })
	case []string:
		return listVal(cty.String, len(x), func(i int) cty.Value { return cty.StringVal(x[i]) })
	case [][]byte:
		return listVal(cty.String, len(x), func(i int) cty.Value { return cty.StringVal(string(x[i])) })
	}
	return cty.NilVal
}

func listVal(elem cty.Type, n int, item func(int) cty.Value) cty.Value {
	if n == 0 {
		return cty.ListValEmpty(elem)
	}
	vals := make([]cty.Value, n)
	for i := range n {
		vals[i] = item(i)
	}
	return cty.ListVal(vals)
}

// ctyType is the cty type a value of kind k is converted through.
func ctyType(k Kind) cty.Type {
	switch k {
	case KindI32, KindI64, KindF32, KindF64:
		return cty.Number
	case KindStr, KindBytes:
		return cty.String
	case KindI32Array, KindI64Array, KindF32Array, KindF64Array:
		return cty.List(cty.Number)
	case KindStrArray, KindBytesArray:
		return cty.List(cty.String)
	}
	return cty.NilType
}

// FromCty converts a cty value into a Variable of the requested kind, using
// cty's conversion rules first (so "42" converts to a number).
func FromCty(val cty.Value, kind Kind) (Variable, error) {
	target := ctyType(kind)
	if target == cty.NilType {
		return Variable{}, fmt.Errorf("cannot convert to %s", kind)
	}
	if val.IsNull() || !val.IsWhollyKnown() {
		return Variable{}, fmt.Errorf("value for %s must be known and not null", kind)
	}
	converted, err := convert.Convert(val, target)
	if err != nil {
		return Variable{}, fmt.Errorf("converting %s to %s: %w", val.Type().FriendlyName(), kind, err)
	}

	switch kind {
	case KindI32:
		var x int32
		return decode(converted, &x, func() Variable { return I32(x) })
	case KindI64:
		var x int64
		return decode(converted, &x, func() Variable { return I64(x) })
	case KindF32:
		var x float32
		return decode(converted, &x, func() Variable { return F32(x) })
	case KindF64:
		var x float64
		return decode(converted, &x, func() Variable { return F64(x) })
	case KindStr:
		return Str(converted.AsString()), nil
	case KindBytes:
		return Bytes([]byte(converted.AsString())), nil
	case KindI32Array:
		var x []int32
		return decode(converted, &x, func() Variable { return I32Array(x) })
	case KindI64Array:
		var x []int64
		return decode(converted, &x, func() Variable { return I64Array(x) })
	case KindF32Array:
		var x []float32
		return decode(converted, &x, func() Variable { return F32Array(x) })
	case KindF64Array:
		var x []float64
		return decode(converted, &x, func() Variable { return F64Array(x) })
	case KindStrArray:
		var x []string
		return decode(converted, &x, func() Variable { return StrArray(x) })
	case KindBytesArray:
		var x []string
		return decode(converted, &x, func() Variable {
			bs := make([][]byte, len(x))
			for i, s := range x {
				bs[i] = []byte(s)
			}
			return BytesArray(bs)
		})
	}
	return Variable{}, fmt.Errorf("cannot convert to %s", kind)
}

func decode(val cty.Value, target any, build func() Variable) (Variable, error) {
	if err := gocty.FromCtyValue(val, target); err != nil {
		return Variable{}, err
	}
	return build(), nil
}

// ImpliedKind picks a Kind for a value whose type was not declared: strings
// become KindStr, whole numbers KindI64, other numbers KindF64, and
// lists or tuples follow their elements.
func ImpliedKind(val cty.Value) (Kind, error) {
	ty := val.Type()
	switch {
	case ty == cty.String:
		return KindStr, nil
	case ty == cty.Number:
		if val.IsKnown() && !val.IsNull() && val.AsBigFloat().IsInt() {
			return KindI64, nil
		}
		return KindF64, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		if val.IsNull() || !val.IsWhollyKnown() {
			return KindInvalid, fmt.Errorf("collection must be known and not null")
		}
		if val.LengthInt() == 0 {
			return KindStrArray, nil
		}
		allInts, allStrings, allNumbers := true, true, true
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			switch elem.Type() {
			case cty.String:
				allInts, allNumbers = false, false
			case cty.Number:
				allStrings = false
				if elem.IsNull() || !elem.AsBigFloat().IsInt() {
					allInts = false
				}
			default:
				return KindInvalid, fmt.Errorf("unsupported element type %s", elem.Type().FriendlyName())
			}
		}
		switch {
		case allStrings:
			return KindStrArray, nil
		case allInts:
			return KindI64Array, nil
		case allNumbers:
			return KindF64Array, nil
		}
		return KindInvalid, fmt.Errorf("collection mixes strings and numbers")
	}
	return KindInvalid, fmt.Errorf("unsupported type %s", ty.FriendlyName())
}
