package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType is the type a node returns or a parameter accepts.
type ValueType int

const (
	Float ValueType = iota
	Int
	Bool
	String
)

var valueTypeNames = map[ValueType]string{
	Float:  "float",
	Int:    "int",
	Bool:   "bool",
	String: "string",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// ParseValueType accepts the long names and the one letter codes f, i, b, s.
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float", "f":
		return Float, nil
	case "int", "i":
		return Int, nil
	case "bool", "b":
		return Bool, nil
	case "string", "s":
		return String, nil
	}
	return Float, fmt.Errorf("unknown value type: %q", s)
}

// TypeSet is a set of value types.
type TypeSet uint8

// AnyType contains every value type.
const AnyType = TypeSet(1<<Float | 1<<Int | 1<<Bool | 1<<String)

// Numeric is {float, int}.
const Numeric = TypeSet(1<<Float | 1<<Int)

func Types(ts ...ValueType) TypeSet {
	var s TypeSet
	for _, t := range ts {
		s |= 1 << t
	}
	return s
}

func (s TypeSet) Has(t ValueType) bool { return s&(1<<t) != 0 }

func (s TypeSet) Intersect(o TypeSet) TypeSet { return s & o }

func (s TypeSet) Empty() bool { return s == 0 }

// List returns the members in ValueType order.
func (s TypeSet) List() []ValueType {
	var out []ValueType
	for t := Float; t <= String; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s TypeSet) String() string {
	parts := make([]string, 0, 4)
	for _, t := range s.List() {
		parts = append(parts, t.String())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Accepts reports whether a slot typed s can take a value of type t. Ints
// widen to floats.
func (s TypeSet) Accepts(t ValueType) bool {
	return s.Has(t) || (t == Int && s.Has(Float))
}

// Value is a typed result of evaluating a node, or the constant payload a
// leaf carries.
type Value struct {
	typ ValueType
	f   float64
	i   int64
	b   bool
	s   string
}

func FloatValue(f float64) Value { return Value{typ: Float, f: f} }
func IntValue(i int64) Value     { return Value{typ: Int, i: i} }
func BoolValue(b bool) Value     { return Value{typ: Bool, b: b} }
func StringValue(s string) Value { return Value{typ: String, s: s} }

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsNumeric() bool { return v.typ == Float || v.typ == Int }

// Float converts v to a float64. Bools map to 0/1, strings are parsed and
// yield NaN when they are not numbers.
func (v Value) Float() float64 {
	switch v.typ {
	case Float:
		return v.f
	case Int:
		return float64(v.i)
	case Bool:
		if v.b {
			return 1
		}
		return 0
	default:
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
}

func (v Value) Int() int64 {
	if v.typ == Int {
		return v.i
	}
	return int64(v.Float())
}

func (v Value) Bool() bool {
	switch v.typ {
	case Bool:
		return v.b
	case String:
		return strings.EqualFold(v.s, "true")
	default:
		return v.Float() != 0
	}
}

func (v Value) Str() string {
	switch v.typ {
	case String:
		return v.s
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Int:
		return strconv.FormatInt(v.i, 10)
	default:
		return strconv.FormatBool(v.b)
	}
}

// String renders v as a literal that ParseLiteral reads back to the same
// type and value. Floats always carry a '.', an exponent or a special name.
func (v Value) String() string {
	switch v.typ {
	case Float:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case String:
		return strconv.Quote(v.s)
	default:
		return v.Str()
	}
}

// ParseLiteral reads a literal written by Value.String.
func ParseLiteral(s string) (Value, error) {
	switch {
	case s == "true" || s == "false":
		return BoolValue(s == "true"), nil
	case strings.HasPrefix(s, `"`):
		u, err := strconv.Unquote(s)
		if err != nil {
			return Value{}, fmt.Errorf("bad string literal %s: %w", s, err)
		}
		return StringValue(u), nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("bad literal %q", s)
	}
	return FloatValue(f), nil
}

// Equal compares type and payload. NaN floats are equal to each other so that
// round trips of NaN constants compare equal.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case Float:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case Int:
		return v.i == o.i
	case Bool:
		return v.b == o.b
	default:
		return v.s == o.s
	}
}

// Zero returns the zero value of type t.
func Zero(t ValueType) Value {
	switch t {
	case Int:
		return IntValue(0)
	case Bool:
		return BoolValue(false)
	case String:
		return StringValue("")
	default:
		return FloatValue(0)
	}
}
