package expr

import (
	"errors"
	"fmt"
	"math"
)

const (
	ConstName = "#const"
	VarName   = "#var"
)

// DefaultDoubleEqual is the tolerance for float equality and for treating a
// divisor as zero.
const DefaultDoubleEqual = 1e-7

var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrUnknownVariable = errors.New("variable has no value")
)

// EvalError marks a failure raised while executing a program.
type EvalError struct {
	Template string
	Err      error
}

func (e *EvalError) Error() string { return fmt.Sprintf("eval %s: %v", e.Template, e.Err) }

func (e *EvalError) Unwrap() error { return e.Err }

var (
	numIn   = Param{Types: Numeric}
	numPass = Param{Types: Numeric, PassThrough: true}
	boolIn  = Param{Types: Types(Bool)}
	anyIn   = Param{Types: AnyType}
	anyPass = Param{Types: AnyType, PassThrough: true}
)

// Standard returns a fresh catalog of the built-in templates.
func Standard() *Catalog {
	c, err := NewCatalog(StandardTemplates()...)
	if err != nil {
		// The built-in set has unique keys.
		panic(err)
	}
	return c
}

// StandardTemplates lists the built-in templates in catalog order.
func StandardTemplates() []*Template {
	return []*Template{
		{
			Name: ConstName, Kind: Leaf, Data: ConstData, Returns: AnyType,
			Eval:  func(n Node) (Value, error) { return n.Data(), nil },
			Legal: constLegal,
		},
		{
			Name: VarName, Kind: Leaf, Data: VarData, Returns: AnyType,
			Eval:  evalVar,
			Legal: varLegal,
		},
		unary("-", 3, numPass, Numeric, func(a Value) Value {
			if a.Type() == Int {
				return IntValue(-a.Int())
			}
			return FloatValue(-a.Float())
		}),
		binary("+", 6, numPass, Numeric, arith(func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })),
		binary("-", 6, numPass, Numeric, arith(func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })),
		binary("*", 5, numPass, Numeric, arith(func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })),
		{
			Name: "/", Kind: Operator, Precedence: 5, Returns: Numeric,
			Params: []Param{numPass, numPass},
			Eval:   evalDiv,
		},
		{
			Name: "%", Kind: Operator, Precedence: 5, Returns: Numeric,
			Params: []Param{numPass, numPass},
			Eval:   evalProtectedDiv,
		},
		rightAssoc(binary("^", 1, numPass, Numeric, func(a, b Value) (Value, error) {
			if a.Type() == Int && b.Type() == Int && b.Int() >= 0 {
				return IntValue(int64(math.Pow(float64(a.Int()), float64(b.Int())))), nil
			}
			return FloatValue(math.Pow(a.Float(), b.Float())), nil
		})),
		function("abs", []Param{numPass}, Numeric, func(args []Value) Value {
			if args[0].Type() == Int {
				v := args[0].Int()
				if v < 0 {
					v = -v
				}
				return IntValue(v)
			}
			return FloatValue(math.Abs(args[0].Float()))
		}),
		floatFunc("sqrt", math.Sqrt),
		floatFunc("sin", math.Sin),
		floatFunc("cos", math.Cos),
		floatFunc("tan", math.Tan),
		floatFunc("exp", math.Exp),
		floatFunc("log", math.Log),
		function("min", []Param{numPass, numPass}, Numeric, pick(func(a, b float64) bool { return a <= b })),
		function("max", []Param{numPass, numPass}, Numeric, pick(func(a, b float64) bool { return a >= b })),
		{
			Name: "!", Kind: Unary, Precedence: 3, Returns: Types(Bool),
			Params: []Param{boolIn},
			Eval: func(n Node) (Value, error) {
				a, err := n.Arg(0)
				if err != nil {
					return Value{}, err
				}
				return BoolValue(!a.Bool()), nil
			},
		},
		{
			Name: "&", Kind: Operator, Precedence: 10, Returns: Types(Bool),
			Params: []Param{boolIn, boolIn},
			Eval:   shortCircuit(false),
		},
		{
			Name: "|", Kind: Operator, Precedence: 12, Returns: Types(Bool),
			Params: []Param{boolIn, boolIn},
			Eval:   shortCircuit(true),
		},
		compare("=", func(a, b Value) bool { return valuesEqual(a, b) }),
		compare("<>", func(a, b Value) bool { return !valuesEqual(a, b) }),
		compare(">", func(a, b Value) bool { return a.Float() > b.Float() }),
		compare("<", func(a, b Value) bool { return a.Float() < b.Float() }),
		compare(">=", func(a, b Value) bool { return a.Float() >= b.Float() }),
		compare("<=", func(a, b Value) bool { return a.Float() <= b.Float() }),
		{
			Name: "ifelse", Kind: Function, Returns: AnyType,
			Params: []Param{boolIn, anyPass, anyPass},
			Eval: func(n Node) (Value, error) {
				cond, err := n.Arg(0)
				if err != nil {
					return Value{}, err
				}
				if cond.Bool() {
					return n.Arg(1)
				}
				return n.Arg(2)
			},
		},
	}
}

func evalVar(n Node) (Value, error) {
	name := n.Data().Str()
	v, ok := n.Variable(name)
	if !ok {
		return Value{}, &EvalError{Template: VarName, Err: fmt.Errorf("%w: %s", ErrUnknownVariable, name)}
	}
	return v, nil
}

func evalDiv(n Node) (Value, error) {
	a, b, err := args2(n)
	if err != nil {
		return Value{}, err
	}
	if a.Type() == Int && b.Type() == Int {
		if b.Int() == 0 {
			return Value{}, &EvalError{Template: "/", Err: ErrDivisionByZero}
		}
		return IntValue(a.Int() / b.Int()), nil
	}
	if math.Abs(b.Float()) < DefaultDoubleEqual {
		return Value{}, &EvalError{Template: "/", Err: ErrDivisionByZero}
	}
	return FloatValue(a.Float() / b.Float()), nil
}

// evalProtectedDiv returns 1 instead of failing on a zero divisor.
func evalProtectedDiv(n Node) (Value, error) {
	a, b, err := args2(n)
	if err != nil {
		return Value{}, err
	}
	if a.Type() == Int && b.Type() == Int {
		if b.Int() == 0 {
			return IntValue(1), nil
		}
		return IntValue(a.Int() / b.Int()), nil
	}
	if math.Abs(b.Float()) < DefaultDoubleEqual {
		return FloatValue(1), nil
	}
	return FloatValue(a.Float() / b.Float()), nil
}

func valuesEqual(a, b Value) bool {
	switch {
	case a.Type() == Bool || b.Type() == Bool:
		return a.Bool() == b.Bool()
	case a.Type() == String || b.Type() == String:
		return a.Str() == b.Str()
	default:
		return math.Abs(a.Float()-b.Float()) < DefaultDoubleEqual
	}
}

func args2(n Node) (Value, Value, error) {
	a, err := n.Arg(0)
	if err != nil {
		return Value{}, Value{}, err
	}
	b, err := n.Arg(1)
	if err != nil {
		return Value{}, Value{}, err
	}
	return a, b, nil
}

func unary(name string, prec int, p Param, returns TypeSet, f func(Value) Value) *Template {
	return &Template{
		Name: name, Kind: Unary, Precedence: prec, Returns: returns,
		Params: []Param{p},
		Eval: func(n Node) (Value, error) {
			a, err := n.Arg(0)
			if err != nil {
				return Value{}, err
			}
			return f(a), nil
		},
	}
}

func binary(name string, prec int, p Param, returns TypeSet, f func(a, b Value) (Value, error)) *Template {
	return &Template{
		Name: name, Kind: Operator, Precedence: prec, Returns: returns,
		Params: []Param{p, p},
		Eval: func(n Node) (Value, error) {
			a, b, err := args2(n)
			if err != nil {
				return Value{}, err
			}
			return f(a, b)
		},
	}
}

func rightAssoc(t *Template) *Template {
	t.RightAssoc = true
	return t
}

func function(name string, params []Param, returns TypeSet, f func(args []Value) Value) *Template {
	return &Template{
		Name: name, Kind: Function, Returns: returns,
		Params: params,
		Eval: func(n Node) (Value, error) {
			args := make([]Value, n.Arity())
			for i := range args {
				v, err := n.Arg(i)
				if err != nil {
					return Value{}, err
				}
				args[i] = v
			}
			return f(args), nil
		},
	}
}

func floatFunc(name string, f func(float64) float64) *Template {
	return function(name, []Param{numIn}, Types(Float), func(args []Value) Value {
		return FloatValue(f(args[0].Float()))
	})
}

// arith keeps int arithmetic when both sides are ints and promotes otherwise.
func arith(fi func(a, b int64) int64, ff func(a, b float64) float64) func(a, b Value) (Value, error) {
	return func(a, b Value) (Value, error) {
		if a.Type() == Int && b.Type() == Int {
			return IntValue(fi(a.Int(), b.Int())), nil
		}
		return FloatValue(ff(a.Float(), b.Float())), nil
	}
}

func pick(first func(a, b float64) bool) func(args []Value) Value {
	return func(args []Value) Value {
		if first(args[0].Float(), args[1].Float()) {
			return args[0]
		}
		return args[1]
	}
}

func shortCircuit(on bool) EvalFunc {
	return func(n Node) (Value, error) {
		a, err := n.Arg(0)
		if err != nil {
			return Value{}, err
		}
		if a.Bool() == on {
			return BoolValue(on), nil
		}
		b, err := n.Arg(1)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b.Bool()), nil
	}
}

func compare(name string, f func(a, b Value) bool) *Template {
	params := []Param{numIn, numIn}
	if name == "=" || name == "<>" {
		params = []Param{anyIn, anyIn}
	}
	return &Template{
		Name: name, Kind: Operator, Precedence: 9, Returns: Types(Bool),
		Params: params,
		Eval: func(n Node) (Value, error) {
			a, b, err := args2(n)
			if err != nil {
				return Value{}, err
			}
			return BoolValue(f(a, b)), nil
		},
	}
}
