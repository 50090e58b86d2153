package prg

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/wildfunctions/typed_gp/pkg/expr"
)

var (
	ErrVariableDefined = errors.New("variable already defined")
	ErrBadVariableName = errors.New("invalid variable name")
)

// Variable is a named input a program can read.
type Variable struct {
	Name string
	Type expr.ValueType
}

// Context is shared by every program of a population: the template catalog,
// the defined variables and the result type. Define everything before the
// first program is built; after that a Context is read-only and safe to share
// between goroutines.
type Context struct {
	catalog   *expr.Catalog
	variables []Variable
	byName    map[string]int
	result    expr.ValueType
}

func NewContext(catalog *expr.Catalog, result expr.ValueType) *Context {
	return &Context{
		catalog: catalog,
		byName:  make(map[string]int),
		result:  result,
	}
}

func (c *Context) Catalog() *expr.Catalog { return c.catalog }

func (c *Context) Result() expr.ValueType { return c.result }

// DefineVariable adds a variable. Names follow identifier rules and must not
// read as a literal, so the text form stays unambiguous.
func (c *Context) DefineVariable(name string, t expr.ValueType) error {
	if _, err := expr.ParseLiteral(name); err == nil || !isIdentifier(name) {
		return fmt.Errorf("%w: %q", ErrBadVariableName, name)
	}
	if _, ok := c.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrVariableDefined, name)
	}
	c.byName[name] = len(c.variables)
	c.variables = append(c.variables, Variable{Name: name, Type: t})
	return nil
}

// Variables returns the defined variables in definition order.
func (c *Context) Variables() []Variable {
	out := make([]Variable, len(c.variables))
	copy(out, c.variables)
	return out
}

func (c *Context) VariableType(name string) (expr.ValueType, bool) {
	i, ok := c.byName[name]
	if !ok {
		return expr.Float, false
	}
	return c.variables[i].Type, true
}

// VariablesOfType returns the variables whose type is in want. When an int
// is wanted and no int variable exists, float variables are not offered:
// they would not type check.
func (c *Context) VariablesOfType(want expr.TypeSet) []Variable {
	var out []Variable
	for _, v := range c.variables {
		for _, w := range want.List() {
			if expr.Types(w).Accepts(v.Type) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
