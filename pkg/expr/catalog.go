package expr

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrDuplicateTemplate = errors.New("template already in catalog")
	ErrUnknownTemplate   = errors.New("unknown template")
)

// Catalog is an ordered, immutable set of templates. Nodes refer to
// templates by their index in the catalog.
type Catalog struct {
	templates []*Template
	byKey     map[string]int
}

// NewCatalog builds a catalog. Name/arity pairs must be unique.
func NewCatalog(templates ...*Template) (*Catalog, error) {
	c := &Catalog{
		templates: make([]*Template, 0, len(templates)),
		byKey:     make(map[string]int, len(templates)),
	}
	for _, t := range templates {
		if t == nil || t.Name == "" {
			return nil, errors.New("template name is required")
		}
		if len(t.Params) > 0 && t.Eval == nil {
			return nil, fmt.Errorf("template %s has no eval func", t.Key())
		}
		if _, dup := c.byKey[t.Key()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.Key())
		}
		c.byKey[t.Key()] = len(c.templates)
		c.templates = append(c.templates, t)
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.templates) }

// At returns the template at index i.
func (c *Catalog) At(i int) *Template { return c.templates[i] }

// Index returns the catalog index of name with the given arity.
func (c *Catalog) Index(name string, arity int) (int, bool) {
	i, ok := c.byKey[templateKey(name, arity)]
	return i, ok
}

func (c *Catalog) Lookup(name string, arity int) (*Template, error) {
	i, ok := c.Index(name, arity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateKey(name, arity))
	}
	return c.templates[i], nil
}

// IndexOf returns the position of t, which must be a member.
func (c *Catalog) IndexOf(t *Template) (int, bool) {
	i, ok := c.byKey[t.Key()]
	if !ok || c.templates[i] != t {
		return -1, false
	}
	return i, true
}

// Find returns the indexes of templates that can return one of want,
// restricted to terminals, functions (arity > 0) or both.
func (c *Catalog) Find(want TypeSet, terminals, functions bool) []int {
	var out []int
	for i, t := range c.templates {
		if t.IsTerminal() && !terminals || !t.IsTerminal() && !functions {
			continue
		}
		for _, w := range want.List() {
			if Produces(t.Returns, w) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// Subset returns a catalog holding only the named templates (all arities of
// each name). The constant and variable leaves are always kept.
func (c *Catalog) Subset(names ...string) (*Catalog, error) {
	want := map[string]bool{ConstName: true, VarName: true}
	for _, n := range names {
		want[n] = true
	}
	found := map[string]bool{}
	var picked []*Template
	for _, t := range c.templates {
		if want[t.Name] {
			picked = append(picked, t)
			found[t.Name] = true
		}
	}
	for _, n := range names {
		if !found[n] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, n)
		}
	}
	return NewCatalog(picked...)
}

// Names returns the sorted template keys.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.templates))
	for _, t := range c.templates {
		names = append(names, t.Key())
	}
	sort.Strings(names)
	return names
}
