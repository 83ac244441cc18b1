// Package component models the analyzed project as an arena-backed tree of components.
package component

import (
	"fmt"
	"strings"
)

// Type is the kind of a component. Types are ordered from coarsest to finest.
type Type int

// Component types.
const (
	Project Type = iota
	Module
	Directory
	File
)

var typeNames = [...]string{"PROJECT", "MODULE", "DIRECTORY", "FILE"}

// String returns the upper-case name of the type.
func (t Type) String() string {
	if t < Project || t > File {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType parses a component type name, case-insensitively.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(s, name) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown component type %q", s)
}

// Component is one node of the tree. Children are arena indexes, in report order.
type Component struct {
	Ref      int
	Key      string
	Name     string
	Type     Type
	Children []int
}

// IsFile reports whether the component is a leaf file.
func (c *Component) IsFile() bool {
	return c.Type == File
}

// Tree is an immutable arena of components indexed by position.
type Tree struct {
	nodes   []Component
	parents []int // -1 for the root
	byRef   map[int]int
	root    int
}

// Root returns the root component.
func (t *Tree) Root() *Component {
	return &t.nodes[t.root]
}

// Len returns the number of components in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// At returns the component stored at arena index idx.
func (t *Tree) At(idx int) *Component {
	return &t.nodes[idx]
}

// ByRef returns the component with the given report reference.
func (t *Tree) ByRef(ref int) (*Component, bool) {
	idx, ok := t.byRef[ref]
	if !ok {
		return nil, false
	}
	return &t.nodes[idx], true
}

// Parent returns the parent of the component with the given ref, or false for the root.
func (t *Tree) Parent(ref int) (*Component, bool) {
	idx, ok := t.byRef[ref]
	if !ok || t.parents[idx] < 0 {
		return nil, false
	}
	return &t.nodes[t.parents[idx]], true
}

// Children returns the direct children of c in report order.
func (t *Tree) Children(c *Component) []*Component {
	out := make([]*Component, 0, len(c.Children))
	for _, idx := range c.Children {
		out = append(out, &t.nodes[idx])
	}
	return out
}

// Files returns every FILE component in pre-order.
func (t *Tree) Files() []*Component {
	var files []*Component
	var walk func(idx int)
	walk = func(idx int) {
		c := &t.nodes[idx]
		if c.IsFile() {
			files = append(files, c)
			return
		}
		for _, child := range c.Children {
			walk(child)
		}
	}
	walk(t.root)
	return files
}
