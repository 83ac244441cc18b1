package component

import (
	"errors"
	"fmt"

	"github.com/huangsam/tally/schema"
)

// ErrInvalidTree is returned when reported components do not form a valid tree.
var ErrInvalidTree = errors.New("invalid component tree")

// Builder assembles a Tree from flat component descriptions.
type Builder struct {
	nodes []Component
	byRef map[int]int
	keys  map[string]int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byRef: make(map[int]int), keys: make(map[string]int)}
}

// Add registers a component. Children are given as refs and resolved by Build.
func (b *Builder) Add(ref int, key, name string, typ Type, childRefs ...int) error {
	if _, dup := b.byRef[ref]; dup {
		return fmt.Errorf("%w: duplicate ref %d", ErrInvalidTree, ref)
	}
	if other, dup := b.keys[key]; dup {
		return fmt.Errorf("%w: refs %d and %d share key %q", ErrInvalidTree, other, ref, key)
	}
	b.keys[key] = ref
	b.byRef[ref] = len(b.nodes)
	b.nodes = append(b.nodes, Component{
		Ref:      ref,
		Key:      key,
		Name:     name,
		Type:     typ,
		Children: append([]int(nil), childRefs...), // refs until Build
	})
	return nil
}

// Build resolves child refs into arena indexes and validates the hierarchy.
func (b *Builder) Build(rootRef int) (*Tree, error) {
	rootIdx, ok := b.byRef[rootRef]
	if !ok {
		return nil, fmt.Errorf("%w: root ref %d not found", ErrInvalidTree, rootRef)
	}

	parents := make([]int, len(b.nodes))
	for i := range parents {
		parents[i] = -1
	}

	nodes := make([]Component, len(b.nodes))
	copy(nodes, b.nodes)
	for i := range nodes {
		node := &nodes[i]
		if node.IsFile() && len(node.Children) > 0 {
			return nil, fmt.Errorf("%w: file ref %d has children", ErrInvalidTree, node.Ref)
		}
		resolved := make([]int, 0, len(node.Children))
		for _, childRef := range node.Children {
			childIdx, ok := b.byRef[childRef]
			if !ok {
				return nil, fmt.Errorf("%w: ref %d references unknown child %d", ErrInvalidTree, node.Ref, childRef)
			}
			if parents[childIdx] >= 0 {
				return nil, fmt.Errorf("%w: ref %d has more than one parent", ErrInvalidTree, childRef)
			}
			if childIdx == rootIdx {
				return nil, fmt.Errorf("%w: root ref %d cannot be a child", ErrInvalidTree, rootRef)
			}
			if b.nodes[childIdx].Type < node.Type {
				return nil, fmt.Errorf("%w: %s ref %d cannot be a child of %s ref %d",
					ErrInvalidTree, b.nodes[childIdx].Type, childRef, node.Type, node.Ref)
			}
			parents[childIdx] = i
			resolved = append(resolved, childIdx)
		}
		node.Children = resolved
	}

	// Every node must be reachable from the root; unreachable nodes are orphans or cycles.
	reached := 0
	stack := []int{rootIdx}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		stack = append(stack, nodes[idx].Children...)
	}
	if reached != len(nodes) {
		for i := range nodes {
			if i != rootIdx && parents[i] < 0 {
				return nil, fmt.Errorf("%w: ref %d is not attached to the root", ErrInvalidTree, nodes[i].Ref)
			}
		}
		return nil, fmt.Errorf("%w: components form a cycle", ErrInvalidTree)
	}

	byRef := make(map[int]int, len(b.byRef))
	for ref, idx := range b.byRef {
		byRef[ref] = idx
	}
	return &Tree{nodes: nodes, parents: parents, byRef: byRef, root: rootIdx}, nil
}

// BuildFromPayload builds the tree described by a report payload.
func BuildFromPayload(payload *schema.ReportPayload) (*Tree, error) {
	b := NewBuilder()
	for _, pc := range payload.Components {
		typ, err := ParseType(pc.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: ref %d: %v", ErrInvalidTree, pc.Ref, err)
		}
		if err := b.Add(pc.Ref, pc.Key, pc.Name, typ, pc.Children...); err != nil {
			return nil, err
		}
	}
	return b.Build(payload.RootRef)
}
