package skeletal

import (
	"fmt"

	"github.com/Faultbox/skinview/pkg/formats"
	"github.com/Faultbox/skinview/pkg/math"
)

// Node is one element of the bind-pose hierarchy. Nodes are never mutated
// after BuildHierarchy returns.
type Node struct {
	name     string
	local    math.Mat4
	children []*Node
}

// BuildHierarchy copies an imported node tree depth-first, preserving child
// order and converting each local matrix to the engine layout.
func BuildHierarchy(root *formats.Node) (*Node, error) {
	if root == nil {
		return nil, ErrNoRootNode
	}
	return copyNode(root, 0)
}

func copyNode(src *formats.Node, depth int) (*Node, error) {
	if depth > MaxHierarchyDepth {
		return nil, fmt.Errorf("node %q at depth %d: %w", src.Name, depth, ErrHierarchyTooDeep)
	}

	n := &Node{
		name:  src.Name,
		local: math.FromColumnMajor64(src.Matrix),
	}
	if len(src.Children) > 0 {
		n.children = make([]*Node, 0, len(src.Children))
	}
	for _, c := range src.Children {
		if c == nil {
			continue
		}
		child, err := copyNode(c, depth+1)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Local returns the bind-pose local transform.
func (n *Node) Local() math.Mat4 { return n.local }

// NumChildren returns the number of direct children.
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the i-th child.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Walk visits the subtree depth-first in child order. Returning false from
// fn skips that node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.children {
		c.walk(fn, depth+1)
	}
}

// Find returns the first node named name, or nil.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.name == name {
			found = node
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the subtree.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}
