// Package hierarchy infers parent/child structure from a flat, ordered
// sequence of row levels.
package hierarchy

// Tree is the structure implied by a level sequence. Index i refers to the
// i-th level passed to Build.
type Tree struct {
	levels   []int
	parent   []int
	end      []int
	children [][]int
	roots    []int
}

type frame struct {
	level int
	index int
}

// Build scans levels once, keeping a stack of open rows. Entries at the
// current level or deeper are closed before the row is pushed; the
// remaining top is its parent.
func Build(levels []int) *Tree {
	n := len(levels)
	t := &Tree{
		levels:   append([]int(nil), levels...),
		parent:   make([]int, n),
		end:      make([]int, n),
		children: make([][]int, n),
	}

	var stack []frame
	for i, lvl := range levels {
		for len(stack) > 0 && stack[len(stack)-1].level >= lvl {
			t.end[stack[len(stack)-1].index] = i
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			t.parent[i] = -1
			t.roots = append(t.roots, i)
		} else {
			p := stack[len(stack)-1].index
			t.parent[i] = p
			t.children[p] = append(t.children[p], i)
		}
		stack = append(stack, frame{level: lvl, index: i})
	}
	for _, f := range stack {
		t.end[f.index] = n
	}
	return t
}

// Len returns the number of rows.
func (t *Tree) Len() int {
	return len(t.levels)
}

// Level returns the level of row i.
func (t *Tree) Level(i int) int {
	return t.levels[i]
}

// Parent returns the parent index of row i, or -1 for a root.
func (t *Tree) Parent(i int) int {
	return t.parent[i]
}

// Range returns the half-open descendant range [i+1, end) of row i.
// Every row in it is deeper than row i.
func (t *Tree) Range(i int) (start, end int) {
	return i + 1, t.end[i]
}

// Children returns the rows whose parent is i, in order.
func (t *Tree) Children(i int) []int {
	return t.children[i]
}

// DirectChildren returns the children exactly one level below row i.
// Children further down (a skipped level) are left out.
func (t *Tree) DirectChildren(i int) []int {
	var out []int
	for _, c := range t.children[i] {
		if t.levels[c] == t.levels[i]+1 {
			out = append(out, c)
		}
	}
	return out
}

// Roots returns the rows with no parent.
func (t *Tree) Roots() []int {
	return t.roots
}

// Node is a row with its subtree, for presentation.
type Node struct {
	Index    int
	Level    int
	Children []*Node
}

// Forest returns the nested form of the tree.
func (t *Tree) Forest() []*Node {
	out := make([]*Node, 0, len(t.roots))
	for _, r := range t.roots {
		out = append(out, t.node(r))
	}
	return out
}

func (t *Tree) node(i int) *Node {
	n := &Node{Index: i, Level: t.levels[i]}
	for _, c := range t.children[i] {
		n.Children = append(n.Children, t.node(c))
	}
	return n
}

// Walk visits every node depth first in source order.
func Walk(nodes []*Node, fn func(n *Node, depth int)) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, n := range nodes {
		visit(n, 0)
	}
}
