// Package block implements the polymorphic block tree (spec.md component B):
// targets, scopes, control-flow, boolean ops, and function calls, each holding
// variables, children, and a non-owning back-reference to its parent.
package block

import "github.com/vernisaz/rb/internal/value"

// Kind classifies a Block node.
type Kind int

const (
	Main Kind = iota
	Target
	Dependency
	If
	Scope
	Eq
	FunctionCall
	Neq
	Then
	Else
	Or
	And
	Not
	For
	While
	Case
	Choice
)

func (k Kind) String() string {
	names := [...]string{
		"main", "target", "dependency", "if", "scope", "eq", "function",
		"neq", "then", "else", "or", "and", "not", "for", "while", "case", "choice",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// Block is a node in the interpreter's tree.
//
// Dir, Flex, and Out are the three auxiliary strings parsed from the header
// syntax `type name : workdir : path` (spec.md §3): Dir is the working
// directory field, Flex is the executable/separator field reused by several
// block kinds (e.g. exec's program name, for's separator), and Out is the
// capture-variable / tail field.
type Block struct {
	Kind     Kind
	Name     string
	Dir      string
	Flex     string
	Out      string
	Line     int
	Vars     map[string]value.Value
	Params   []string // raw, unexpanded parameter text for FunctionCall blocks
	Children []*Block
	Deps     []*Block
	Parent   *Block
}

// New creates a detached block of the given kind.
func New(kind Kind) *Block {
	return &Block{Kind: kind, Vars: make(map[string]value.Value)}
}

// AddChild appends b to the receiver's children and sets b's parent.
func (n *Block) AddChild(b *Block) {
	b.Parent = n
	n.Children = append(n.Children, b)
}

// AddDep appends b to the receiver's dependency list and sets b's parent.
func (n *Block) AddDep(b *Block) {
	b.Parent = n
	n.Deps = append(n.Deps, b)
}

// SetVar stores v under name in this block's own scope.
func (n *Block) SetVar(name string, v value.Value) {
	if n.Vars == nil {
		n.Vars = make(map[string]value.Value)
	}
	n.Vars[name] = v
}

// RemoveVar deletes name from this block's own scope.
func (n *Block) RemoveVar(name string) {
	delete(n.Vars, name)
}

// SearchUp performs lexical lookup: walk the parent chain until the first
// block whose own Vars contains name (spec.md invariant 4).
func (n *Block) SearchUp(name string) (value.Value, bool) {
	b := n.SearchUpBlock(name)
	if b == nil {
		return value.Value{}, false
	}
	v := b.Vars[name]
	return v, true
}

// SearchUpBlock returns the nearest ancestor (including the receiver) whose
// own Vars actually contains name, or nil.
func (n *Block) SearchUpBlock(name string) *Block {
	for b := n; b != nil; b = b.Parent {
		if _, ok := b.Vars[name]; ok {
			return b
		}
	}
	return nil
}

// GetTop walks to the root (Main) block.
func (n *Block) GetTop() *Block {
	b := n
	for b.Parent != nil {
		b = b.Parent
	}
	return b
}

// GetTarget returns the root's direct Target child named name, or nil.
func (n *Block) GetTarget(name string) *Block {
	root := n.GetTop()
	for _, c := range root.Children {
		if c.Kind == Target && c.Name == name {
			return c
		}
	}
	return nil
}

// PrevOrSearchUp implements spec.md's prev_or_search_up: the reserved name
// "~~" (PREV_VAL) always resolves to prev rather than a scope lookup.
func (n *Block) PrevOrSearchUp(name string, prev value.Value) (value.Value, bool) {
	if name == "~~" {
		return prev, true
	}
	return n.SearchUp(name)
}

// PrevVal is the reserved name referring to the most recent statement result.
const PrevVal = "~~"

// NearestAssignScope returns the nearest ancestor (including the receiver)
// that is a Scope, Target, or Main block — the scope `assign` walks up to
// when it can't find an existing binding for a name (spec.md §4.H `assign`).
func (n *Block) NearestAssignScope() *Block {
	for b := n; b != nil; b = b.Parent {
		switch b.Kind {
		case Scope, Target, Main:
			return b
		}
	}
	return n.GetTop()
}
