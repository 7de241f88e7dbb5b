// Package interp ties the lexer, parser, block tree, target driver, and
// built-in library together (spec.md's end-to-end pipeline), grounded on
// the teacher's runtime.go Execute/ExecuteWithProgram orchestration: a
// single entry point that walks a parsed tree and dispatches each node kind
// to either a control-flow handler or the built-in registry.
package interp

import (
	"log/slog"
	"strings"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/builtin"
	"github.com/vernisaz/rb/internal/target"
	"github.com/vernisaz/rb/internal/template"
	"github.com/vernisaz/rb/internal/value"
)

// Interpreter walks a parsed Block tree, executing control-flow nodes
// itself and dispatching FunctionCall nodes to the built-in registry.
type Interpreter struct {
	Root *block.Block
	Ctx  *builtin.Context
	Log  *slog.Logger
}

// New builds an Interpreter for root using ctx's built-in collaborators.
func New(root *block.Block, ctx *builtin.Context) *Interpreter {
	log := ctx.Log
	if log == nil {
		log = slog.Default()
	}
	return &Interpreter{Root: root, Ctx: ctx, Log: log}
}

// Run executes the Main block's body (skipping Target children, per
// spec.md §4's Main semantics — include is already hoisted at parse time,
// so no runtime skip is needed for it), then runs the named targets (or
// the first Target if names is empty).
func (in *Interpreter) Run(names []string) error {
	in.execMainBody(in.Root, value.Value{})
	driver := target.New(in.Root, in, in.Log)
	return driver.RunTargets(names)
}

// execMainBody runs Main's children in order, skipping Target kind nodes
// (spec.md §4's Main: "as Scope, but skips Target children").
func (in *Interpreter) execMainBody(root *block.Block, prev value.Value) value.Value {
	for _, c := range root.Children {
		if c.Kind == block.Target {
			continue
		}
		prev = in.execNode(c, prev)
	}
	return prev
}

// ExecBlock implements target.Runner: run b's children in source order,
// threading prev_result through them (spec.md §5's ordering guarantee).
func (in *Interpreter) ExecBlock(b *block.Block, prev value.Value) value.Value {
	for _, c := range b.Children {
		prev = in.execNode(c, prev)
	}
	return prev
}

// ExecFunction implements target.Runner: evaluate a single FunctionCall
// block outside the normal child-execution sequence (used by dependency
// evaluation).
func (in *Interpreter) ExecFunction(fn *block.Block, prev value.Value) value.Value {
	return in.execNode(fn, prev)
}

// execNode dispatches a single tree node to its control-flow handler or to
// the built-in registry (spec.md §4.H "Control-flow blocks").
func (in *Interpreter) execNode(b *block.Block, prev value.Value) value.Value {
	switch b.Kind {
	case block.Scope, block.Then, block.Else, block.Choice:
		return in.ExecBlock(b, prev)
	case block.Main:
		return in.execMainBody(b, prev)
	case block.If:
		return in.execIf(b, prev)
	case block.For:
		return in.execFor(b, prev)
	case block.While:
		return in.execWhile(b, prev)
	case block.Case:
		return in.execCase(b, prev)
	case block.Or:
		return in.execOr(b, prev)
	case block.And:
		return in.execAnd(b, prev)
	case block.Not:
		return in.execNot(b, prev)
	case block.Eq:
		return value.FromBool(in.execEq(b, prev, false))
	case block.Neq:
		return value.FromBool(in.execEq(b, prev, true))
	case block.FunctionCall:
		return in.execFunctionCall(b, prev)
	case block.Target, block.Dependency:
		// Never reached directly: Target children are driven by
		// internal/target, and Dependency nodes only ever execute
		// through evalDep's own dispatch.
		in.Log.Warn("unexpected direct execution of node", "kind", b.Kind.String())
		return prev
	default:
		in.Log.Warn("unhandled node kind", "kind", b.Kind.String())
		return prev
	}
}

// execFunctionCall runs a Function block's built-in and, for the
// `name = fn(...)` assignment-capture sugar (spec.md scenario 4), binds the
// result into the enclosing scope under b.Out. exec/aexec are excluded:
// exec binds its own trimmed stdout capture under that name, and aexec
// does not read or bind b.Out at all.
func (in *Interpreter) execFunctionCall(b *block.Block, prev value.Value) value.Value {
	fn, ok := builtin.Lookup(b.Name)
	if !ok {
		in.Log.Error("unknown built-in function", "name", b.Name, "line", b.Line)
		return prev
	}
	result := fn(in.Ctx, b, prev)
	if b.Out != "" && b.Name != "exec" && b.Name != "aexec" {
		b.Parent.SetVar(b.Out, result)
	}
	return result
}

// execIf implements spec.md §4.H If: child[0] is the condition, the first
// Then child after it runs if truthy, else the Else child (if present).
// More than 3 children is an error.
func (in *Interpreter) execIf(b *block.Block, prev value.Value) value.Value {
	if len(b.Children) == 0 || len(b.Children) > 3 {
		in.Log.Error("if: expected 1-3 children (condition, then, else)", "count", len(b.Children), "line", b.Line)
		return prev
	}
	cond := in.execNode(b.Children[0], prev)
	truthy := cond.IsTrue(in.Ctx.LookupProp)

	var thenBlock, elseBlock *block.Block
	for _, c := range b.Children[1:] {
		switch c.Kind {
		case block.Then:
			if thenBlock == nil {
				thenBlock = c
			}
		case block.Else:
			elseBlock = c
		}
	}
	if truthy {
		if thenBlock != nil {
			return in.ExecBlock(thenBlock, prev)
		}
		return prev
	}
	if elseBlock != nil {
		return in.ExecBlock(elseBlock, prev)
	}
	return prev
}

// execFor implements spec.md §4.H For: header Name is the loop variable,
// Dir is the range expression, Flex is the separator.
func (in *Interpreter) execFor(b *block.Block, prev value.Value) value.Value {
	rangeVal := in.resolveHeaderField(b, b.Dir, prev)

	var elements []string
	if rangeVal.Kind == value.Array {
		elements = rangeVal.Elements
	} else {
		sep := b.Flex
		if sep == "" {
			sep = ","
		}
		elements = strings.Split(rangeVal.Resolve(in.Ctx.LookupProp), sep)
	}

	for i, e := range elements {
		b.SetVar(b.Name, value.FromString(e))
		b.SetVar("~index~", value.FromInt(i))
		prev = in.ExecBlock(b, prev)
	}
	return prev
}

// execWhile implements spec.md §4.H While: loop while search_up(name).is_true().
func (in *Interpreter) execWhile(b *block.Block, prev value.Value) value.Value {
	for {
		v, ok := b.SearchUp(b.Name)
		if !ok || !v.IsTrue(in.Ctx.LookupProp) {
			return prev
		}
		prev = in.ExecBlock(b, prev)
	}
}

// execCase implements spec.md §4.H Case: header Name is the scrutinee
// variable; each Choice child's Name is a `|`-separated set of labels.
func (in *Interpreter) execCase(b *block.Block, prev value.Value) value.Value {
	scrutinee, _ := b.SearchUp(b.Name)
	want := scrutinee.Resolve(in.Ctx.LookupProp)

	chosen := false
	for _, c := range b.Children {
		if c.Kind == block.Else {
			if !chosen {
				return in.ExecBlock(c, prev)
			}
			return prev
		}
		if c.Kind != block.Choice {
			continue
		}
		matched := false
		for _, label := range strings.Split(c.Name, "|") {
			if strings.TrimSpace(label) == want {
				matched = true
				break
			}
		}
		if matched {
			prev = in.ExecBlock(c, prev)
			chosen = true
			break
		}
	}
	return prev
}

func (in *Interpreter) execOr(b *block.Block, prev value.Value) value.Value {
	for _, c := range b.Children {
		if in.execNode(c, prev).IsTrue(in.Ctx.LookupProp) {
			return value.FromBool(true)
		}
	}
	return value.FromBool(false)
}

func (in *Interpreter) execAnd(b *block.Block, prev value.Value) value.Value {
	for _, c := range b.Children {
		if !in.execNode(c, prev).IsTrue(in.Ctx.LookupProp) {
			return value.FromBool(false)
		}
	}
	return value.FromBool(true)
}

func (in *Interpreter) execNot(b *block.Block, prev value.Value) value.Value {
	if len(b.Children) == 0 {
		in.Log.Error("not: expected one child", "line", b.Line)
		return value.Value{}
	}
	return value.FromBool(!in.execNode(b.Children[0], prev).IsTrue(in.Ctx.LookupProp))
}

// execEq implements spec.md §4.H Eq/Neq: compare children[0]'s result
// against each subsequent child by payload; both-absent is equal,
// one-absent is unequal.
func (in *Interpreter) execEq(b *block.Block, prev value.Value, negate bool) bool {
	if len(b.Children) == 0 {
		return !negate
	}
	first := in.execNode(b.Children[0], prev)
	equal := true
	for _, c := range b.Children[1:] {
		other := in.execNode(c, prev)
		if (first.Payload == "") != (other.Payload == "") {
			equal = false
			break
		}
		if first.Payload != other.Payload {
			equal = false
			break
		}
	}
	if negate {
		return !equal
	}
	return equal
}

func (in *Interpreter) resolveHeaderField(b *block.Block, raw string, prev value.Value) value.Value {
	if v, ok := b.PrevOrSearchUp(raw, prev); ok {
		return v
	}
	return value.FromString(template.Expand(raw, b, prev, in.Ctx.LookupProp))
}

