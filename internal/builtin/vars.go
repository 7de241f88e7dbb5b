package builtin

import (
	"strconv"
	"strings"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/template"
	"github.com/vernisaz/rb/internal/value"
)

func init() {
	Register("assign", assign)
	Register("eq", eq)
	Register("neq", neq)
	Register("gt", gt)
	Register("lt", lt)
	Register("not", not)
	Register("and", and)
	Register("or", or)
	Register("contains", contains)
	Register("find", contains)
}

func assign(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("assign requires a variable name")
		return value.Value{}
	}
	name := template.Expand(b.Params[0], b.Parent, prev, ctx.lookupProp)

	if len(b.Params) == 1 {
		target := b.Parent.SearchUpBlock(name)
		if target == nil {
			target = assignScope(b.Parent)
		}
		target.RemoveVar(name)
		return prev
	}

	raw := b.Params[1]
	var v value.Value
	if existing, ok := b.Parent.SearchUp(raw); ok {
		v = existing
	} else {
		v = value.FromString(template.Expand(raw, b.Parent, prev, ctx.lookupProp))
	}

	target := b.Parent.SearchUpBlock(name)
	if target == nil {
		target = assignScope(b.Parent)
	}
	target.SetVar(name, v)
	return v
}

func eq(ctx *Context, b *block.Block, prev value.Value) value.Value {
	return value.FromBool(compareEq(ctx, b, prev))
}

func neq(ctx *Context, b *block.Block, prev value.Value) value.Value {
	return value.FromBool(!compareEq(ctx, b, prev))
}

func compareEq(ctx *Context, b *block.Block, prev value.Value) bool {
	if len(b.Params) < 2 {
		ctx.Log.Error("eq/neq require two arguments")
		return false
	}
	a := resolveText(ctx, b.Parent, b.Params[0], prev)
	c := resolveText(ctx, b.Parent, b.Params[1], prev)
	return a == c
}

func gt(ctx *Context, b *block.Block, prev value.Value) value.Value {
	return compare(ctx, b, prev, func(a, c float64) bool { return a > c }, func(a, c string) bool { return a > c })
}

func lt(ctx *Context, b *block.Block, prev value.Value) value.Value {
	return compare(ctx, b, prev, func(a, c float64) bool { return a < c }, func(a, c string) bool { return a < c })
}

func compare(ctx *Context, b *block.Block, prev value.Value, numCmp func(a, c float64) bool, lexCmp func(a, c string) bool) value.Value {
	if len(b.Params) < 2 {
		ctx.Log.Error("gt/lt require two arguments")
		return value.Value{}
	}
	a := resolveText(ctx, b.Parent, b.Params[0], prev)
	c := resolveText(ctx, b.Parent, b.Params[1], prev)
	an, aerr := strconv.ParseFloat(strings.TrimSpace(a), 64)
	cn, cerr := strconv.ParseFloat(strings.TrimSpace(c), 64)
	if aerr == nil && cerr == nil {
		return value.FromBool(numCmp(an, cn))
	}
	return value.FromBool(lexCmp(a, c))
}

func not(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("not requires one argument")
		return value.Value{}
	}
	v := resolveParam(ctx, b.Parent, b.Params[0], prev)
	return value.FromBool(!v.IsTrue(ctx.lookupProp))
}

func and(ctx *Context, b *block.Block, prev value.Value) value.Value {
	for _, raw := range b.Params {
		v := resolveParam(ctx, b.Parent, raw, prev)
		if !v.IsTrue(ctx.lookupProp) {
			return value.FromBool(false)
		}
	}
	return value.FromBool(true)
}

func or(ctx *Context, b *block.Block, prev value.Value) value.Value {
	for _, raw := range b.Params {
		v := resolveParam(ctx, b.Parent, raw, prev)
		if v.IsTrue(ctx.lookupProp) {
			return value.FromBool(true)
		}
	}
	return value.FromBool(false)
}

func contains(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) < 2 {
		ctx.Log.Error("contains/find require two arguments")
		return value.Value{}
	}
	hay := resolveText(ctx, b.Parent, b.Params[0], prev)
	needle := resolveText(ctx, b.Parent, b.Params[1], prev)
	return value.FromBool(strings.Contains(hay, needle))
}
