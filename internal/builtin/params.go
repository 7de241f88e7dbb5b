package builtin

import (
	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/template"
	"github.com/vernisaz/rb/internal/value"
)

// resolveParam implements prev_or_search_up (spec.md §4.H): if raw names a
// bound variable, its type-resolved Value is used verbatim; otherwise raw is
// template-expanded and returned as a Generic string value.
func resolveParam(ctx *Context, scope *block.Block, raw string, prev value.Value) value.Value {
	if v, ok := scope.PrevOrSearchUp(raw, prev); ok {
		return v
	}
	return value.FromString(template.Expand(raw, scope, prev, ctx.lookupProp))
}

// resolveText is resolveParam followed by Resolve, the common case for
// built-ins that just want a plain string.
func resolveText(ctx *Context, scope *block.Block, raw string, prev value.Value) string {
	return resolveParam(ctx, scope, raw, prev).Resolve(ctx.lookupProp)
}

// resolveParams resolves every raw param in order.
func resolveParams(ctx *Context, scope *block.Block, raws []string, prev value.Value) []value.Value {
	out := make([]value.Value, len(raws))
	for i, raw := range raws {
		out[i] = resolveParam(ctx, scope, raw, prev)
	}
	return out
}

// resolveTexts is resolveParams followed by Resolve on each element,
// splatting Array-typed params into their elements (spec.md's "Array params
// are splatted" rule); exec is its only caller.
func resolveTexts(ctx *Context, scope *block.Block, raws []string, prev value.Value) []string {
	var out []string
	for _, raw := range raws {
		v := resolveParam(ctx, scope, raw, prev)
		if v.Kind == value.Array {
			out = append(out, v.Elements...)
			continue
		}
		out = append(out, v.Resolve(ctx.lookupProp))
	}
	return out
}

// assignScope returns the nearest ancestor block (including scope itself)
// that is a Scope, Target, or Main, matching spec.md §4.H's `assign` rule
// for where a new binding lands when none already exists.
func assignScope(scope *block.Block) *block.Block {
	for b := scope; b != nil; b = b.Parent {
		switch b.Kind {
		case block.Scope, block.Target, block.Main:
			return b
		}
	}
	return scope
}
