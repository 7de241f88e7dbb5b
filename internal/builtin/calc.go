package builtin

import (
	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/calc"
	"github.com/vernisaz/rb/internal/value"
)

func init() {
	Register("calc", calcFn)
}

// calcFn wires internal/calc into the built-in library: a single expression
// returns a Number, more than one returns an Array of Numbers (spec.md
// §4.H, confirmed against original_source/src/fun.rs's "calc" match arm).
func calcFn(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("calc requires at least one expression")
		return value.Value{}
	}
	lookup := func(name string) (string, bool) {
		v, ok := b.Parent.SearchUp(name)
		if !ok {
			return "", false
		}
		return v.Resolve(ctx.lookupProp), true
	}

	results := make([]string, 0, len(b.Params))
	for _, raw := range b.Params {
		expr := resolveText(ctx, b.Parent, raw, prev)
		n, err := calc.Eval(expr, lookup)
		if err != nil {
			ctx.Log.Error("calc evaluation failed", "expr", expr, "error", err)
			return value.Value{}
		}
		results = append(results, value.FromFloat(n).Payload)
	}
	if len(results) == 1 {
		return value.Value{Kind: value.Number, Payload: results[0]}
	}
	return value.FromSlice(results)
}
