package builtin

import (
	"strconv"
	"strings"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

func init() {
	Register("array", arrayFn)
	Register("element", element)
	Register("range", rangeFn)
	Register("slice", rangeFn)
}

// arrayFn implements spec.md §4.H array: flatten params, splicing an Array
// variable's elements in place, skipping empty params (warning for >1).
func arrayFn(ctx *Context, b *block.Block, prev value.Value) value.Value {
	var out []string
	empties := 0
	for _, raw := range b.Params {
		if strings.TrimSpace(raw) == "" {
			empties++
			continue
		}
		v := resolveParam(ctx, b.Parent, raw, prev)
		if v.Kind == value.Array {
			out = append(out, v.Elements...)
			continue
		}
		out = append(out, v.Resolve(ctx.lookupProp))
	}
	if empties > 1 {
		ctx.Log.Warn("array: multiple empty arguments skipped", "count", empties)
	}
	return value.FromSlice(out)
}

// element implements spec.md §4.H element: get or (with a third argument)
// set by integer index on an Array-typed ancestor variable.
func element(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) < 2 {
		ctx.Log.Error("element requires an array name and an index")
		return value.Value{}
	}
	name := b.Params[0]
	owner := b.Parent.SearchUpBlock(name)
	if owner == nil {
		ctx.Log.Error("element: unknown array variable", "name", name)
		return value.Value{}
	}
	arr := owner.Vars[name]
	if arr.Kind != value.Array {
		ctx.Log.Error("element: variable is not an Array", "name", name)
		return value.Value{}
	}
	idxText := resolveText(ctx, b.Parent, b.Params[1], prev)
	idx, err := strconv.Atoi(strings.TrimSpace(idxText))
	if err != nil || idx < 0 || idx >= len(arr.Elements) {
		ctx.Log.Error("element: index out of range", "name", name, "index", idxText)
		return value.Value{}
	}

	if len(b.Params) == 2 {
		return value.FromString(arr.Elements[idx])
	}

	prior := arr.Elements[idx]
	newVal := resolveText(ctx, b.Parent, b.Params[2], prev)
	arr.Elements[idx] = newVal
	arr.Payload = strings.Join(arr.Elements, "\t")
	owner.Vars[name] = arr
	return value.FromString(prior)
}

// rangeFn implements spec.md §4.H range/slice: a substring of a string
// value, or a sub-slice of an Array value.
func rangeFn(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) < 2 {
		ctx.Log.Error("range/slice requires a value and a start index")
		return value.Value{}
	}
	v := resolveParam(ctx, b.Parent, b.Params[0], prev)
	startText := resolveText(ctx, b.Parent, b.Params[1], prev)
	start, err := strconv.Atoi(strings.TrimSpace(startText))
	if err != nil {
		ctx.Log.Error("range/slice: unparseable start index", "text", startText)
		return value.Value{}
	}

	if v.Kind == value.Array {
		end := len(v.Elements)
		if len(b.Params) > 2 {
			if e, err := strconv.Atoi(strings.TrimSpace(resolveText(ctx, b.Parent, b.Params[2], prev))); err == nil {
				end = e
			}
		}
		start, end = clampRange(start, end, len(v.Elements))
		return value.FromSlice(append([]string(nil), v.Elements[start:end]...))
	}

	text := v.Resolve(ctx.lookupProp)
	end := len(text)
	if len(b.Params) > 2 {
		if e, err := strconv.Atoi(strings.TrimSpace(resolveText(ctx, b.Parent, b.Params[2], prev))); err == nil {
			end = e
		}
	}
	start, end = clampRange(start, end, len(text))
	return value.FromString(text[start:end])
}

func clampRange(start, end, length int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start > end {
		start = end
	}
	return start, end
}
