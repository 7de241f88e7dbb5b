package builtin

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

func init() {
	Register("scalar", scalarJoin)
	Register("join", scalarJoin)
	Register("filename", filename)
	Register("cropname", cropname)
	Register("number", numberFn)
}

// scalarJoin implements spec.md §4.H scalar/join: join an Array variable's
// elements with sep (default "\t"), recursively resolving each element as a
// variable name when possible.
func scalarJoin(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("scalar/join requires a variable name")
		return value.Value{}
	}
	v, ok := b.Parent.SearchUp(b.Params[0])
	if !ok || v.Kind != value.Array {
		ctx.Log.Error("scalar/join requires an Array variable", "name", b.Params[0])
		return value.Value{}
	}
	sep := "\t"
	if len(b.Params) > 1 {
		sep = resolveText(ctx, b.Parent, b.Params[1], prev)
	}
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		if resolved, ok := b.Parent.SearchUp(e); ok {
			parts[i] = resolved.Resolve(ctx.lookupProp)
		} else {
			parts[i] = e
		}
	}
	return value.FromString(strings.Join(parts, sep))
}

// filename returns path's basename without its final extension.
func filename(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("filename requires a path argument")
		return value.Value{}
	}
	path := resolveText(ctx, b.Parent, b.Params[0], prev)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return value.FromString(strings.TrimSuffix(base, ext))
}

// cropname implements spec.md §4.H cropname: a prefix/suffix/prefix+suffix
// wildcard mask over the CWD-resolved full path (not just its basename), with
// an optional `subst` pattern containing one `*` that interpolates the
// unmatched middle. Matching original_source/src/fun.rs's "cropname" arm, a
// relative mask prefix (everything before the `*`) is itself CWD-resolved
// before matching; a leading-`*` (suffix-only) mask is matched as-is, with no
// CWD join.
func cropname(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) < 2 {
		ctx.Log.Error("cropname requires path and mask arguments")
		return value.Value{}
	}
	rawPath := resolveText(ctx, b.Parent, b.Params[0], prev)
	mask := resolveText(ctx, b.Parent, b.Params[1], prev)
	path := resolvePath(b.Parent, rawPath)

	prefix, suffix, hasStar := splitWildcard(mask)
	if !hasStar {
		resolvedMask := resolveMaskPrefix(b.Parent, mask)
		if path == resolvedMask {
			return value.FromString("")
		}
		return value.FromString(path)
	}

	if prefix != "" {
		prefix = resolveMaskPrefix(b.Parent, prefix)
	}
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return value.FromString(path)
	}
	middle := path[len(prefix) : len(path)-len(suffix)]

	if len(b.Params) > 2 {
		subst := resolveText(ctx, b.Parent, b.Params[2], prev)
		if strings.Contains(subst, "*") {
			return value.FromString(strings.Replace(subst, "*", middle, 1))
		}
		return value.FromString(subst)
	}
	return value.FromString(middle)
}

// resolveMaskPrefix CWD-prefixes a relative cropname mask segment by plain
// string concatenation (not filepath.Join, which would clean away a
// significant trailing separator), matching original_source/src/fun.rs's
// `cwd.value + MAIN_SEPARATOR_STR + mask`.
func resolveMaskPrefix(scope *block.Block, segment string) string {
	if filepath.IsAbs(segment) {
		return segment
	}
	if cwd, ok := scope.SearchUp("~cwd~"); ok {
		return cwd.Payload + string(filepath.Separator) + segment
	}
	return segment
}

func numberFn(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("number requires an argument")
		return value.Value{}
	}
	text := strings.TrimSpace(resolveText(ctx, b.Parent, b.Params[0], prev))
	if text == "" {
		return value.FromInt(0)
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		ctx.Log.Warn("number: unparseable value", "text", text)
		return value.Value{}
	}
	return value.FromInt(n)
}
