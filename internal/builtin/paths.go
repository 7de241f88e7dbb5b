package builtin

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

func init() {
	Register("absolute", absolute)
	Register("canonicalize", canonicalize)
	Register("timestamp", timestamp)
	Register("newerthan", newerthan)
	Register("anynewer", anynewer)
	Register("files", files)
	Register("filter", filterFn)
	Register("file_filter", filterFn)
	Register("as_url", asURL)
	Register("as_jar", asJar)
}

func absolute(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("absolute requires a path argument")
		return value.Value{}
	}
	p := resolveText(ctx, b.Parent, b.Params[0], prev)
	return value.Value{Kind: value.Path, Payload: resolvePath(b.Parent, p)}
}

func canonicalize(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("canonicalize requires a path argument")
		return value.Value{}
	}
	p := resolvePath(b.Parent, resolveText(ctx, b.Parent, b.Params[0], prev))
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		ctx.Log.Warn("canonicalize: could not resolve symlinks", "path", p, "error", err)
		resolved = p
	}
	return value.Value{Kind: value.Path, Payload: resolved}
}

func timestamp(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("timestamp requires a path argument")
		return value.Value{}
	}
	p := resolvePath(b.Parent, resolveText(ctx, b.Parent, b.Params[0], prev))
	info, err := os.Stat(p)
	if err != nil {
		return value.Value{}
	}
	return value.FromString(nowFormat(info.ModTime().UTC(), "YYMMDDThhmmssZ"))
}

// newerthan implements spec.md §4.H: for each file under dir1 ending with
// ext1, compare against dir2's sibling at the same relative path with ext2,
// emitting dir1's file if newer (or if the sibling is missing). One
// argument emits all matching files unconditionally.
func newerthan(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("newerthan requires at least one argument")
		return value.Value{}
	}
	spec1 := resolveText(ctx, b.Parent, b.Params[0], prev)
	dir1, ext1 := splitDirExt(spec1)

	var matches []string
	filepath.WalkDir(dir1, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ext1) {
			matches = append(matches, path)
		}
		return nil
	})

	if len(b.Params) == 1 {
		return value.FromSlice(matches)
	}

	spec2 := resolveText(ctx, b.Parent, b.Params[1], prev)
	dir2, ext2 := splitDirExt(spec2)

	var out []string
	for _, f := range matches {
		rel, err := filepath.Rel(dir1, f)
		if err != nil {
			continue
		}
		sibling := filepath.Join(dir2, strings.TrimSuffix(rel, ext1)+ext2)
		srcInfo, err := os.Stat(f)
		if err != nil {
			continue
		}
		dstInfo, err := os.Stat(sibling)
		if err != nil || srcInfo.ModTime().After(dstInfo.ModTime()) {
			out = append(out, f)
		}
	}
	return value.FromSlice(out)
}

// splitDirExt splits a "dir1/.ext1"-shaped argument into its directory and
// the extension suffix to match files against.
func splitDirExt(spec string) (dir, ext string) {
	idx := strings.LastIndexByte(spec, '/')
	if idx < 0 {
		return ".", spec
	}
	return spec[:idx], spec[idx+1:]
}

func anynewer(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) < 2 {
		ctx.Log.Error("anynewer requires two mask arguments")
		return value.Value{}
	}
	mask1 := resolveText(ctx, b.Parent, b.Params[0], prev)
	mask2 := resolveText(ctx, b.Parent, b.Params[1], prev)
	t1, ok1 := newestMTime(mask1)
	t2, ok2 := newestMTime(mask2)
	if !ok1 {
		return value.FromBool(false)
	}
	if !ok2 {
		return value.FromBool(true)
	}
	return value.FromBool(t1.After(t2))
}

func files(ctx *Context, b *block.Block, prev value.Value) value.Value {
	var out []string
	for _, raw := range b.Params {
		pattern := resolveText(ctx, b.Parent, raw, prev)
		dir, leaf, recurse := splitPatternDirLeaf(pattern)
		matches, err := walkMatching(dir, leaf, recurse)
		if err != nil {
			ctx.Log.Warn("files: could not walk directory", "dir", dir, "error", err)
			continue
		}
		out = append(out, matches...)
	}
	return value.FromSlice(out)
}

// asURL implements spec.md §4.H as_url: builds a download URL for a
// repository coordinate. A RepoRust-typed `name@version` becomes a
// crates.io download link; a RepoMaven (or plain `group:artifact:version`)
// coordinate becomes a Maven Central jar URL.
func asURL(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("as_url requires a repository coordinate argument")
		return value.Value{}
	}
	param, ok := b.Parent.PrevOrSearchUp(b.Params[0], prev)
	if !ok {
		ctx.Log.Error("as_url: no such variable", "name", b.Params[0])
		return value.Value{}
	}
	switch param.Kind {
	case value.RepoRust:
		if at := strings.IndexByte(param.Payload, '@'); at >= 0 {
			name, ver := param.Payload[:at], param.Payload[at+1:]
			return value.Value{Kind: value.URL, Payload: "https://crates.io/api/v1/crates/" + name + "/" + ver + "/download"}
		}
	case value.RepoMaven, value.Generic:
		parts := strings.Split(param.Payload, ":")
		if len(parts) != 3 {
			ctx.Log.Error("as_url: expected group:artifact:version", "value", param.Payload)
			return value.Value{}
		}
		group, artifact, ver := strings.ReplaceAll(parts[0], ".", "/"), parts[1], parts[2]
		return value.Value{Kind: value.URL, Payload: "https://repo1.maven.org/maven2/" + group + "/" + artifact + "/" + ver + "/" + artifact + "-" + ver + ".jar"}
	}
	return value.Value{}
}

// asJar implements spec.md §4.H as_jar: the filename (not the full URL) a
// Maven coordinate's jar would be published under.
func asJar(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("as_jar requires a repository coordinate argument")
		return value.Value{}
	}
	param, ok := b.Parent.PrevOrSearchUp(b.Params[0], prev)
	if !ok {
		ctx.Log.Error("as_jar: no such variable", "name", b.Params[0])
		return value.Value{}
	}
	switch param.Kind {
	case value.RepoMaven, value.Generic:
		parts := strings.Split(param.Payload, ":")
		if len(parts) != 3 {
			ctx.Log.Error("as_jar: expected group:artifact:version", "value", param.Payload)
			return value.Value{}
		}
		return value.FromString(parts[1] + "-" + parts[2] + ".jar")
	}
	return value.Value{}
}

func filterFn(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("filter requires an Array variable name")
		return value.Value{}
	}
	v, ok := b.Parent.SearchUp(b.Params[0])
	if !ok || v.Kind != value.Array {
		ctx.Log.Error("filter requires an Array variable", "name", b.Params[0])
		return value.Value{}
	}
	masks := make([]string, 0, len(b.Params)-1)
	for _, raw := range b.Params[1:] {
		masks = append(masks, resolveText(ctx, b.Parent, raw, prev))
	}
	var out []string
	for _, e := range v.Elements {
		base := filepath.Base(e)
		excluded := false
		for _, m := range masks {
			if matchLeaf(m, base) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, e)
		}
	}
	return value.FromSlice(out)
}
