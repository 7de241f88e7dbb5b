package builtin

import (
	"io"
	"os"
	"path/filepath"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

func init() {
	Register("cp", cp)
	Register("mv", mv)
	Register("mkd", mkd)
	Register("rm", rm)
	Register("rmdir", rmdir)
	Register("rmdira", rmdira)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// resolvedDst implements spec.md §4.H cp/mv's "if dst is an existing
// directory, append basename(src)" rule.
func resolvedDst(src, dst string) string {
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		return filepath.Join(dst, filepath.Base(src))
	}
	return dst
}

// pairedPaths resolves params pairwise into (src, dst) absolute paths.
func pairedPaths(ctx *Context, b *block.Block, prev value.Value) [][2]string {
	var pairs [][2]string
	for i := 0; i+1 < len(b.Params); i += 2 {
		src := resolvePath(b.Parent, resolveText(ctx, b.Parent, b.Params[i], prev))
		dst := resolvePath(b.Parent, resolveText(ctx, b.Parent, b.Params[i+1], prev))
		pairs = append(pairs, [2]string{src, resolvedDst(src, dst)})
	}
	return pairs
}

func cp(ctx *Context, b *block.Block, prev value.Value) value.Value {
	var out []string
	for _, pair := range pairedPaths(ctx, b, prev) {
		if err := copyFile(pair[0], pair[1]); err != nil {
			ctx.Log.Error("cp failed", "src", pair[0], "dst", pair[1], "error", err)
			continue
		}
		out = append(out, pair[1])
	}
	return value.FromSlice(out)
}

func mv(ctx *Context, b *block.Block, prev value.Value) value.Value {
	var out []string
	for _, pair := range pairedPaths(ctx, b, prev) {
		if err := os.Rename(pair[0], pair[1]); err != nil {
			ctx.Log.Error("mv failed", "src", pair[0], "dst", pair[1], "error", err)
			continue
		}
		out = append(out, pair[1])
	}
	return value.FromSlice(out)
}

func mkd(ctx *Context, b *block.Block, prev value.Value) value.Value {
	var out []string
	for _, raw := range b.Params {
		path := resolvePath(b.Parent, resolveText(ctx, b.Parent, raw, prev))
		if err := os.MkdirAll(path, 0o755); err != nil {
			ctx.Log.Error("mkd failed", "path", path, "error", err)
			continue
		}
		out = append(out, path)
	}
	return value.FromSlice(out)
}

func rm(ctx *Context, b *block.Block, prev value.Value) value.Value {
	var out []string
	for _, raw := range b.Params {
		path := resolvePath(b.Parent, resolveText(ctx, b.Parent, raw, prev))
		if err := os.Remove(path); err != nil {
			ctx.Log.Error("rm failed", "path", path, "error", err)
			continue
		}
		out = append(out, path)
	}
	return value.FromSlice(out)
}

func rmdir(ctx *Context, b *block.Block, prev value.Value) value.Value {
	var out []string
	for _, raw := range b.Params {
		path := resolvePath(b.Parent, resolveText(ctx, b.Parent, raw, prev))
		if err := os.Remove(path); err != nil {
			ctx.Log.Error("rmdir failed (not empty or missing)", "path", path, "error", err)
			continue
		}
		out = append(out, path)
	}
	return value.FromSlice(out)
}

func rmdira(ctx *Context, b *block.Block, prev value.Value) value.Value {
	var out []string
	for _, raw := range b.Params {
		path := resolvePath(b.Parent, resolveText(ctx, b.Parent, raw, prev))
		if err := os.RemoveAll(path); err != nil {
			ctx.Log.Error("rmdira failed", "path", path, "error", err)
			continue
		}
		out = append(out, path)
	}
	return value.FromSlice(out)
}
