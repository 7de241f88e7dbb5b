package builtin

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

func init() {
	Register("zip", zipFn)
}

// zipFn implements spec.md §4.H zip: a variable op-stream of -A/-E/-C/-B
// entries written to an archive builder (stdlib archive/zip fills the
// "opaque archive builder" role; no pack example depends on a third-party
// zip library). Grounded on original_source/src/fun.rs's "zip" match arm
// and its new_with_comment/prohibit_duplicates behavior (SPEC_FULL.md §12):
// the archive carries a fixed comment and silently-warning duplicate-entry
// rejection rather than overwrite-on-collision.
func zipFn(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("zip requires a path argument")
		return value.Value{}
	}
	path := resolvePath(b.Parent, resolveText(ctx, b.Parent, b.Params[0], prev))
	if filepath.Ext(path) == "" {
		path += ".zip"
	}

	f, err := os.Create(path)
	if err != nil {
		ctx.Log.Error("zip: could not create archive", "path", path, "error", err)
		return value.Value{}
	}
	defer f.Close()

	w := zip.NewWriter(f)
	w.SetComment("Zipped by " + ctx.Version)
	defer w.Close()

	seen := make(map[string]bool)
	add := func(name string, executable bool, content func(io.Writer) error) {
		if seen[name] {
			ctx.Log.Warn("zip: duplicate entry skipped", "name", name)
			return
		}
		seen[name] = true
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if executable {
			hdr.SetMode(0o755)
		} else {
			hdr.SetMode(0o644)
		}
		entry, err := w.CreateHeader(hdr)
		if err != nil {
			ctx.Log.Error("zip: could not create entry", "name", name, "error", err)
			return
		}
		if err := content(entry); err != nil {
			ctx.Log.Error("zip: could not write entry", "name", name, "error", err)
		}
	}

	addFile := func(entryName, fsPath string, executable bool) {
		data, err := os.ReadFile(fsPath)
		if err != nil {
			ctx.Log.Error("zip: could not read file", "path", fsPath, "error", err)
			return
		}
		add(entryName, executable, func(out io.Writer) error {
			_, err := out.Write(data)
			return err
		})
	}

	args := b.Params[1:]
	for i := 0; i < len(args); i++ {
		op := resolveText(ctx, b.Parent, args[i], prev)
		switch op {
		case "-A":
			if i+2 >= len(args) {
				ctx.Log.Error("zip: -A requires an entry name and content")
				continue
			}
			name := resolveText(ctx, b.Parent, args[i+1], prev)
			content := resolveText(ctx, b.Parent, args[i+2], prev)
			add(name, false, func(out io.Writer) error { _, err := io.WriteString(out, content); return err })
			i += 2
		case "-E":
			if i+2 >= len(args) {
				ctx.Log.Error("zip: -E requires an entry name and content")
				continue
			}
			name := resolveText(ctx, b.Parent, args[i+1], prev)
			content := resolveText(ctx, b.Parent, args[i+2], prev)
			add(name, true, func(out io.Writer) error { _, err := io.WriteString(out, content); return err })
			i += 2
		case "-C":
			if i+1 >= len(args) {
				ctx.Log.Error("zip: -C requires a filesystem path")
				continue
			}
			fsPath := resolveText(ctx, b.Parent, args[i+1], prev)
			zipCopy(ctx, fsPath, addFile)
			i++
		case "-B":
			if i+1 >= len(args) {
				ctx.Log.Error("zip: -B requires a variable or glob")
				continue
			}
			raw := args[i+1]
			zipBatch(ctx, b, prev, raw, addFile)
			i++
		default:
			ctx.Log.Warn("zip: unrecognized op, ignored", "op", op)
		}
	}

	return value.FromString(path)
}

// zipCopy implements the -C op's §13 wildcard path resolution: a leaf
// containing a single '*' is matched against the immediate entries of the
// leaf's parent directory (subdirectories are not searched), adding every
// matching file; a path with no wildcard copies the file (or recursively, a
// directory) as-is.
func zipCopy(ctx *Context, fsPath string, addFile func(entryName, fsPath string, executable bool)) {
	if strings.Contains(filepath.Base(fsPath), "*") {
		dir, leaf, _ := splitPatternDirLeaf(fsPath)
		matches, err := walkMatching(dir, leaf, false)
		if err != nil {
			ctx.Log.Error("zip: -C could not walk directory", "dir", dir, "error", err)
			return
		}
		for _, m := range matches {
			addFile(filepath.Base(m), m, false)
		}
		return
	}

	info, err := os.Stat(fsPath)
	if err != nil {
		ctx.Log.Error("zip: -C path not found", "path", fsPath, "error", err)
		return
	}
	if !info.IsDir() {
		addFile(filepath.Base(fsPath), fsPath, false)
		return
	}
	filepath.WalkDir(fsPath, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filepath.Dir(fsPath), p)
		if err != nil {
			return nil
		}
		addFile(rel, p, false)
		return nil
	})
}

// zipBatch implements the -B op: add every file named by an Array
// variable, or every file matching a glob pattern.
func zipBatch(ctx *Context, b *block.Block, prev value.Value, raw string, addFile func(entryName, fsPath string, executable bool)) {
	if v, ok := b.Parent.SearchUp(raw); ok && v.Kind == value.Array {
		for _, e := range v.Elements {
			addFile(filepath.Base(e), e, false)
		}
		return
	}
	pattern := resolveText(ctx, b.Parent, raw, prev)
	dir, leaf, recurse := splitPatternDirLeaf(pattern)
	matches, err := walkMatching(dir, leaf, recurse)
	if err != nil {
		ctx.Log.Error("zip: -B could not walk directory", "dir", dir, "error", err)
		return
	}
	for _, m := range matches {
		addFile(filepath.Base(m), m, false)
	}
}
