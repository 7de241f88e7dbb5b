package builtin

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// matchLeaf reports whether basename name matches a restricted single-`*`
// leaf pattern (spec.md §13): at most one `*`, matched via doublestar
// against the basename only, never across path separators. A pattern with
// no `*` must match exactly.
func matchLeaf(pattern, name string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == name
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// splitWildcard splits a pattern with at most one '*' into its surrounding
// literal prefix/suffix, grounded on original_source/src/fun.rs's repeated
// chars.nth(0)=='*'/chars.last()=='*' splitting (spec.md §13).
func splitWildcard(pattern string) (prefix, suffix string, hasStar bool) {
	idx := strings.IndexByte(pattern, '*')
	if idx < 0 {
		return pattern, "", false
	}
	return pattern[:idx], pattern[idx+1:], true
}

// walkMatching recursively (recurse=true) or immediate-children-only
// (recurse=false) lists every regular file in dir whose basename matches
// leafPattern.
func walkMatching(dir, leafPattern string, recurse bool) ([]string, error) {
	var out []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if recurse {
				sub, err := walkMatching(full, leafPattern, recurse)
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
			}
			continue
		}
		if matchLeaf(leafPattern, e.Name()) {
			out = append(out, full)
		}
	}
	return out, nil
}

// splitPatternDirLeaf splits a pattern like "build/*.class" or "src/" into
// the directory to walk and the leaf pattern to match, and whether the
// pattern names a recursive directory walk (a trailing path separator).
func splitPatternDirLeaf(pattern string) (dir, leaf string, recurse bool) {
	if strings.HasSuffix(pattern, string(filepath.Separator)) || strings.HasSuffix(pattern, "/") {
		return strings.TrimRight(pattern, "/"+string(filepath.Separator)), "*", true
	}
	dir = filepath.Dir(pattern)
	leaf = filepath.Base(pattern)
	return dir, leaf, false
}

// newestMTime returns the latest modification time among files matching
// mask (spec.md §4.H anynewer's `newest` helper). Unlike files()'s
// splitPatternDirLeaf-gated walk, this always recurses into subdirectories
// regardless of how the mask is written (original_source/src/fun.rs's
// `newest` recurses into every directory entry unconditionally).
func newestMTime(mask string) (time.Time, bool) {
	dir := filepath.Dir(mask)
	leaf := filepath.Base(mask)
	files, err := walkMatching(dir, leaf, true)
	if err != nil || len(files) == 0 {
		return time.Time{}, false
	}
	var newest time.Time
	found := false
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if !found || info.ModTime().After(newest) {
			newest = info.ModTime()
			found = true
		}
	}
	return newest, found
}
