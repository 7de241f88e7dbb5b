// Package template implements `${name}` interpolation (spec.md component E):
// scoped lookup against a block.Block's ancestor chain, type-aware
// resolution of the found Value, and bounded fixed-point re-expansion.
package template

import (
	"strings"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

// maxDepth bounds fixed-point re-expansion against mutually-referential
// variables (spec.md §9 "fixed-point template expansion").
const maxDepth = 64

// Expand substitutes every `${name}` occurrence in s, resolving name against
// b's ancestor chain (falling back to prev for the reserved name "~~").
// Unresolved `${x}` is left literal. Re-expands the result until a pass makes
// no further substitution, or maxDepth passes have run.
func Expand(s string, b *block.Block, prev value.Value, lookupProp value.PropertyLookup) string {
	for i := 0; i < maxDepth; i++ {
		out, changed := expandOnce(s, b, prev, lookupProp)
		if !changed {
			return out
		}
		s = out
	}
	return s
}

func expandOnce(s string, b *block.Block, prev value.Value, lookupProp value.PropertyLookup) (string, bool) {
	var sb strings.Builder
	changed := false
	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			if end := strings.IndexByte(s[i+2:], '}'); end >= 0 {
				name := s[i+2 : i+2+end]
				if v, ok := b.PrevOrSearchUp(name, prev); ok {
					sb.WriteString(v.Resolve(lookupProp))
					changed = true
				} else {
					sb.WriteString(s[i : i+2+end+1])
				}
				i += 2 + end + 1
				continue
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String(), changed
}
