package builtin

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

func init() {
	Register("display", display)
	Register("now", now)
	Register("write", write)
	Register("writea", writea)
	Register("writex", writex)
	Register("read", read)
}

// octalEscape interprets C-style \0nn octal escapes and \\ in text, a
// dedicated pre-pass ahead of display's normal printing (spec.md §4.H).
func octalEscape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch {
			case s[i+1] == '\\':
				sb.WriteByte('\\')
				i++
				continue
			case s[i+1] == '0' && i+3 < len(s):
				if n, err := strconv.ParseInt(s[i+2:i+4], 8, 32); err == nil {
					sb.WriteByte(byte(n))
					i += 3
					continue
				}
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func display(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Warn("display called with no arguments")
		return prev
	}
	text := resolveText(ctx, b.Parent, b.Params[0], prev)
	if len(b.Params) > 1 {
		ctx.Log.Warn("display ignores extra arguments", "count", len(b.Params)-1)
	}
	fmt.Fprint(ctx.Stdout, octalEscape(text))
	return prev
}

// nowFormat renders t per spec.md's now() mask syntax: YY YYYY MM MMM DD hh
// mm ss W Z tokens plus a \\ escape for a literal backslash.
func nowFormat(t time.Time, mask string) string {
	months := [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	var sb strings.Builder
	i := 0
	for i < len(mask) {
		switch {
		case strings.HasPrefix(mask[i:], "\\\\"):
			sb.WriteByte('\\')
			i += 2
		case strings.HasPrefix(mask[i:], "YYYY"):
			fmt.Fprintf(&sb, "%04d", t.Year())
			i += 4
		case strings.HasPrefix(mask[i:], "YY"):
			fmt.Fprintf(&sb, "%02d", t.Year()%100)
			i += 2
		case strings.HasPrefix(mask[i:], "MMM"):
			sb.WriteString(months[t.Month()-1])
			i += 3
		case strings.HasPrefix(mask[i:], "MM"):
			fmt.Fprintf(&sb, "%02d", int(t.Month()))
			i += 2
		case strings.HasPrefix(mask[i:], "DD"):
			fmt.Fprintf(&sb, "%02d", t.Day())
			i += 2
		case strings.HasPrefix(mask[i:], "hh"):
			fmt.Fprintf(&sb, "%02d", t.Hour())
			i += 2
		case strings.HasPrefix(mask[i:], "mm"):
			fmt.Fprintf(&sb, "%02d", t.Minute())
			i += 2
		case strings.HasPrefix(mask[i:], "ss"):
			fmt.Fprintf(&sb, "%02d", t.Second())
			i += 2
		case mask[i] == 'W':
			sb.WriteString(t.Weekday().String()[:3])
			i++
		case mask[i] == 'Z':
			sb.WriteByte('Z')
			i++
		default:
			sb.WriteByte(mask[i])
			i++
		}
	}
	return sb.String()
}

func now(ctx *Context, b *block.Block, prev value.Value) value.Value {
	t := time.Now().UTC()
	if len(b.Params) == 0 {
		return value.FromString(nowFormat(t, "YYMMDDThhmmssZ"))
	}
	mask := resolveText(ctx, b.Parent, b.Params[0], prev)
	return value.FromString(nowFormat(t, mask))
}

// resolvePath prefixes a relative path with ~cwd~ unless it's already absolute.
func resolvePath(scope *block.Block, raw string) string {
	if filepath.IsAbs(raw) {
		return raw
	}
	if cwd, ok := scope.SearchUp("~cwd~"); ok {
		return filepath.Join(cwd.Payload, raw)
	}
	return raw
}

func writeFile(ctx *Context, b *block.Block, prev value.Value, flag int, mode os.FileMode) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("write requires a path argument")
		return value.Value{}
	}
	path := resolvePath(b.Parent, resolveText(ctx, b.Parent, b.Params[0], prev))
	var sb strings.Builder
	for _, raw := range b.Params[1:] {
		sb.WriteString(resolveText(ctx, b.Parent, raw, prev))
	}
	f, err := os.OpenFile(path, flag, mode)
	if err != nil {
		ctx.Log.Error("write failed", "path", path, "error", err)
		return value.Value{}
	}
	defer f.Close()
	if _, err := f.WriteString(sb.String()); err != nil {
		ctx.Log.Error("write failed", "path", path, "error", err)
		return value.Value{}
	}
	return prev
}

func write(ctx *Context, b *block.Block, prev value.Value) value.Value {
	return writeFile(ctx, b, prev, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
}

func writea(ctx *Context, b *block.Block, prev value.Value) value.Value {
	return writeFile(ctx, b, prev, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func writex(ctx *Context, b *block.Block, prev value.Value) value.Value {
	mode := os.FileMode(0o644)
	if runtime.GOOS != "windows" {
		mode = 0o700
	}
	return writeFile(ctx, b, prev, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
}

func read(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("read requires a path argument")
		return value.Value{}
	}
	path := resolvePath(b.Parent, resolveText(ctx, b.Parent, b.Params[0], prev))
	data, err := os.ReadFile(path)
	if err != nil {
		ctx.Log.Error("read failed", "path", path, "error", err)
		return value.Value{}
	}
	return value.FromString(string(data))
}
