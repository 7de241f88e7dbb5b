package builtin

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

func init() {
	Register("env", env)
	Register("set_env", setEnv)
	Register("cfg", cfg)
	Register("ask", ask)
	Register("prompt", ask)
	Register("panic", panicFn)
}

// env implements spec.md §4.H env: the process-wide property table, falling
// back to the OS environment when the property is unset.
func env(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("env requires a name argument")
		return value.Value{}
	}
	name := resolveText(ctx, b.Parent, b.Params[0], prev)
	if ctx.Props != nil {
		if v, ok := ctx.Props.Get(name); ok {
			return value.FromString(v)
		}
	}
	if v, ok := os.LookupEnv(name); ok {
		return value.FromString(v)
	}
	return value.Value{}
}

func setEnv(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) < 2 {
		ctx.Log.Error("set_env requires a name and a value")
		return value.Value{}
	}
	name := resolveText(ctx, b.Parent, b.Params[0], prev)
	val := resolveText(ctx, b.Parent, b.Params[1], prev)
	if ctx.Props != nil {
		ctx.Props.Set(name, val)
	}
	return value.FromString(val)
}

// cfg returns the OS-specific config directory (spec.md §4.H).
func cfg(ctx *Context, b *block.Block, prev value.Value) value.Value {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return value.Value{Kind: value.Directory, Payload: home + "/Library/Application Support"}
	case "windows":
		return value.Value{Kind: value.Directory, Payload: os.Getenv("LOCALAPPDATA")}
	default:
		return value.Value{Kind: value.Directory, Payload: home + "/.config"}
	}
}

func ask(ctx *Context, b *block.Block, prev value.Value) value.Value {
	if len(b.Params) == 0 {
		ctx.Log.Error("ask requires a prompt argument")
		return value.Value{}
	}
	prompt := resolveText(ctx, b.Parent, b.Params[0], prev)
	fmt.Fprint(ctx.Stdout, prompt)

	reader := bufio.NewReader(ctx.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")

	if line == "" && len(b.Params) > 1 {
		return value.FromString(resolveText(ctx, b.Parent, b.Params[1], prev))
	}
	return value.FromString(line)
}

func panicFn(ctx *Context, b *block.Block, prev value.Value) value.Value {
	msg := "panic"
	if len(b.Params) > 0 {
		msg = resolveText(ctx, b.Parent, b.Params[0], prev)
	}
	ctx.Log.Error("panic", "message", msg)
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
	return value.Value{}
}
