package builtin

import (
	"bytes"
	"os"
	"os/exec"
	"strings"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/template"
	"github.com/vernisaz/rb/internal/value"
)

func init() {
	Register("exec", execFn)
	Register("aexec", aexecFn)
}

// resolveExecDir implements spec.md §4.H exec's working-directory rule: the
// block's own `dir` header field, resolved and prefixed with the inherited
// ~cwd~ if relative; otherwise the inherited ~cwd~ itself.
func resolveExecDir(b *block.Block) string {
	if b.Dir != "" {
		dir := b.Dir
		if v, ok := b.Parent.SearchUp(b.Dir); ok {
			dir = v.Payload
		}
		return resolvePath(b.Parent, dir)
	}
	if cwd, ok := b.Parent.SearchUp("~cwd~"); ok {
		return cwd.Payload
	}
	return ""
}

func resolveExecProgram(ctx *Context, b *block.Block, prev value.Value) string {
	name := b.Flex
	if v, ok := b.Parent.SearchUp(name); ok {
		return v.Resolve(ctx.lookupProp)
	}
	return template.Expand(name, b.Parent, prev, ctx.lookupProp)
}

func buildExecEnv(ctx *Context) []string {
	env := os.Environ()
	if ctx.Props != nil {
		for k, v := range ctx.Props.All() {
			env = append(env, k+"="+v)
		}
	}
	return env
}

func runExec(ctx *Context, b *block.Block, prev value.Value, detached bool) value.Value {
	program := resolveExecProgram(ctx, b, prev)
	args := resolveTexts(ctx, b.Parent, b.Params, prev)
	dir := resolveExecDir(b)

	if v, ok := b.Parent.SearchUp("~dry-run~"); ok && v.IsTrue(ctx.lookupProp) {
		ctx.Log.Info("dry-run: would execute", "program", program, "args", strings.Join(args, " "), "dir", dir)
		return value.FromInt(0)
	}

	cmd := exec.Command(program, args...)
	cmd.Dir = dir
	cmd.Env = buildExecEnv(ctx)

	if detached {
		cmd.Stdin = nil
		if err := cmd.Start(); err != nil {
			ctx.Log.Error("aexec failed to spawn", "program", program, "error", err)
			return value.Value{}
		}
		return value.FromInt(cmd.Process.Pid)
	}

	if b.Out != "" {
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		out := strings.TrimRight(stdout.String(), " \t\r\n")
		b.Parent.SetVar(b.Out, value.FromString(out))
		exitCode := exitCodeOf(cmd, err)
		if exitCode != 0 {
			ctx.Log.Error("exec exited non-zero", "program", program, "code", exitCode, "stderr", stderr.String())
		}
		return value.FromInt(exitCode)
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	exitCode := exitCodeOf(cmd, err)
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			ctx.Log.Error("exec failed to run", "program", program, "error", err)
		}
	}
	return value.FromInt(exitCode)
}

func exitCodeOf(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func execFn(ctx *Context, b *block.Block, prev value.Value) value.Value {
	return runExec(ctx, b, prev, false)
}

func aexecFn(ctx *Context, b *block.Block, prev value.Value) value.Value {
	return runExec(ctx, b, prev, true)
}
