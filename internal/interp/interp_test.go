package interp_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/builtin"
	"github.com/vernisaz/rb/internal/interp"
	"github.com/vernisaz/rb/internal/value"
)

type fakeProps struct{ m map[string]string }

func (f *fakeProps) Get(k string) (string, bool) { v, ok := f.m[k]; return v, ok }
func (f *fakeProps) Set(k, v string)              { f.m[k] = v }
func (f *fakeProps) All() map[string]string       { return f.m }

func newInterp(t *testing.T) (*interp.Interpreter, *block.Block, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ctx := builtin.NewContext(&fakeProps{m: map[string]string{}}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), "rb-test")
	ctx.Stdout = &out
	root := block.New(block.Main)
	root.SetVar("~cwd~", value.Value{Kind: value.Directory, Payload: t.TempDir()})
	return interp.New(root, ctx), root, &out
}

func display(text string) *block.Block {
	fn := block.New(block.FunctionCall)
	fn.Name = "display"
	fn.Params = []string{text}
	return fn
}

// noopTarget is a dependency-less Target: Run requires the script to declare
// at least one, and with no dependencies it never executes.
func noopTarget() *block.Block {
	tgt := block.New(block.Target)
	tgt.Name = "noop"
	return tgt
}

func TestRunSkipsTargetChildrenInMainBody(t *testing.T) {
	in, root, out := newInterp(t)
	root.AddChild(display("main-ran;"))

	tgt := block.New(block.Target)
	tgt.Name = "build"
	dep := block.New(block.Dependency)
	tgt.AddDep(dep)
	tgt.AddChild(display("target-ran;"))
	root.AddChild(tgt)

	err := in.Run([]string{"build"})
	require.NoError(t, err)
	assert.Equal(t, "main-ran;target-ran;", out.String())
}

func TestIfExecutesThenOnTruthyCondition(t *testing.T) {
	in, root, out := newInterp(t)

	ifBlock := block.New(block.If)
	cond := block.New(block.FunctionCall)
	cond.Name = "eq"
	cond.Params = []string{"a", "a"}
	ifBlock.AddChild(cond)

	then := block.New(block.Then)
	then.AddChild(display("yes;"))
	ifBlock.AddChild(then)

	els := block.New(block.Else)
	els.AddChild(display("no;"))
	ifBlock.AddChild(els)

	root.AddChild(ifBlock)
	root.AddChild(noopTarget())
	require.NoError(t, in.Run(nil))
	assert.Equal(t, "yes;", out.String())
}

func TestForIteratesArrayAndSetsIndex(t *testing.T) {
	in, root, out := newInterp(t)

	forBlock := block.New(block.For)
	forBlock.Name = "x"
	forBlock.Dir = "xs"
	root.SetVar("xs", value.FromSlice([]string{"a", "b", "c"}))
	forBlock.AddChild(display("${x}-${~index~};"))
	root.AddChild(forBlock)
	root.AddChild(noopTarget())

	require.NoError(t, in.Run(nil))
	assert.Equal(t, "a-0;b-1;c-2;", out.String())
}

func TestWhileLoopsUntilFalse(t *testing.T) {
	in, root, out := newInterp(t)
	root.SetVar("cond", value.FromBool(true))

	whileBlock := block.New(block.While)
	whileBlock.Name = "cond"
	setFalse := block.New(block.FunctionCall)
	setFalse.Name = "assign"
	setFalse.Params = []string{"cond", "false"}
	whileBlock.AddChild(setFalse)
	whileBlock.AddChild(display("tick;"))
	root.AddChild(whileBlock)
	root.AddChild(noopTarget())

	require.NoError(t, in.Run(nil))
	assert.Equal(t, "tick;", out.String())
}

func TestCaseSelectsMatchingChoice(t *testing.T) {
	in, root, out := newInterp(t)
	root.SetVar("fruit", value.FromString("pear"))

	caseBlock := block.New(block.Case)
	caseBlock.Name = "fruit"
	apple := block.New(block.Choice)
	apple.Name = "apple"
	apple.AddChild(display("apple;"))
	caseBlock.AddChild(apple)

	pear := block.New(block.Choice)
	pear.Name = "pear|pears"
	pear.AddChild(display("pear;"))
	caseBlock.AddChild(pear)

	root.AddChild(caseBlock)
	root.AddChild(noopTarget())
	require.NoError(t, in.Run(nil))
	assert.Equal(t, "pear;", out.String())
}

func TestNoTargetsReturnsError(t *testing.T) {
	in, _, _ := newInterp(t)
	err := in.Run(nil)
	assert.Error(t, err)
}
