package builtin_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/builtin"
	"github.com/vernisaz/rb/internal/value"
)

type fakeProps struct{ m map[string]string }

func (f *fakeProps) Get(k string) (string, bool) { v, ok := f.m[k]; return v, ok }
func (f *fakeProps) Set(k, v string)              { f.m[k] = v }
func (f *fakeProps) All() map[string]string       { return f.m }

func newCtx(t *testing.T) (*builtin.Context, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ctx := builtin.NewContext(&fakeProps{m: map[string]string{}}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), "rb-test")
	ctx.Stdout = &out
	return ctx, &out
}

func newCall(name string, params ...string) (*block.Block, *block.Block) {
	scope := block.New(block.Scope)
	scope.SetVar("~cwd~", value.Value{Kind: value.Directory, Payload: "/tmp"})
	fn := block.New(block.FunctionCall)
	fn.Name = name
	fn.Params = params
	scope.AddChild(fn)
	return scope, fn
}

func TestDisplayPrintsOctalEscapes(t *testing.T) {
	ctx, out := newCtx(t)
	_, fn := newCall("display", `hi\040there`)
	fn2, ok := builtin.Lookup("display")
	require.True(t, ok)
	fn2(ctx, fn, value.Value{})
	assert.Equal(t, "hi there", out.String())
}

func TestAssignSetsAndUnsetsInEnclosingScope(t *testing.T) {
	ctx, _ := newCtx(t)
	scope := block.New(block.Scope)
	fn := block.New(block.FunctionCall)
	fn.Name = "assign"
	fn.Params = []string{"x", "5"}
	scope.AddChild(fn)

	assign, ok := builtin.Lookup("assign")
	require.True(t, ok)
	assign(ctx, fn, value.Value{})
	v, ok := scope.SearchUp("x")
	require.True(t, ok)
	assert.Equal(t, "5", v.Payload)

	fn.Params = []string{"x"}
	assign(ctx, fn, value.Value{})
	_, ok = scope.SearchUp("x")
	assert.False(t, ok)
}

func TestEqNeqGtLt(t *testing.T) {
	ctx, _ := newCtx(t)
	eq, _ := builtin.Lookup("eq")
	gt, _ := builtin.Lookup("gt")
	neq, _ := builtin.Lookup("neq")
	lt, _ := builtin.Lookup("lt")

	_, fn := newCall("eq", "a", "a")
	assert.True(t, eq(ctx, fn, value.Value{}).IsTrue(nil))

	_, fn2 := newCall("gt", "10", "9")
	assert.True(t, gt(ctx, fn2, value.Value{}).IsTrue(nil))

	_, fn3 := newCall("neq", "a", "b")
	assert.True(t, neq(ctx, fn3, value.Value{}).IsTrue(nil))

	_, fn4 := newCall("lt", "9", "10")
	assert.True(t, lt(ctx, fn4, value.Value{}).IsTrue(nil))
}

func TestAndOrNot(t *testing.T) {
	ctx, _ := newCtx(t)
	and, _ := builtin.Lookup("and")
	or, _ := builtin.Lookup("or")
	not, _ := builtin.Lookup("not")

	_, fnAnd := newCall("and", "true", "false")
	assert.False(t, and(ctx, fnAnd, value.Value{}).IsTrue(nil))

	_, fnOr := newCall("or", "false", "true")
	assert.True(t, or(ctx, fnOr, value.Value{}).IsTrue(nil))

	_, fnNot := newCall("not", "false")
	assert.True(t, not(ctx, fnNot, value.Value{}).IsTrue(nil))
}

func TestContains(t *testing.T) {
	ctx, _ := newCtx(t)
	contains, _ := builtin.Lookup("contains")
	_, fn := newCall("contains", "hello world", "wor")
	assert.True(t, contains(ctx, fn, value.Value{}).IsTrue(nil))
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx, _ := newCtx(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	scope := block.New(block.Scope)
	scope.SetVar("~cwd~", value.Value{Kind: value.Directory, Payload: dir})
	writeCall := block.New(block.FunctionCall)
	writeCall.Name = "write"
	writeCall.Params = []string{path, "hello", " world"}
	scope.AddChild(writeCall)

	write, _ := builtin.Lookup("write")
	write(ctx, writeCall, value.Value{})

	readCall := block.New(block.FunctionCall)
	readCall.Name = "read"
	readCall.Params = []string{path}
	scope.AddChild(readCall)
	read, _ := builtin.Lookup("read")
	res := read(ctx, readCall, value.Value{})
	assert.Equal(t, "hello world", res.Payload)
}

func TestFilenameAndCropname(t *testing.T) {
	ctx, _ := newCtx(t)
	filename, _ := builtin.Lookup("filename")
	_, fn := newCall("filename", "/a/b/report.tar.gz")
	assert.Equal(t, "report.tar", filename(ctx, fn, value.Value{}).Payload)

	cropname, _ := builtin.Lookup("cropname")
	_, fn2 := newCall("cropname", "/tmp/test_report.txt", "test_*")
	assert.Equal(t, "report.txt", cropname(ctx, fn2, value.Value{}).Payload)

	// a mask with a directory component matches against the full,
	// CWD-resolved path, not just the basename.
	_, fn3 := newCall("cropname", "/tmp/src/Main.java", "src/*.java")
	assert.Equal(t, "Main", cropname(ctx, fn3, value.Value{}).Payload)

	// a leading-`*` mask matches the suffix as-is, with no CWD join.
	_, fn4 := newCall("cropname", "/tmp/src/Main.java", "*.java")
	assert.Equal(t, "/tmp/src/Main", cropname(ctx, fn4, value.Value{}).Payload)
}

func TestArrayAndElement(t *testing.T) {
	ctx, _ := newCtx(t)
	scope := block.New(block.Scope)
	arrCall := block.New(block.FunctionCall)
	arrCall.Name = "array"
	arrCall.Params = []string{"a", "b", "c"}
	scope.AddChild(arrCall)
	arrayFn, _ := builtin.Lookup("array")
	result := arrayFn(ctx, arrCall, value.Value{})
	assert.Equal(t, []string{"a", "b", "c"}, result.Elements)

	scope.SetVar("xs", result)
	elemCall := block.New(block.FunctionCall)
	elemCall.Name = "element"
	elemCall.Params = []string{"xs", "1"}
	scope.AddChild(elemCall)
	element, _ := builtin.Lookup("element")
	assert.Equal(t, "b", element(ctx, elemCall, value.Value{}).Payload)
}

func TestCalcBuiltinSingleAndMulti(t *testing.T) {
	ctx, _ := newCtx(t)
	calc, _ := builtin.Lookup("calc")

	_, fn := newCall("calc", "1 + 2")
	res := calc(ctx, fn, value.Value{})
	assert.Equal(t, value.Number, res.Kind)
	assert.Equal(t, "3", res.Payload)

	_, fn2 := newCall("calc", "1 + 1", "2 + 2")
	res2 := calc(ctx, fn2, value.Value{})
	assert.Equal(t, value.Array, res2.Kind)
	assert.Equal(t, []string{"2", "4"}, res2.Elements)
}

func TestNumberFn(t *testing.T) {
	ctx, _ := newCtx(t)
	number, _ := builtin.Lookup("number")
	_, fn := newCall("number", "42")
	assert.Equal(t, "42", number(ctx, fn, value.Value{}).Payload)

	_, fnEmpty := newCall("number", "")
	assert.Equal(t, "0", number(ctx, fnEmpty, value.Value{}).Payload)
}

func TestCpMkdRm(t *testing.T) {
	ctx, _ := newCtx(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	dstDir := filepath.Join(dir, "out")
	scope := block.New(block.Scope)
	scope.SetVar("~cwd~", value.Value{Kind: value.Directory, Payload: dir})

	mkd, _ := builtin.Lookup("mkd")
	mkdCall := block.New(block.FunctionCall)
	mkdCall.Name = "mkd"
	mkdCall.Params = []string{dstDir}
	scope.AddChild(mkdCall)
	mkd(ctx, mkdCall, value.Value{})

	cp, _ := builtin.Lookup("cp")
	cpCall := block.New(block.FunctionCall)
	cpCall.Name = "cp"
	cpCall.Params = []string{src, dstDir}
	scope.AddChild(cpCall)
	res := cp(ctx, cpCall, value.Value{})
	require.Len(t, res.Elements, 1)
	assert.True(t, strings.HasSuffix(res.Elements[0], "src.txt"))

	rm, _ := builtin.Lookup("rm")
	rmCall := block.New(block.FunctionCall)
	rmCall.Name = "rm"
	rmCall.Params = []string{src}
	scope.AddChild(rmCall)
	rm(ctx, rmCall, value.Value{})
	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestEnvSetEnvFallsBackToOSEnv(t *testing.T) {
	ctx, _ := newCtx(t)
	t.Setenv("RB_TEST_VAR", "from-os")

	env, _ := builtin.Lookup("env")
	_, fn := newCall("env", "RB_TEST_VAR")
	assert.Equal(t, "from-os", env(ctx, fn, value.Value{}).Payload)

	setEnv, _ := builtin.Lookup("set_env")
	_, setFn := newCall("set_env", "RB_TEST_VAR", "from-prop")
	setEnv(ctx, setFn, value.Value{})
	assert.Equal(t, "from-prop", env(ctx, fn, value.Value{}).Payload)
}

func TestAskReturnsDefaultOnEmptyInput(t *testing.T) {
	ctx, _ := newCtx(t)
	ctx.Stdin = strings.NewReader("\n")
	ask, _ := builtin.Lookup("ask")
	_, fn := newCall("ask", "Name?", "anon")
	assert.Equal(t, "anon", ask(ctx, fn, value.Value{}).Payload)
}
