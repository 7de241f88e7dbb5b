package block_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/value"
)

func TestAddChildSetsParent(t *testing.T) {
	root := block.New(block.Main)
	child := block.New(block.Scope)
	root.AddChild(child)
	assert.Same(t, root, child.Parent)
	require.Len(t, root.Children, 1)
	assert.Empty(t, root.Deps)
}

func TestAddDepSetsParentAndDoesNotAppearAmongChildren(t *testing.T) {
	root := block.New(block.Main)
	tgt := block.New(block.Target)
	root.AddChild(tgt)
	dep := block.New(block.Dependency)
	tgt.AddDep(dep)
	assert.Same(t, tgt, dep.Parent)
	require.Len(t, tgt.Deps, 1)
	assert.Empty(t, tgt.Children)
}

func TestSearchUpWalksParentChain(t *testing.T) {
	root := block.New(block.Main)
	root.SetVar("x", value.FromString("root-x"))
	mid := block.New(block.Scope)
	root.AddChild(mid)
	leaf := block.New(block.Scope)
	mid.AddChild(leaf)

	v, ok := leaf.SearchUp("x")
	require.True(t, ok)
	assert.Equal(t, "root-x", v.Payload)

	_, ok = leaf.SearchUp("missing")
	assert.False(t, ok)
}

func TestSearchUpStopsAtNearestShadow(t *testing.T) {
	root := block.New(block.Main)
	root.SetVar("x", value.FromString("outer"))
	inner := block.New(block.Scope)
	inner.SetVar("x", value.FromString("inner"))
	root.AddChild(inner)

	v, ok := inner.SearchUp("x")
	require.True(t, ok)
	assert.Equal(t, "inner", v.Payload)
}

func TestRemoveVarOnlyAffectsOwnScope(t *testing.T) {
	root := block.New(block.Main)
	root.SetVar("x", value.FromString("outer"))
	inner := block.New(block.Scope)
	root.AddChild(inner)

	inner.RemoveVar("x")
	v, ok := inner.SearchUp("x")
	require.True(t, ok)
	assert.Equal(t, "outer", v.Payload)
}

func TestGetTopAndGetTarget(t *testing.T) {
	root := block.New(block.Main)
	tgt := block.New(block.Target)
	tgt.Name = "build"
	root.AddChild(tgt)
	scope := block.New(block.Scope)
	tgt.AddChild(scope)

	assert.Same(t, root, scope.GetTop())
	assert.Same(t, tgt, scope.GetTarget("build"))
	assert.Nil(t, scope.GetTarget("missing"))
}

func TestPrevOrSearchUpResolvesPrevVal(t *testing.T) {
	root := block.New(block.Main)
	prev := value.FromString("previous-result")
	v, ok := root.PrevOrSearchUp(block.PrevVal, prev)
	require.True(t, ok)
	assert.Equal(t, "previous-result", v.Payload)
}

func TestNearestAssignScopeSkipsControlFlowBlocks(t *testing.T) {
	root := block.New(block.Main)
	tgt := block.New(block.Target)
	root.AddChild(tgt)
	ifBlock := block.New(block.If)
	tgt.AddChild(ifBlock)
	then := block.New(block.Then)
	ifBlock.AddChild(then)

	assert.Same(t, tgt, then.NearestAssignScope())
}
