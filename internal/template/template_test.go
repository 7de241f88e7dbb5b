package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vernisaz/rb/internal/block"
	"github.com/vernisaz/rb/internal/template"
	"github.com/vernisaz/rb/internal/value"
)

func TestExpandSubstitutesKnownVariable(t *testing.T) {
	root := block.New(block.Main)
	root.SetVar("name", value.FromString("world"))
	got := template.Expand("hello ${name}", root, value.Value{}, nil)
	assert.Equal(t, "hello world", got)
}

func TestExpandLeavesUnknownVariableLiteral(t *testing.T) {
	root := block.New(block.Main)
	got := template.Expand("hello ${missing}", root, value.Value{}, nil)
	assert.Equal(t, "hello ${missing}", got)
}

func TestExpandResolvesPrevVal(t *testing.T) {
	root := block.New(block.Main)
	got := template.Expand("prev=${~~}", root, value.FromString("7"), nil)
	assert.Equal(t, "prev=7", got)
}

func TestExpandReExpandsUntilStable(t *testing.T) {
	root := block.New(block.Main)
	root.SetVar("a", value.FromString("${b}"))
	root.SetVar("b", value.FromString("final"))
	got := template.Expand("${a}", root, value.Value{}, nil)
	assert.Equal(t, "final", got)
}

func TestExpandPropertyLookup(t *testing.T) {
	root := block.New(block.Main)
	root.SetVar("p", value.Value{Kind: value.Property, Payload: "release.version"})
	lookup := func(name string) (string, bool) {
		if name == "release.version" {
			return "1.2.3", true
		}
		return "", false
	}
	got := template.Expand("v${p}", root, value.Value{}, lookup)
	assert.Equal(t, "v1.2.3", got)
}
