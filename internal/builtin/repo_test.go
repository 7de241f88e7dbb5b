package builtin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vernisaz/rb/internal/builtin"
	"github.com/vernisaz/rb/internal/value"
)

func TestAsURLMavenCoordinate(t *testing.T) {
	ctx, _ := newCtx(t)
	scope, fn := newCall("as_url", "coord")
	scope.SetVar("coord", value.Value{Kind: value.RepoMaven, Payload: "com.baomidou:mybatis-plus-boot-starter:3.5.3.1"})
	f, ok := builtin.Lookup("as_url")
	require.True(t, ok)
	got := f(ctx, fn, value.Value{})
	assert.Equal(t, value.URL, got.Kind)
	assert.Equal(t, "https://repo1.maven.org/maven2/com/baomidou/mybatis-plus-boot-starter/3.5.3.1/mybatis-plus-boot-starter-3.5.3.1.jar", got.Payload)
}

func TestAsURLRustCoordinate(t *testing.T) {
	ctx, _ := newCtx(t)
	scope, fn := newCall("as_url", "coord")
	scope.SetVar("coord", value.Value{Kind: value.RepoRust, Payload: "serde@1.0.0"})
	f, ok := builtin.Lookup("as_url")
	require.True(t, ok)
	got := f(ctx, fn, value.Value{})
	assert.Equal(t, "https://crates.io/api/v1/crates/serde/1.0.0/download", got.Payload)
}

func TestAsJarMavenCoordinate(t *testing.T) {
	ctx, _ := newCtx(t)
	scope, fn := newCall("as_jar", "coord")
	scope.SetVar("coord", value.Value{Kind: value.RepoMaven, Payload: "com.baomidou:mybatis-plus-boot-starter:3.5.3.1"})
	f, ok := builtin.Lookup("as_jar")
	require.True(t, ok)
	got := f(ctx, fn, value.Value{})
	assert.Equal(t, "mybatis-plus-boot-starter-3.5.3.1.jar", got.Payload)
}

func TestPromptIsAnAliasForAsk(t *testing.T) {
	askFn, ok := builtin.Lookup("ask")
	require.True(t, ok)
	promptFn, ok := builtin.Lookup("prompt")
	require.True(t, ok)
	assert.NotNil(t, askFn)
	assert.NotNil(t, promptFn)
}
