package calc_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vernisaz/rb/internal/calc"
)

func TestArithmeticPrecedence(t *testing.T) {
	res, err := calc.Eval("(2 + 3) * 4", nil)
	require.NoError(t, err)
	assert.Equal(t, 20.0, res)
}

func TestArithmeticCorrectnessProperty(t *testing.T) {
	// spec.md §8 invariant 5: calc("a + b*c - d/1") == a + b*c - d for integers b,d != 0
	cases := []struct{ a, b, c, d int }{
		{1, 2, 3, 4}, {-5, 6, -2, 8}, {0, 1, 1, 1}, {10, -3, 4, 2},
	}
	for _, tc := range cases {
		expr := fmt.Sprintf("%d + %d*%d - %d/1", tc.a, tc.b, tc.c, tc.d)
		res, err := calc.Eval(expr, nil)
		require.NoError(t, err, expr)
		want := float64(tc.a + tc.b*tc.c - tc.d)
		assert.InDelta(t, want, res, 1e-9, expr)
	}
}

func TestVariableLookup(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "x" {
			return "2", true
		}
		return "", false
	}
	res, err := calc.Eval("x + 3", lookup)
	require.NoError(t, err)
	assert.Equal(t, 5.0, res)
}

func TestUndefinedVariable(t *testing.T) {
	_, err := calc.Eval("y + 1", func(string) (string, bool) { return "", false })
	require.Error(t, err)
	ce, ok := err.(*calc.Error)
	require.True(t, ok)
	assert.Equal(t, calc.NVar, ce.Kind)
}

func TestDivideByZero(t *testing.T) {
	_, err := calc.Eval("4 / 0", nil)
	require.Error(t, err)
	ce, ok := err.(*calc.Error)
	require.True(t, ok)
	assert.Equal(t, calc.DZero, ce.Kind)
}

func TestUnbalancedParen(t *testing.T) {
	_, err := calc.Eval("(1 + 2", nil)
	require.Error(t, err)
	ce, ok := err.(*calc.Error)
	require.True(t, ok)
	assert.Equal(t, calc.CntPar, ce.Kind)
}

func TestUnaryMinus(t *testing.T) {
	res, err := calc.Eval("-5 + 2", nil)
	require.NoError(t, err)
	assert.Equal(t, -3.0, res)
}
