package automaton

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegExp_ToAutomaton(t *testing.T) {
	tests := []struct {
		expr    string
		accepts []string
		rejects []string
	}{
		{expr: "abc", accepts: []string{"abc"}, rejects: []string{"", "ab", "abcc"}},
		{expr: "a|bc", accepts: []string{"a", "bc"}, rejects: []string{"abc", "b"}},
		{expr: "(ab)*c", accepts: []string{"c", "abc", "ababc"}, rejects: []string{"ab", "abac"}},
		{expr: "a+b?", accepts: []string{"a", "aab", "aaa"}, rejects: []string{"", "b", "abb"}},
		{expr: "a{2,3}", accepts: []string{"aa", "aaa"}, rejects: []string{"a", "aaaa"}},
		{expr: "a{2,}", accepts: []string{"aa", "aaaaa"}, rejects: []string{"a"}},
		{expr: "a{2}", accepts: []string{"aa"}, rejects: []string{"a", "aaa"}},
		{expr: "[a-c]x", accepts: []string{"ax", "bx", "cx"}, rejects: []string{"x", "dx"}},
		{expr: "\"a|b\"", accepts: []string{"a|b"}, rejects: []string{"a", "b"}},
		{expr: "()", accepts: []string{""}, rejects: []string{"a"}},
		{expr: "#", rejects: []string{"", "a"}},
		{expr: "\\*a", accepts: []string{"*a"}, rejects: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			al := NewAlphabet()
			re, err := NewRegExp(tt.expr, al)
			require.NoError(t, err)
			a, err := re.ToAutomaton(0)
			require.NoError(t, err)
			for _, w := range tt.accepts {
				assert.True(t, Run(a, symbols(al, w)), "should accept %q", w)
			}
			for _, w := range tt.rejects {
				assert.False(t, Run(a, symbols(al, w)), "should reject %q", w)
			}
		})
	}
}

func TestRegExp_SharedAlphabet(t *testing.T) {
	al := NewAlphabet()
	re1, err := NewRegExp("a.", al)
	require.NoError(t, err)
	re2, err := NewRegExp("[^a]@&~(bb)", al)
	require.NoError(t, err)

	// "." and "@" cover symbols interned by either expression.
	a1, err := re1.ToAutomaton(0)
	require.NoError(t, err)
	assert.True(t, Run(a1, symbols(al, "ab")))
	assert.True(t, Run(a1, symbols(al, "aa")))

	a2, err := re2.ToAutomaton(0)
	require.NoError(t, err)
	assert.True(t, Run(a2, symbols(al, "b")))
	assert.True(t, Run(a2, symbols(al, "bab")))
	assert.False(t, Run(a2, symbols(al, "bb")))
	assert.False(t, Run(a2, symbols(al, "ab")))
}

func TestRegExp_NamedSymbols(t *testing.T) {
	al := NewAlphabet()
	re, err := NewRegExp("<open>x*<close>", al)
	require.NoError(t, err)
	a, err := re.ToAutomaton(0)
	require.NoError(t, err)

	open, _ := al.Lookup("open")
	closing, _ := al.Lookup("close")
	x, _ := al.Lookup("x")
	assert.True(t, Run(a, []int{open, x, x, closing}))
	assert.False(t, Run(a, []int{open, x}))
	assert.Equal(t, "<open>(x)*<close>", re.String())
}

func TestRegExp_SyntaxErrors(t *testing.T) {
	for _, expr := range []string{"(a", "a{", "a{2", "[ab", "<name", "a)", "\\", "[c-a]"} {
		t.Run(expr, func(t *testing.T) {
			_, err := NewRegExp(expr, NewAlphabet())
			assert.True(t, errors.Is(err, ErrSyntax), "got %v", err)
		})
	}

	// Without INTERSECTION, '&' is an ordinary symbol.
	al := NewAlphabet()
	re, err := NewRegExp("a&b", al, WithSyntaxFlags(NONE))
	require.NoError(t, err)
	a, err := re.ToAutomaton(0)
	require.NoError(t, err)
	assert.True(t, Run(a, symbols(al, "a&b")))

	_, err = NewRegExp("a", NewAlphabet(), WithSyntaxFlags(0x1ff))
	assert.Error(t, err)
}
