package automaton

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTimbuk = `Ops a:1 b:1 x:0
(* a two state
   automaton *)
Automaton A
States q0 q1:0
Final States q1
Transitions
x -> q0
a(q0) -> q1 (* loop back on b *)
b(q1) -> q0
`

func TestStripComments(t *testing.T) {
	assert.Equal(t, "a  b", StripComments("a (* x *) b"))
	assert.Equal(t, "a\n c", StripComments("a\n(* multi\nline *) c"))
	assert.Equal(t, "a ", StripComments("a (* unterminated"))
}

func TestReadTimbuk(t *testing.T) {
	al := NewAlphabet()
	tb, err := ReadTimbuk(strings.NewReader(sampleTimbuk), al)
	require.NoError(t, err)

	assert.Equal(t, "A", tb.Name)
	assert.Equal(t, []string{"q0", "q1"}, tb.StateNames)
	assert.Equal(t, 2, al.Len())
	a := tb.Automaton
	assert.Equal(t, []int{0}, a.StartStates())
	assert.Equal(t, []int{1}, a.AcceptStates())
	assert.True(t, Run(a, symbols(al, "aba")))
	assert.False(t, Run(a, symbols(al, "ab")))
}

func TestReadTimbuk_Errors(t *testing.T) {
	for name, input := range map[string]string{
		"arity":       "Ops f:2\n",
		"no arrow":    "Transitions\na(q0) q1\n",
		"no dest":     "Transitions\na(q0) -> \n",
		"no source":   "Ops a:1\nTransitions\na -> q1\n",
		"unknown key": "Alphabet a b\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadTimbuk(strings.NewReader(input), NewAlphabet())
			assert.True(t, errors.Is(err, ErrSyntax), "got %v", err)
		})
	}
}

func TestWriteTimbuk(t *testing.T) {
	al := NewAlphabet()
	tb, err := ReadTimbuk(strings.NewReader(sampleTimbuk), al)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTimbuk(&buf, "B", tb.Automaton, al, tb.StateNames))
	out := buf.String()
	assert.Contains(t, out, "Ops a:1 b:1 x:0")
	assert.Contains(t, out, "Final States q1")
	assert.Contains(t, out, "x -> q0")

	again, err := ReadTimbuk(strings.NewReader(out), al)
	require.NoError(t, err)
	assert.Equal(t, "B", again.Name)
	for _, w := range []string{"a", "aba", "ab", ""} {
		assert.Equal(t, Run(tb.Automaton, symbols(al, w)), Run(again.Automaton, symbols(al, w)), w)
	}
}
