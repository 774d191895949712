package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedTree(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out, Options{})

	complete, quit := s.Feed("var x = 5;")
	assert.False(t, quit)
	assert.Equal(t, "var x = 5;", complete)
	assert.Equal(t, "Program\n└─ Var x\n   └─ init: Literal 5\n", out.String())
}

func TestFeedMultiLine(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out, Options{})

	complete, _ := s.Feed("if (true) {")
	assert.Empty(t, complete)
	assert.True(t, s.Pending())
	assert.Equal(t, CONTINUATION_PROMPT, s.Prompt())
	assert.Empty(t, out.String())

	complete, _ = s.Feed("  print(1);")
	assert.Empty(t, complete)

	complete, _ = s.Feed("}")
	assert.Equal(t, "if (true) {\n  print(1);\n}", complete)
	assert.False(t, s.Pending())
	assert.True(t, strings.HasPrefix(out.String(), "Program\n└─ If\n"))
}

func TestFeedErrors(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out, Options{})

	s.Feed("var = 1;")
	assert.Equal(t, "Syntax error: line 1, column 5\n  Expect variable name.\n", out.String())
}

func TestCommands(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out, Options{})

	s.Feed(":tokens")
	assert.Equal(t, PROMPT_TOKENS, s.Prompt())
	out.Reset()
	s.Feed("x;")
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "IDENTIFIER")
	assert.Contains(t, lines[2], "EOF")

	s.Feed(":tree")
	assert.Equal(t, PROMPT, s.Prompt())

	out.Reset()
	s.Feed(":keywords")
	assert.Contains(t, out.String(), "fetch")

	out.Reset()
	s.Feed(":help")
	assert.Contains(t, out.String(), ":tokens")

	out.Reset()
	s.Feed(":nope")
	assert.Equal(t, "Unknown command: :nope (type :help for commands)\n", out.String())
}

func TestExit(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out, Options{})

	_, quit := s.Feed("  exit ")
	assert.True(t, quit)

	// exit inside a pending block is just input
	s.Feed("{")
	_, quit = s.Feed("exit")
	assert.False(t, quit)
	s.Abort()
	assert.False(t, s.Pending())
}

func TestStartPlain(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("print(1);\n\nvar y;\nquit\nprint(2);\n")
	require.NoError(t, Start(in, &out, Options{}))

	assert.Contains(t, out.String(), "└─ Print")
	assert.Contains(t, out.String(), "└─ Var y")
	assert.True(t, strings.HasSuffix(out.String(), "Goodbye!\n"))
	assert.NotContains(t, out.String(), "Literal 2")
}

func TestStartPlainFlushesPending(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Start(strings.NewReader("print(1"), &out, Options{}))
	assert.Contains(t, out.String(), "Syntax error")
}

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", false},
		{"print(1);", false},
		{"if (x) {", true},
		{"print(", true},
		{`print("{");`, false},
		{`print("\"{");`, false},
		{"{ // }", true},
		{"{ }", false},
		{"x[", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, needsMoreInput(tt.input), tt.input)
	}
}

func TestFilterCompletions(t *testing.T) {
	assert.ElementsMatch(t, []string{"fetch", "for", "false"}, filterCompletions("f"))
	assert.Equal(t, []string{"var x = fetch"}, filterCompletions("var x = fet"))
	assert.Nil(t, filterCompletions(""))
	assert.Nil(t, filterCompletions("print "))
	assert.Nil(t, filterCompletions("print("))
}
