package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodScript = `var page = fetch_page("https://shop.example");
for (p in page.select(".product")) print(p.text());
`

const badScript = "var = 1;\nprint(2);\n"

type result struct {
	code           int
	stdout, stderr string
}

// harness runs the CLI against a private config in a temp directory
type harness struct {
	t   *testing.T
	dir string
	env map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := "logging:\n  level: error\nhistory:\n  dsn: history.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "harvest.yaml"), []byte(cfg), 0o644))
	return &harness{
		t:   t,
		dir: dir,
		env: map[string]string{"HARVEST_CONFIG": filepath.Join(dir, "harvest.yaml")},
	}
}

func (h *harness) write(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *harness) runWith(ctx context.Context, stdin string, args ...string) result {
	var stdout, stderr bytes.Buffer
	getenv := func(key string) string { return h.env[key] }
	code := run(ctx, args, strings.NewReader(stdin), &stdout, &stderr, getenv)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (h *harness) run(args ...string) result {
	return h.runWith(context.Background(), "", args...)
}

func TestRunVersion(t *testing.T) {
	h := newHarness(t)
	res := h.run("version")
	assert.Equal(t, exitOK, res.code)
	assert.Equal(t, "harvest version "+Version+"\n", res.stdout)
}

func TestRunUnknownCommand(t *testing.T) {
	h := newHarness(t)
	res := h.run("frobnicate")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "unknown command")
}

func TestRunMissingConfig(t *testing.T) {
	h := newHarness(t)
	res := h.run("--config", filepath.Join(h.dir, "nope.yaml"), "version")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "loading config")
}

func TestCheckClean(t *testing.T) {
	h := newHarness(t)
	path := h.write("shop.scrape", goodScript)

	res := h.run("check", path)
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "1 file checked, no problems found\n", res.stdout)
}

func TestCheckProblems(t *testing.T) {
	h := newHarness(t)
	path := h.write("bad.scrape", badScript)

	res := h.run("check", "--color", "never", path)
	assert.Equal(t, exitProblems, res.code)
	assert.Contains(t, res.stdout, "error[PARSE-0001]: Expect variable name.")
	assert.Contains(t, res.stdout, path+":1:5")
	assert.Contains(t, res.stdout, "1 error in 1 file")
}

func TestCheckUnreadable(t *testing.T) {
	h := newHarness(t)
	good := h.write("shop.scrape", goodScript)

	res := h.run("check", good, filepath.Join(h.dir, "missing.scrape"))
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stdout, "error[IO-0001]: failed to read")
}

func TestCheckStrict(t *testing.T) {
	h := newHarness(t)
	path := h.write("open.scrape", "print(1); /* never closed")

	assert.Equal(t, exitOK, h.run("check", path).code)

	res := h.run("check", "--strict", path)
	assert.Equal(t, exitProblems, res.code)
	assert.Contains(t, res.stdout, "PARSE-0007")
}

func TestCheckJSON(t *testing.T) {
	h := newHarness(t)
	good := h.write("a.scrape", goodScript)
	bad := h.write("b.scrape", badScript)

	res := h.run("check", "--format", "json", good, bad)
	assert.Equal(t, exitProblems, res.code)

	var files []struct {
		File   string `json:"file"`
		Errors []struct {
			Code string `json:"code"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &files))
	require.Len(t, files, 2)
	// results keep argument order
	assert.Equal(t, good, files[0].File)
	assert.Empty(t, files[0].Errors)
	assert.Equal(t, bad, files[1].File)
	require.Len(t, files[1].Errors, 1)
	assert.Equal(t, "PARSE-0001", files[1].Errors[0].Code)
}

func TestCheckInvalidFormat(t *testing.T) {
	h := newHarness(t)
	path := h.write("a.scrape", goodScript)

	res := h.run("check", "--format", "xml", path)
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "invalid output format: xml")
}

func TestCheckDirectory(t *testing.T) {
	h := newHarness(t)
	h.write("scripts/a.scrape", goodScript)
	h.write("scripts/nested/b.hv", goodScript)
	h.write("scripts/notes.txt", "not a script")
	h.write("scripts/.hidden/c.scrape", badScript)

	res := h.run("check", "--format", "markdown", filepath.Join(h.dir, "scripts"))
	assert.Equal(t, exitOK, res.code, res.stdout)
	assert.Contains(t, res.stdout, "2 files checked, 0 errors.")
	assert.NotContains(t, res.stdout, "notes.txt")
}

func TestCheckRecordAndHistory(t *testing.T) {
	h := newHarness(t)
	bad := h.write("bad.scrape", badScript)

	assert.Equal(t, exitProblems, h.run("check", "--record", bad).code)
	assert.FileExists(t, filepath.Join(h.dir, "history.db"))

	res := h.run("history", bad)
	assert.Equal(t, exitOK, res.code, res.stderr)
	lines := strings.Split(strings.TrimRight(res.stdout, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "RUN"))
	assert.Contains(t, lines[1], bad)
	fields := strings.Fields(lines[1])
	assert.Equal(t, []string{"1", "1"}, fields[len(fields)-2:])

	res = h.run("history", filepath.Join(h.dir, "other.scrape"))
	assert.Equal(t, "no recorded runs\n", res.stdout)
}

func TestTokens(t *testing.T) {
	h := newHarness(t)
	path := h.write("t.scrape", "var x; // note")

	res := h.run("tokens", path)
	assert.Equal(t, exitOK, res.code)
	assert.Len(t, strings.Split(strings.TrimRight(res.stdout, "\n"), "\n"), 4)
	assert.NotContains(t, res.stdout, "COMMENT")

	res = h.run("tokens", "--all", path)
	assert.Contains(t, res.stdout, "COMMENT")
	assert.Contains(t, res.stdout, "WHITESPACE")

	res = h.run("tokens", filepath.Join(h.dir, "missing.scrape"))
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "failed to read")
}

func TestAST(t *testing.T) {
	h := newHarness(t)
	path := h.write("x.scrape", "var x = 5;")

	res := h.run("ast", path)
	assert.Equal(t, exitOK, res.code)
	assert.Equal(t, "Program\n└─ Var x\n   └─ init: Literal 5\n", res.stdout)

	res = h.run("ast", "--format", "json", path)
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, `"kind": "Var"`)

	res = h.run("ast", "--format", "yaml", path)
	assert.Contains(t, res.stdout, "kind: Var")
}

func TestASTOutputFile(t *testing.T) {
	h := newHarness(t)
	path := h.write("x.scrape", "var x = 5;")
	out := filepath.Join(h.dir, "x.json.gz")

	res := h.run("ast", "--format", "json", "-o", out, path)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind": "Var"`)
}

func TestASTWithErrors(t *testing.T) {
	h := newHarness(t)
	path := h.write("bad.scrape", badScript)

	res := h.run("ast", path)
	assert.Equal(t, exitProblems, res.code)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Expect variable name.")
}

func TestRepl(t *testing.T) {
	h := newHarness(t)
	res := h.runWith(context.Background(), "print(1);\n:tokens\nx;\nexit\n", "repl")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "└─ Print")
	assert.Contains(t, res.stdout, "IDENTIFIER")
	assert.True(t, strings.HasSuffix(res.stdout, "Goodbye!\n"))
}

func TestWatchInitialCheck(t *testing.T) {
	h := newHarness(t)
	path := h.write("w.scrape", goodScript)

	// An already cancelled context stops the watcher right after the first pass
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := h.runWith(ctx, "", "watch", path)
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, path+": 2 statements, 0 errors\n", res.stdout)
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.scrape", "b.SCRAPE", "c.go", "sub/d.hv"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	got, err := collectFiles([]string{dir, "explicit.txt"}, []string{".scrape", ".hv"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.scrape"),
		filepath.Join(dir, "b.SCRAPE"),
		filepath.Join(dir, "sub", "d.hv"),
		"explicit.txt",
	}, got)
}
