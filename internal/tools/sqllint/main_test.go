package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("package q\n\n"+body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLintReportsMissingAndDuplicateMarkers(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "const QOk = `--sql 11111111-2222-4333-8444-555555555555\nselect 1;\n`\n"+
		"const QMissing = `select 2;`\n"+
		"const NotSQL = \"hello\"\n")
	writeGo(t, dir, "b.go", "const QDup = `--sql 11111111-2222-4333-8444-555555555555\nselect 3;\n`\n")

	l := newLinter()
	if err := l.lintTarget(dir); err != nil {
		t.Fatalf("lintTarget() error: %v", err)
	}
	if len(l.violations) != 2 {
		t.Fatalf("violations = %+v, want 2", l.violations)
	}
	byName := map[string]violation{}
	for _, v := range l.violations {
		byName[v.name] = v
	}
	if v, ok := byName["QMissing"]; !ok || !strings.Contains(v.message, "missing") {
		t.Fatalf("QMissing violation = %+v", v)
	}
	if v, ok := byName["QDup"]; !ok || !strings.Contains(v.message, "QOk") {
		t.Fatalf("QDup violation = %+v", v)
	}
}

func TestLintSkipsTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "x_test.go", "const QBare = `select 1;`\n")

	l := newLinter()
	if err := l.lintTarget(dir); err != nil {
		t.Fatalf("lintTarget() error: %v", err)
	}
	if len(l.violations) != 0 {
		t.Fatalf("violations = %+v, want none", l.violations)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n  --sql abc\nselect 1"); got != "--sql abc" {
		t.Fatalf("firstLine() = %q", got)
	}
}
