// doctor_test.go tests the 'threadstress doctor' command.
package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeGoMod creates a go.mod in a fresh temp dir and returns the dir.
func writeGoMod(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(contents), 0o644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}
	return dir
}

// TestDiagnose_ModernModule tests a module the primitives support.
func TestDiagnose_ModernModule(t *testing.T) {
	dir := writeGoMod(t, "module example.com/app\n\ngo 1.24.0\n")

	report, err := diagnose(dir)
	if err != nil {
		t.Fatalf("diagnose() error: %v", err)
	}
	if !strings.Contains(report, "module:     example.com/app") {
		t.Errorf("report missing module path:\n%s", report)
	}
	if !strings.Contains(report, "go:         1.24.0") {
		t.Errorf("report missing go directive:\n%s", report)
	}
	if !strings.Contains(report, "ok") {
		t.Errorf("report missing ok line:\n%s", report)
	}
}

// TestDiagnose_OldGoDirective tests rejection of pre-weak-pointer modules.
func TestDiagnose_OldGoDirective(t *testing.T) {
	dir := writeGoMod(t, "module example.com/old\n\ngo 1.21\n")

	_, err := diagnose(dir)
	if err == nil {
		t.Fatal("diagnose() succeeded for go 1.21 module")
	}
	if !strings.Contains(err.Error(), "1.21") {
		t.Errorf("error does not name the version: %v", err)
	}
}

// TestDiagnose_WalksUp tests go.mod discovery from a nested directory.
func TestDiagnose_WalksUp(t *testing.T) {
	dir := writeGoMod(t, "module example.com/nested\n\ngo 1.24.0\n")
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	report, err := diagnose(sub)
	if err != nil {
		t.Fatalf("diagnose() error: %v", err)
	}
	if !strings.Contains(report, "example.com/nested") {
		t.Errorf("report missing module path:\n%s", report)
	}
}

// TestDiagnose_NoModule tests a directory tree with no go.mod.
func TestDiagnose_NoModule(t *testing.T) {
	if _, err := diagnose(t.TempDir()); err == nil {
		t.Fatal("diagnose() succeeded without go.mod")
	}
}
