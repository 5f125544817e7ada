// doctor.go implements the 'threadstress doctor' command.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
)

// minGoVersion is the oldest go directive the primitives support.
// Weak pointers and runtime.AddCleanup arrived in 1.24.
const minGoVersion = "1.24"

// doctorCommand implements the 'threadstress doctor' command.
//
// It locates the enclosing module, parses its go.mod, and reports
// whether the module can host the threading primitives: module path,
// go directive, and GOMAXPROCS of the current process.
func doctorCommand(args []string) {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Error: doctor takes no arguments\n")
		os.Exit(1)
	}

	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	report, err := diagnose(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(report)
}

// diagnose walks up from dir to the nearest go.mod and returns a
// human-readable report. It fails when no module is found or the go
// directive is too old for this package.
func diagnose(dir string) (string, error) {
	path, err := findGoMod(dir)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mf, err := modfile.Parse(path, data, nil)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}

	report := fmt.Sprintf("module:     %s\n", mf.Module.Mod.Path)
	goVersion := "(none)"
	if mf.Go != nil {
		goVersion = mf.Go.Version
	}
	report += fmt.Sprintf("go:         %s\n", goVersion)
	report += fmt.Sprintf("gomaxprocs: %d\n", runtime.GOMAXPROCS(0))

	if mf.Go == nil || semver.Compare("v"+mf.Go.Version, "v"+minGoVersion) < 0 {
		return report, fmt.Errorf("go directive %s is below %s; weak pointers are unavailable", goVersion, minGoVersion)
	}
	report += "ok\n"
	return report, nil
}

// findGoMod walks up from dir to the filesystem root looking for go.mod.
func findGoMod(dir string) (string, error) {
	for {
		path := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod found above %s", dir)
		}
		dir = parent
	}
}
