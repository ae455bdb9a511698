// Package testsupport provides shared helpers for package tests: ready-made
// configurations rooted in temp directories and stubbed external binaries.
package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"podforge/internal/config"
)

// NewConfig returns a validated config whose directories live under the
// test's temp dir.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("testsupport: ensure directories: %v", err)
	}
	return &cfg
}

// WithStubbedBinaries prepends a temp directory to PATH containing
// executable stubs for the named tools. Each stub exits 0 immediately.
func WithStubbedBinaries(t *testing.T, names ...string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("binary stubs require a POSIX shell")
	}
	dir := t.TempDir()
	for _, name := range names {
		stub := filepath.Join(dir, name)
		if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("testsupport: write stub %s: %v", name, err)
		}
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}
