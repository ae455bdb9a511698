package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	payload := []byte("segment data")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("copied content mismatch: %q", got)
	}
}

func TestWriteFileSyncCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audio", "cache", "line_000.wav")
	if err := WriteFileSync(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("WriteFileSync: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 3 {
		t.Fatalf("unexpected size %d", info.Size())
	}
}
