package cliutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPositionals(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.fq.gz")
	b := filepath.Join(dir, "b.fq.gz")
	_ = os.WriteFile(a, []byte("x"), 0o644)
	_ = os.WriteFile(b, []byte("x"), 0o644)
	got, err := ExpandPositionals([]string{filepath.Join(dir, "*.fq.gz"), "plain.fq.gz", "-"})
	if err != nil || len(got) != 4 {
		t.Fatalf("expand: err=%v got=%v", err, got)
	}
	if got[2] != "plain.fq.gz" || got[3] != "-" {
		t.Fatalf("plain args must be kept in order: %v", got)
	}
	if _, err := ExpandPositionals([]string{filepath.Join(dir, "*.none")}); err == nil {
		t.Fatal("empty glob should fail")
	}
}

func TestReadFileList(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "files.txt")
	_ = os.WriteFile(fn, []byte("# samples\na.fq.gz\n\n  b.fq.gz  \n"), 0o644)
	got, err := ReadFileList(fn)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "a.fq.gz" || got[1] != "b.fq.gz" {
		t.Fatalf("got %v", got)
	}
	if _, err := ReadFileList(fn + ".missing"); err == nil {
		t.Fatal("missing list should fail")
	}
}
