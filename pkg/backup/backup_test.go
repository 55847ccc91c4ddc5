package backup_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/huwl404/NiLab/pkg/backup"
)

func TestCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "matching.star")
	body := "data_optics\n\nloop_\n_rlnOpticsGroup #1\n1\n"
	if err := os.WriteFile(src, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "matching_full.star")
	sum, err := Copy(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum) != 64 {
		t.Fatal("digest should be 32 bytes in hex, got", sum)
	}
	b, err := os.ReadFile(dst)
	if err != nil || string(b) != body {
		t.Fatal("copy differs", err)
	}
	if d, _ := Digest(src); d != sum {
		t.Fatal("Digest and Copy disagree")
	}

	os.WriteFile(dst, []byte(body+"x"), 0o644)
	if d, _ := Digest(dst); d == sum {
		t.Fatal("different contents, same digest")
	}
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Copy(filepath.Join(dir, "none"), filepath.Join(dir, "b")); err == nil {
		t.Fatal("missing source should fail")
	}
	src := filepath.Join(dir, "a")
	os.WriteFile(src, []byte("a"), 0o644)
	if _, err := Copy(src, filepath.Join(dir, "no", "such", "dir")); err == nil {
		t.Fatal("bad destination should fail")
	}
	if _, err := Digest(filepath.Join(dir, "none")); err == nil {
		t.Fatal("Digest of nothing")
	}
}
