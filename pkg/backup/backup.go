// 27 Sep 2025

// Package backup copies a file before we overwrite it and checks that
// the copy really is the same, byte for byte.
package backup

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is the hex BLAKE3 hash of a file's contents.
func Digest(fname string) (string, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return "", err
	}
	defer fp.Close()
	h := blake3.New()
	if _, err := io.Copy(h, fp); err != nil {
		return "", fmt.Errorf("hashing %s: %w", fname, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Copy writes src to dst and reads dst back to make sure it arrived.
// It returns the digest of the contents.
func Copy(src, dst string) (string, error) {
	b, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(b)
	want := hex.EncodeToString(sum[:])
	fi, err := os.Stat(src)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, b, fi.Mode().Perm()); err != nil {
		return "", fmt.Errorf("backing up %s: %w", src, err)
	}
	got, err := Digest(dst)
	if err != nil {
		return "", err
	}
	if got != want {
		return "", fmt.Errorf("backup %s of %s does not match, blake3 %s != %s", dst, src, got, want)
	}
	return want, nil
}
