// 21 Aug 2025

// Package slurp gets a whole input file into memory. Particle files
// run to hundreds of thousands of lines, so we map them rather than
// copying through a buffer. The parsers copy what they keep, so the
// mapping can go away as soon as they are finished.
package slurp

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/huwl404/NiLab/pkg/zwrap"
)

// Stdin is the file name that means standard input.
const Stdin = "-"

// File maps fname read-only and calls fn with a reader over the
// contents, decompressed if necessary. The reader must not be used
// after fn returns.
func File(fname string, fn func(io.Reader) error) error {
	if fname == Stdin { // not ours to close
		return withReader(io.NopCloser(os.Stdin), fn)
	}
	fp, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer fp.Close()
	fi, err := fp.Stat()
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", fname)
	}
	if fi.Size() == 0 { // mmap refuses zero length files
		return withReader(bytes.NewReader(nil), fn)
	}
	mm, err := mmap.Map(fp, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("mapping %s: %w", fname, err)
	}
	defer mm.Unmap()
	return withReader(bytes.NewReader(mm), fn)
}

// withReader puts the decompression wrapper around r.
func withReader(r io.Reader, fn func(io.Reader) error) error {
	zr, err := zwrap.Wrap(r)
	if err != nil {
		return err
	}
	if err := fn(zr); err != nil {
		zr.Close()
		return err
	}
	return zr.Close()
}

// Bytes returns a private copy of the (decompressed) file contents.
func Bytes(fname string) ([]byte, error) {
	var b []byte
	err := File(fname, func(r io.Reader) error {
		var err error
		b, err = io.ReadAll(r)
		return err
	})
	return b, err
}
