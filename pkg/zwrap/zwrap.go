// 21 Aug 2025

// Package zwrap takes a reader and, if the stream is compressed, wraps
// it so reading gives back the plain text. Calling Close closes the
// decompressor, followed by the underlying reader if it can be closed.
// We recognise gzip, zstd and xz by their magic bytes, not by the file
// name, since RELION directories are full of misnamed files.
package zwrap

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Kind says what sort of compression we found.
type Kind byte

const (
	Plain Kind = iota
	Gzip
	Zstd
	Xz
)

var kindNames = [...]string{Plain: "plain", Gzip: "gzip", Zstd: "zstd", Xz: "xz"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var (
	gzMagic   = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

const magicLen = 6 // longest of the magic numbers above

// Sniff looks at the first few bytes of a stream and says how it is
// compressed. Anything we do not recognise is Plain.
func Sniff(b []byte) Kind {
	switch {
	case bytes.HasPrefix(b, gzMagic):
		return Gzip
	case bytes.HasPrefix(b, zstdMagic):
		return Zstd
	case bytes.HasPrefix(b, xzMagic):
		return Xz
	}
	return Plain
}

// Rdr is what we return.
type Rdr struct {
	fp    io.Reader // the original source
	zrdr  io.Reader // decompressor, nil for plain text
	kind  Kind
	zclse func() error // closes the decompressor
}

// Kind tells us what was found on the stream.
func (r *Rdr) Kind() Kind { return r.kind }

// Read makes sure we read from the decompressed stream and
// not the underlying one.
func (r *Rdr) Read(p []byte) (int, error) {
	if r.zrdr != nil {
		return r.zrdr.Read(p)
	}
	return r.fp.Read(p)
}

// Close closes the decompressor, then the underlying source if it
// is an io.Closer. Both errors are reported.
func (r *Rdr) Close() error {
	var errs []error
	if r.zclse != nil {
		errs = append(errs, r.zclse())
	}
	if c, ok := r.fp.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Wrap puts a buffer in front of fp, peeks at the first bytes and
// sets up the right decompressor. A plain stream comes back unchanged,
// apart from the buffering. An empty stream is Plain.
func Wrap(fp io.Reader) (*Rdr, error) {
	br := bufio.NewReader(fp)
	magic, _ := br.Peek(magicLen) // short streams give short magic, not an error for us
	r := &Rdr{kind: Sniff(magic)}
	r.fp = fp
	switch r.kind {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		r.zrdr, r.zclse = zr, zr.Close
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		r.zrdr = zr
		r.zclse = func() error { zr.Close(); return nil }
	case Xz:
		zr, err := xz.NewReader(br)
		if err != nil {
			return nil, err
		}
		r.zrdr = zr
	default:
		r.zrdr = br
	}
	return r, nil
}
