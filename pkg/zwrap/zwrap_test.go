// Test zwrap
package zwrap_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/huwl404/NiLab/pkg/zwrap"
)

const plain = "data_optics\n\nloop_\n_rlnOpticsGroup #1\n1\n"

func gzipped(t *testing.T, s string) []byte {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	if _, err := io.WriteString(w, s); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func zstded(t *testing.T, s string) []byte {
	var b bytes.Buffer
	w, err := zstd.NewWriter(&b)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, s)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func xzed(t *testing.T, s string) []byte {
	var b bytes.Buffer
	w, err := xz.NewWriter(&b)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, s)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func TestWrap(t *testing.T) {
	tests := []struct {
		data []byte
		kind zwrap.Kind
	}{
		{[]byte(plain), zwrap.Plain},
		{gzipped(t, plain), zwrap.Gzip},
		{zstded(t, plain), zwrap.Zstd},
		{xzed(t, plain), zwrap.Xz},
	}
	for _, x := range tests {
		r, err := zwrap.Wrap(bytes.NewReader(x.data))
		if err != nil {
			t.Fatalf("%v: %v", x.kind, err)
		}
		if r.Kind() != x.kind {
			t.Fatalf("wanted %v, got %v", x.kind, r.Kind())
		}
		b, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("%v: %v", x.kind, err)
		}
		if string(b) != plain {
			t.Fatalf("%v gave back \"%s\"", x.kind, b)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("closing %v: %v", x.kind, err)
		}
	}
}

// An empty stream and a stream shorter than any magic number are plain.
func TestShort(t *testing.T) {
	for _, s := range []string{"", "a", "\x1f"} {
		r, err := zwrap.Wrap(strings.NewReader(s))
		if err != nil {
			t.Fatal(err)
		}
		if r.Kind() != zwrap.Plain {
			t.Fatalf("\"%s\" seen as %v", s, r.Kind())
		}
		b, _ := io.ReadAll(r)
		if string(b) != s {
			t.Fatalf("wanted \"%s\" got \"%s\"", s, b)
		}
	}
}

// Broken gzip data should give an error.
func TestBroken(t *testing.T) {
	b := gzipped(t, plain)
	b[2] = 0x07 // compression method has to be 8, deflate
	if _, err := zwrap.Wrap(bytes.NewReader(b)); err == nil {
		t.Fatal("damaged gzip header not noticed")
	}
}
