package brokenio_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/huwl404/NiLab/pkg/brokenio"
)

var longstring = "0123456789012345678901234567890123456789"

func TestFailAfter(t *testing.T) {
	for _, n := range []int{1, 5, 39} {
		r := brokenio.NewReader(strings.NewReader(longstring))
		r.SetFailAfter(n)
		b, err := io.ReadAll(r)
		if !errors.Is(err, brokenio.ErrBroken) {
			t.Fatalf("after %d bytes wanted ErrBroken, got %v", n, err)
		}
		if len(b) != n {
			t.Fatalf("wanted %d bytes before failing, got %d", n, len(b))
		}
		if string(b) != longstring[:n] {
			t.Fatalf("contents changed, got \"%s\"", b)
		}
	}
}

func TestNoFailure(t *testing.T) {
	r := brokenio.NewReader(strings.NewReader(longstring))
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != longstring || r.NByte() != len(longstring) {
		t.Fatal("clean reader changed the data")
	}
}

func TestAlwaysFail(t *testing.T) {
	r := brokenio.NewReader(strings.NewReader(longstring))
	r.SetProbFail(1)
	if _, err := r.Read(make([]byte, 10)); err == nil {
		t.Fatal("probability 1 did not fail")
	}
}
