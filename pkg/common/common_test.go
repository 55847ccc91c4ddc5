package common_test

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	. "github.com/huwl404/NiLab/pkg/common"
)

func TestRowError(t *testing.T) {
	e := &RowError{Src: "a.lst", N: 3, Line: "x y", Desc: "bad index"}
	if !errors.Is(e, ErrMalformedRow) {
		t.Fatal("RowError should match ErrMalformedRow")
	}
	wrapped := fmt.Errorf("reading: %w", e)
	if !errors.Is(wrapped, ErrMalformedRow) {
		t.Fatal("wrapped RowError lost its category")
	}
	s := e.Error()
	for _, want := range []string{"a.lst", "line 3", "bad index", "x y"} {
		if !strings.Contains(s, want) {
			t.Fatalf("error \"%s\" missing \"%s\"", s, want)
		}
	}
}

func TestFirstPart(t *testing.T) {
	long := strings.Repeat("a", 200)
	if n := len(FirstPart(long)); n != 70 {
		t.Fatalf("FirstPart gave %d chars, wanted 70", n)
	}
	if FirstPart("abc") != "abc" {
		t.Fatal("FirstPart changed a short string")
	}
}

func TestWarnf(t *testing.T) {
	var sb strings.Builder
	old := WarnOut
	WarnOut = &sb
	defer func() { WarnOut = old }()
	Warnf("skipped %d rows", 4)
	if !strings.Contains(sb.String(), "skipped 4 rows") {
		t.Fatalf("warning came out as \"%s\"", sb.String())
	}
}

func TestWrtTemp(t *testing.T) {
	fname, err := WrtTemp("hello")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(fname)
	b, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hello" {
		t.Fatalf("temp file holds \"%s\"", b)
	}
}
