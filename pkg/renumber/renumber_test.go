package renumber_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/huwl404/NiLab/pkg/common"
	. "github.com/huwl404/NiLab/pkg/renumber"
	"github.com/huwl404/NiLab/pkg/star"
)

func TestExtractID(t *testing.T) {
	for _, tt := range []struct {
		in string
		n  int
		ok bool
	}{
		{"og_7", 7, true},
		{"opticsGroup12", 12, true},
		{"a1b22", 1, true},
		{"007", 7, true},
		{"-5", 5, true},
		{"", 0, false},
		{"no digits", 0, false},
		{"x99999999999999999999999999y", 0, false},
		{"\u0663", 0, false}, // arabic-indic three
	} {
		n, ok := ExtractID(tt.in)
		if n != tt.n || ok != tt.ok {
			t.Errorf("ExtractID(%q) got %d %v", tt.in, n, ok)
		}
	}
}

func TestReplaceID(t *testing.T) {
	for _, tt := range []struct {
		in   string
		id   int
		want string
	}{
		{"og_9", 3, "og_3"},
		{"opticsGroup12_tilt3", 1, "opticsGroup1_tilt3"},
		{"TS_0012.tomostar", 5, "TS_5.tomostar"},
		{"none", 4, "none"},
		{"", 4, ""},
	} {
		if got := ReplaceID(tt.in, tt.id); got != tt.want {
			t.Errorf("ReplaceID(%q, %d) got %q", tt.in, tt.id, got)
		}
	}
}

func TestBuild(t *testing.T) {
	m := Build([]string{"og_7", "og_3", "og_7", "og_9", "plain"}, ExtractID)
	for old, want := range map[int]int{7: 1, 3: 2, 9: 3} {
		if n, ok := m.Get(old); !ok || n != want {
			t.Errorf("%d -> %d, want %d", old, n, want)
		}
	}
	if _, ok := m.Get(4); ok {
		t.Error("4 should not be mapped")
	}
	if m.Len() != 3 {
		t.Fatal("len", m.Len())
	}
	if diff := cmp.Diff([]int{7, 3, 9}, m.Olds()); diff != "" {
		t.Fatal(diff)
	}
	if s := m.Name("og_9"); s != "og_3" {
		t.Fatal("og_9 went to", s)
	}
	if s := m.Name("og_4"); s != "og_4" {
		t.Fatal("unknown id should pass through, got", s)
	}
	if s := m.Int("7"); s != "1" {
		t.Fatal(s)
	}
	for _, s := range []string{"4", "x", "7.0"} {
		if m.Int(s) != s {
			t.Error("Int should pass through", s)
		}
	}
}

const optics = `data_optics
loop_
_rlnOpticsGroup
_rlnOpticsGroupName
7 opticsGroup7
3 opticsGroup3
9 opticsGroup9
`

func TestApply(t *testing.T) {
	doc, err := star.Parse(optics)
	if err != nil {
		t.Fatal(err)
	}
	b := doc.Block("optics")
	m, err := FromColumn(b, "rlnOpticsGroupName")
	if err != nil {
		t.Fatal(err)
	}
	nb, err := ApplyName(b, "rlnOpticsGroupName", m)
	if err != nil {
		t.Fatal(err)
	}
	if nb, err = ApplyInt(nb, "rlnOpticsGroup", m); err != nil {
		t.Fatal(err)
	}
	want := []star.Row{{"1", "opticsGroup1"}, {"2", "opticsGroup2"}, {"3", "opticsGroup3"}}
	if diff := cmp.Diff(want, nb.Rows); diff != "" {
		t.Fatal(diff)
	}
	if b.Rows[0][0] != "7" {
		t.Fatal("input block changed")
	}
	if _, err := FromColumn(b, "rlnNothing"); !errors.Is(err, common.ErrColumnNotFound) {
		t.Fatal(err)
	}
}

func TestTable(t *testing.T) {
	m := Build([]string{"og_7", "og_3", "og_12"}, ExtractID)
	var buf bytes.Buffer
	if err := m.Table(&buf, 80); err != nil {
		t.Fatal(err)
	}
	want := "7 3 12\n| |  |\n1 2  3\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatal(diff)
	}

	buf.Reset()
	m.Table(&buf, 4)
	want = "7 3\n| |\n1 2\n12\n |\n 3\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatal(diff)
	}

	buf.Reset()
	Build(nil, ExtractID).Table(&buf, 80)
	if buf.Len() != 0 {
		t.Fatal("empty mapping printed", buf.String())
	}
}

func TestTableWide(t *testing.T) {
	vals := make([]string, 100)
	for i := range vals {
		vals[i] = "og" + strings.Repeat("1", 1+i%3) + string(rune('0'+i%10))
	}
	m := Build(vals, ExtractID)
	var buf bytes.Buffer
	m.Table(&buf, 30)
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines)%3 != 0 {
		t.Fatal("lines should come in threes")
	}
	for _, l := range lines {
		if len(l) > 30 {
			t.Fatal("line too long:", l)
		}
	}
}

func TestTermWidth(t *testing.T) {
	if w := TermWidth(); w <= 0 {
		t.Fatal("width", w)
	}
}
