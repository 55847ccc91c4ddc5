package lst_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/huwl404/NiLab/pkg/brokenio"
	"github.com/huwl404/NiLab/pkg/common"
	. "github.com/huwl404/NiLab/pkg/lst"
)

const jalign = `#LST
# made by hand
0	stack.mrcs	score=0.5	zScore=-1.5
1 stack.mrcs score=0.01
x	stack.mrcs	score=2
41	stack.mrcs	score=nan	junk
7
`

func TestParse(t *testing.T) {
	rdr := NewReader(strings.NewReader(jalign))
	var nwarn int
	rdr.SetWarn(func(string, ...any) { nwarn++ })
	doc, err := rdr.Read()
	if err != nil {
		t.Fatal(err)
	}
	want := &Document{
		Header: []string{"#LST", "# made by hand"},
		Recs: []Record{
			{Ndx: 0, Path: "stack.mrcs", Fields: []Field{{"score", "0.5"}, {"zScore", "-1.5"}}},
			{Ndx: 1, Path: "stack.mrcs", Fields: []Field{{"score", "0.01"}}},
			{Ndx: 41, Path: "stack.mrcs", Fields: []Field{{"score", "nan"}}},
		},
	}
	if diff := cmp.Diff(want, doc, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if n := len(rdr.Skipped()); n != 3 || nwarn != 3 {
		t.Fatal("wanted bad index, bad token and missing path skipped, got", rdr.Skipped())
	}
	var re *common.RowError
	if !errors.As(rdr.Skipped()[0], &re) || re.N != 5 {
		t.Fatal("first complaint should be about line 5", rdr.Skipped()[0])
	}
}

func TestTag(t *testing.T) {
	if s := Tag(41, "stack.mrcs"); s != "000042@stack.mrcs" {
		t.Fatal("got", s)
	}
	rec := Record{Ndx: 0, Path: "Extract/job050/a.mrcs"}
	if s := rec.Tag(); s != "000001@Extract/job050/a.mrcs" {
		t.Fatal("got", s)
	}
	ndx, path, err := ParseTag("000042@stack.mrcs")
	if err != nil || ndx != 41 || path != "stack.mrcs" {
		t.Fatal("ParseTag", ndx, path, err)
	}
	for _, s := range []string{"", "42", "@x", "0@x", "abc@x", "42@"} {
		if _, _, err := ParseTag(s); !errors.Is(err, common.ErrMalformedRow) {
			t.Errorf("ParseTag(%q) got %v", s, err)
		}
	}
}

func TestRecord(t *testing.T) {
	doc, err := Parse(jalign)
	if err != nil {
		t.Fatal(err)
	}
	r := doc.Recs[0]
	if v, ok := r.Get("zScore"); !ok || v != "-1.5" {
		t.Fatal("Get", v, ok)
	}
	if _, ok := r.Get("nothing"); ok {
		t.Fatal("Get found a missing key")
	}
	if v, err := r.Float("score"); err != nil || v != 0.5 {
		t.Fatal("Float", v, err)
	}
	if _, err := r.Float("nothing"); !errors.Is(err, common.ErrColumnNotFound) {
		t.Fatal(err)
	}
	if _, err := doc.Recs[1].With(Field{"a", "b"}).Float("a"); !errors.Is(err, common.ErrMalformedRow) {
		t.Fatal(err)
	}
	r2 := r.With(Field{Key: "class", Val: "3"})
	if len(r.Fields) != 2 || len(r2.Fields) != 3 || r2.Fields[2].String() != "class=3" {
		t.Fatal("With", r, r2)
	}
	r2.Fields[0].Val = "changed"
	if r.Fields[0].Val != "0.5" {
		t.Fatal("With shares fields")
	}

	sub := doc.Subset([]int{2, 0})
	if sub.Recs[0].Ndx != 41 || sub.Recs[1].Ndx != 0 || len(sub.Header) != 2 {
		t.Fatal("Subset", sub)
	}
	c := doc.Clone()
	c.Recs[0].Fields[0].Val = "x"
	if doc.Recs[0].Fields[0].Val != "0.5" {
		t.Fatal("Clone shares fields")
	}
}

func TestWrite(t *testing.T) {
	doc := &Document{Recs: []Record{{Ndx: 3, Path: "a.mrcs", Fields: []Field{{"euler", "1,2,3"}}}, {Ndx: 4, Path: "b.mrcs"}}}
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatal(err)
	}
	want := "#LST\n3\ta.mrcs\teuler=1,2,3\n4\tb.mrcs\n"
	if buf.String() != want {
		t.Fatalf("got\n%q\nwant\n%q", buf.String(), want)
	}

	doc.Header = []string{"#LST", "# note"}
	buf.Reset()
	Write(&buf, doc)
	if strings.Count(buf.String(), Magic) != 1 {
		t.Fatal("#LST written twice\n", buf.String())
	}
	doc.Header = []string{"# note", "#LST"}
	buf.Reset()
	Write(&buf, doc)
	if !strings.HasPrefix(buf.String(), "#LST\n# note\n3\t") || strings.Count(buf.String(), Magic) != 1 {
		t.Fatal("#LST should go first, once\n", buf.String())
	}
	doc.Recs[0].Ndx = -1
	if err := Write(io.Discard, doc); !errors.Is(err, common.ErrMalformedRow) {
		t.Fatal("negative image number written:", err)
	}
}

// EMAN2 counts from 0, so a negative number has no RELION name.
func TestNegative(t *testing.T) {
	rdr := NewReader(strings.NewReader("#LST\n-2\tstack.mrcs\n0\tstack.mrcs\n"))
	doc, err := rdr.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Recs) != 1 || doc.Recs[0].Ndx != 0 {
		t.Fatalf("wanted only record 0, got %+v", doc.Recs)
	}
	if sk := rdr.Skipped(); len(sk) != 1 || !errors.Is(sk[0], common.ErrMalformedRow) {
		t.Fatal("negative number not skipped as malformed:", sk)
	}
}

func TestRoundTrip(t *testing.T) {
	doc, _ := Parse(jalign)
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatal(err)
	}
	doc2, err := Parse(buf.String())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(doc, doc2, cmpopts.EquateEmpty()); diff != "" {
		t.Fatal(diff)
	}
}

func TestBroken(t *testing.T) {
	br := brokenio.NewReader(strings.NewReader(jalign))
	br.SetFailAfter(10)
	rdr := NewReader(br)
	rdr.SetSrc("j.lst")
	if _, err := rdr.Read(); !errors.Is(err, brokenio.ErrBroken) || !strings.Contains(err.Error(), "j.lst") {
		t.Fatal("wanted ErrBroken naming the file, got", err)
	}
}

func TestFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "x.lst")
	doc, _ := Parse(jalign)
	if err := WriteFile(fname, doc); err != nil {
		t.Fatal(err)
	}
	doc2, err := ReadFile(fname, common.Quiet)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(doc, doc2, cmpopts.EquateEmpty()); diff != "" {
		t.Fatal(diff)
	}
	if err := WriteFile(filepath.Join(fname, "nodir", "y.lst"), doc); err == nil {
		t.Fatal("should not write under a file")
	}
	os.Remove(fname)
}

func ExampleTag() {
	ndx, path, _ := ParseTag(Tag(41, "stack.mrcs"))
	fmt.Println(Tag(41, "stack.mrcs"), ndx, path)
	// Output:
	// 000042@stack.mrcs 41 stack.mrcs
}
