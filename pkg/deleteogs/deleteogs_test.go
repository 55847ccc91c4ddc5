package deleteogs_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/huwl404/NiLab/pkg/common"
	. "github.com/huwl404/NiLab/pkg/deleteogs"
	"github.com/huwl404/NiLab/pkg/star"
)

func init() { common.WarnOut = io.Discard }

const tomos = `data_global

loop_
_rlnTomoName #1
_rlnOpticsGroupName #2
_rlnTomoImportFractionalDose #3
TS_01 opticsGroup1 3.0
TS_02 opticsGroup2 3.0
TS_03 opticsGroup3 3.0
TS_04 opticsGroup4 3.0

data_TS_01

loop_
_rlnTomoProjX #1
1.0

data_TS_02

loop_
_rlnTomoProjX #1
2.0

data_TS_03

loop_
_rlnTomoProjX #1
3.0

data_TS_04

loop_
_rlnTomoProjX #1
4.0
`

const matching = `data_general

_rlnTomoSubTomosAre2DStacks 1

data_optics

loop_
_rlnOpticsGroup #1
_rlnOpticsGroupName #2
1 opticsGroup1
2 opticsGroup2
3 opticsGroup3
4 opticsGroup4

data_particles

loop_
_rlnTomoName #1
_rlnOpticsGroup #2
TS_01 1
TS_02 2
TS_02 2
TS_03 3
TS_04 4
`

func parse(t *testing.T, s string) *star.Document {
	t.Helper()
	doc, err := star.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestTomograms(t *testing.T) {
	doc := parse(t, tomos)
	out, mp, err := Tomograms(doc, map[int]bool{2: true, 3: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"global", "TS_01", "TS_04"}, out.Names()); diff != "" {
		t.Fatal(diff)
	}
	names, _ := out.Block("global").Column("rlnOpticsGroupName")
	if diff := cmp.Diff([]string{"opticsGroup1", "opticsGroup2"}, names); diff != "" {
		t.Fatal(diff)
	}
	if n, _ := mp.Get(4); n != 2 {
		t.Fatal("4 should become 2, got", n)
	}
	if len(doc.Blocks) != 5 {
		t.Fatal("input changed")
	}
}

func TestParticles(t *testing.T) {
	doc := parse(t, matching)
	out, mp, err := Particles(doc, map[int]bool{1: true, 3: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []star.Row{{"1", "opticsGroup1"}, {"2", "opticsGroup2"}}
	if diff := cmp.Diff(want, out.Block("optics").Rows); diff != "" {
		t.Fatal(diff)
	}
	wantP := []star.Row{{"TS_02", "1"}, {"TS_02", "1"}, {"TS_04", "2"}}
	if diff := cmp.Diff(wantP, out.Block("particles").Rows); diff != "" {
		t.Fatal(diff)
	}
	if out.Block("general") == nil || mp.Len() != 2 {
		t.Fatal("general block lost or mapping wrong")
	}

	bad := parse(t, "data_optics\nloop_\n_rlnOpticsGroup\n_rlnOpticsGroupName\nx og1\ndata_particles\nloop_\n_rlnOpticsGroup\n1\n")
	if _, _, err := Particles(bad, map[int]bool{1: true}); !errors.Is(err, common.ErrMalformedRow) {
		t.Fatal("non-integer group, got", err)
	}
	if _, _, err := Particles(parse(t, tomos), nil); !errors.Is(err, common.ErrBlockNotFound) {
		t.Fatal(err)
	}
}

func TestMymain(t *testing.T) {
	dir := t.TempDir()
	tf := filepath.Join(dir, "matching_tomograms.star")
	mf := filepath.Join(dir, "matching.star")
	os.WriteFile(tf, []byte(tomos), 0o644)
	os.WriteFile(mf, []byte(matching), 0o644)
	out := filepath.Join(dir, "out")
	if err := Mymain(&CmdFlag{Tomos: tf, Matching: mf, OGs: []int{3, 1}, OutDir: out}); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(out, "matching_full.star"))
	if err != nil || string(b) != matching {
		t.Fatal("backup should be a byte copy", err)
	}
	if _, err := os.Stat(filepath.Join(out, "matching_tomograms_full.star")); err != nil {
		t.Fatal(err)
	}
	doc, err := star.ReadFile(filepath.Join(out, "matching_tomograms.star"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"global", "TS_02", "TS_04"}, doc.Names()); diff != "" {
		t.Fatal(diff)
	}
	doc, err = star.ReadFile(filepath.Join(out, "matching.star"), nil)
	if err != nil {
		t.Fatal(err)
	}
	g, _ := doc.Block("particles").Column("rlnOpticsGroup")
	if diff := cmp.Diff([]string{"1", "1", "2"}, g); diff != "" {
		t.Fatal(diff)
	}
}

func TestBadFlags(t *testing.T) {
	dir := t.TempDir()
	tf := filepath.Join(dir, "t.star")
	os.WriteFile(tf, []byte(tomos), 0o644)
	if err := Mymain(&CmdFlag{Tomos: tf, Matching: tf}); !errors.Is(err, common.ErrInvalidParam) {
		t.Fatal("no groups, got", err)
	}
	if err := Mymain(&CmdFlag{Tomos: tf, Matching: filepath.Join(dir, "none"), OGs: []int{1}}); !errors.Is(err, os.ErrNotExist) {
		t.Fatal(err)
	}
	// The tomograms file is fine, the particles file is not, so nothing
	// should be written.
	out := filepath.Join(dir, "out")
	if err := Mymain(&CmdFlag{Tomos: tf, Matching: tf + "x", OGs: []int{1}, OutDir: out}); err == nil {
		t.Fatal("missing particles file")
	}
	bad := filepath.Join(dir, "bad.star")
	os.WriteFile(bad, []byte("data_optics\nloop_\n_rlnOpticsGroup\n1\n"), 0o644)
	if err := Mymain(&CmdFlag{Tomos: tf, Matching: bad, OGs: []int{1}, OutDir: out}); err == nil {
		t.Fatal("particles file without particles")
	}
	if _, err := os.Stat(out); err == nil {
		t.Fatal("output written after a failure")
	}
}

func TestStem(t *testing.T) {
	if s := Stem("/a/b/matching_tomograms.star"); s != "matching_tomograms" {
		t.Fatal(s)
	}
}
