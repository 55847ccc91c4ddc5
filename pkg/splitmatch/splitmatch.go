// 26 Sep 2025

// Package splitmatch cuts a WarpTools matching_tomograms.star and
// matching.star in two, so each half can be refined on its own. Each
// half has its optics groups numbered from 1 and gets its own
// optimisation set file.
package splitmatch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/huwl404/NiLab/pkg/backup"
	"github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/deleteogs"
	"github.com/huwl404/NiLab/pkg/renumber"
	"github.com/huwl404/NiLab/pkg/star"
)

// DoseCol is the per-tilt dose in the global table.
const DoseCol = "rlnTomoImportFractionalDose"

// CmdFlag is the command line after parsing
type CmdFlag struct {
	Tomos    string   // matching_tomograms.star
	Matching string   // matching.star
	Dose     *float64 // if set, fix the fractional dose
	OutDir   string
}

// Half is one of the two pieces.
type Half struct {
	Tomos      *star.Document
	TomoMap    *renumber.Mapping // global optics names, old to new
	Start, End int               // optics group range, before renumbering
}

// FixDose sets the dose of every tomogram to dose, written with three
// decimals. It returns the new global table and the rows changed.
func FixDose(g *star.Block, dose float64) (*star.Block, []int, error) {
	want := strconv.FormatFloat(dose, 'f', 3, 64)
	var changed []int
	i := 0
	nb, err := g.MapCol(DoseCol, func(s string) string {
		defer func() { i++ }()
		cur, err := strconv.ParseFloat(s, 64)
		if err == nil && strconv.FormatFloat(cur, 'f', 3, 64) == want {
			return s
		}
		changed = append(changed, i)
		return want
	})
	if err != nil {
		return nil, nil, err
	}
	return nb, changed, nil
}

// idRange is the smallest and largest ID in a set of names. With no
// IDs at all, both are 0.
func idRange(names []string) (int, int) {
	var ids []int
	for _, s := range names {
		if n, ok := renumber.ExtractID(s); ok {
			ids = append(ids, n)
		}
	}
	if len(ids) == 0 {
		return 0, 0
	}
	return slices.Min(ids), slices.Max(ids)
}

// SplitTomos divides the global rows, first ceil(N/2) and the rest.
// Each half keeps the per-tomogram blocks its rows name. Blocks that
// belong to no tomogram are reported with warn and dropped.
func SplitTomos(doc *star.Document, warn common.Warner) ([2]*Half, error) {
	var halves [2]*Half
	g, err := doc.Need(deleteogs.GlobalBlock)
	if err != nil {
		return halves, err
	}
	names, err := g.Column(deleteogs.TomoNameCol)
	if err != nil {
		return halves, err
	}
	if len(names) < 2 {
		return halves, fmt.Errorf("%d tomograms, need at least 2 to split: %w", len(names), common.ErrEmptyResult)
	}
	mid := (len(names) + 1) / 2
	owner := make(map[string]int, len(names))
	for i, s := range names {
		owner[s] = min(i/mid, 1)
	}
	for _, b := range doc.Blocks {
		if _, ok := owner[b.Name]; !ok && b.Name != deleteogs.GlobalBlock {
			warn("block data_%s is not a tomogram in data_%s, skipping", b.Name, deleteogs.GlobalBlock)
		}
	}
	for h := range halves {
		gh := g.Select(func(i int, _ star.Row) bool { return min(i/mid, 1) == h })
		ogNames, err := gh.Column(deleteogs.GroupNameCol)
		if err != nil {
			return halves, err
		}
		start, end := idRange(ogNames)
		mp := renumber.Build(ogNames, renumber.ExtractID)
		if gh, err = renumber.ApplyName(gh, deleteogs.GroupNameCol, mp); err != nil {
			return halves, err
		}
		td := doc.Keep(func(b *star.Block) bool {
			if b.Name == deleteogs.GlobalBlock {
				return true
			}
			o, ok := owner[b.Name]
			return ok && o == h
		})
		halves[h] = &Half{Tomos: td.Replace(gh), TomoMap: mp, Start: start, End: end}
	}
	return halves, nil
}

// PartHalf is the particles that go with one half of the tomograms.
type PartHalf struct {
	Doc        *star.Document
	Map        *renumber.Mapping
	Start, End int
}

// SplitParticles sends each optics group to the half whose tomograms
// had it, then renumbers each half from 1.
func SplitParticles(doc *star.Document, halves [2]*Half, warn common.Warner) ([2]*PartHalf, error) {
	var ret [2]*PartHalf
	optics, err := doc.Need(deleteogs.OpticsBlock)
	if err != nil {
		return ret, err
	}
	parts, err := doc.Need(deleteogs.ParticlesBlock)
	if err != nil {
		return ret, err
	}
	ids, err := optics.Column(deleteogs.GroupCol)
	if err != nil {
		return ret, err
	}
	var sets [2][]int
	side := make(map[int]int)
	for _, s := range ids {
		id, err := strconv.Atoi(s)
		if err != nil {
			return ret, fmt.Errorf("block data_%s: optics group \"%s\" is not an integer: %w", optics.Name, s, common.ErrMalformedRow)
		}
		switch {
		case inMap(halves[0].TomoMap, id):
			sets[0] = append(sets[0], id)
			side[id] = 0
		case inMap(halves[1].TomoMap, id):
			sets[1] = append(sets[1], id)
			side[id] = 1
		default:
			warn("optics group %d is not in the tomograms file, skipping", id)
		}
	}
	ic, _ := optics.Col(deleteogs.GroupCol)
	ip, err := parts.Col(deleteogs.GroupCol)
	if err != nil {
		return ret, err
	}
	for h := range ret {
		if len(sets[h]) == 0 {
			return ret, fmt.Errorf("no optics groups for half %d: %w", h+1, common.ErrEmptyResult)
		}
		in := func(s string) bool {
			id, err := strconv.Atoi(s)
			if err != nil {
				return false
			}
			o, ok := side[id]
			return ok && o == h
		}
		oh := optics.Select(func(_ int, r star.Row) bool { return in(r[ic]) })
		ph := parts.Select(func(_ int, r star.Row) bool { return in(r[ip]) })
		mp, err := renumber.FromColumn(oh, deleteogs.GroupNameCol)
		if err != nil {
			return ret, err
		}
		if oh, ph, err = deleteogs.Apply(oh, ph, mp); err != nil {
			return ret, err
		}
		ret[h] = &PartHalf{
			Doc:   doc.Replace(oh).Replace(ph),
			Map:   mp,
			Start: slices.Min(sets[h]),
			End:   slices.Max(sets[h]),
		}
	}
	return ret, nil
}

func inMap(mp *renumber.Mapping, id int) bool {
	_, ok := mp.Get(id)
	return ok
}

var ogSuffix = regexp.MustCompile(`_OG(\d+)-(\d+)$`)

// offset strips an _OG<a>-<b> suffix from a file's stem. If there was
// one, the range is moved so it counts from a.
func offset(fname string, start, end int) (string, int, int) {
	stem := deleteogs.Stem(fname)
	if m := ogSuffix.FindStringSubmatchIndex(stem); m != nil {
		first, _ := strconv.Atoi(stem[m[2]:m[3]])
		stem = stem[:m[0]]
		start, end = first+start-1, first+end-1
	}
	return stem, start, end
}

// OutName is the name of a split file. If the input was already a
// split, like matching_OG5-8, the numbers are counted from its start.
func OutName(fname string, start, end int) string {
	stem, start, end := offset(fname, start, end)
	return fmt.Sprintf("%s_OG%d-%d.star", stem, start, end)
}

// SetName is the optimisation set that goes with a split of matching.
func SetName(matching string, start, end int) string {
	_, start, end = offset(matching, start, end)
	return fmt.Sprintf("matching_optimisation_set_OG%d-%d.star", start, end)
}

// OptimisationSet is the little file that tells RELION which
// particles go with which tomograms.
func OptimisationSet(particles, tomograms string) (*star.Document, error) {
	b := star.NewScalar("")
	if err := b.SetItem("rlnTomoParticlesFile", particles); err != nil {
		return nil, err
	}
	if err := b.SetItem("rlnTomoTomogramsFile", tomograms); err != nil {
		return nil, err
	}
	return &star.Document{Blocks: []*star.Block{b}}, nil
}

func writeMapped(fname string, doc *star.Document, mp *renumber.Mapping, what string) error {
	if err := star.WriteFile(fname, doc); err != nil {
		return err
	}
	fmt.Printf("\n%s split -> %s\n", what, filepath.Base(fname))
	return mp.Table(os.Stdout, renumber.TermWidth())
}

// Mymain does the work after the command line has been parsed.
// Everything is worked out before the first file is written.
func Mymain(flags *CmdFlag) error {
	if flags.Tomos == "" || flags.Matching == "" {
		return fmt.Errorf("need both the tomograms and the particles file: %w", common.ErrInvalidParam)
	}
	if flags.Dose != nil && *flags.Dose <= 0 {
		return fmt.Errorf("dose %g should be positive: %w", *flags.Dose, common.ErrInvalidParam)
	}
	outdir := flags.OutDir
	if outdir == "" {
		outdir = "."
	}
	warn := common.Warnf
	fmt.Println("------START------")
	tdoc, err := star.ReadFile(flags.Tomos, warn)
	if err != nil {
		return err
	}
	var doseFixed *star.Document
	if flags.Dose != nil {
		g, err := tdoc.Need(deleteogs.GlobalBlock)
		if err != nil {
			return fmt.Errorf("%s: %w", flags.Tomos, err)
		}
		ng, changed, err := FixDose(g, *flags.Dose)
		if err != nil {
			return fmt.Errorf("%s: %w", flags.Tomos, err)
		}
		if len(changed) > 0 {
			fmt.Printf("Updated %d %s entries to %.3f\n", len(changed), DoseCol, *flags.Dose)
			tdoc = tdoc.Replace(ng)
			doseFixed = tdoc
		} else {
			fmt.Println("All fractional dose entries already match the target value")
		}
	}
	halves, err := SplitTomos(tdoc, warn)
	if err != nil {
		return fmt.Errorf("%s: %w", flags.Tomos, err)
	}
	pdoc, err := star.ReadFile(flags.Matching, warn)
	if err != nil {
		return err
	}
	parts, err := SplitParticles(pdoc, halves, warn)
	if err != nil {
		return fmt.Errorf("%s: %w", flags.Matching, err)
	}

	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return err
	}
	if doseFixed != nil {
		orig := filepath.Join(outdir, deleteogs.Stem(flags.Tomos)+"_original.star")
		if _, err := backup.Copy(flags.Tomos, orig); err != nil {
			return err
		}
		fmt.Println("Original tomograms file saved as", orig)
		full := filepath.Join(outdir, filepath.Base(flags.Tomos))
		if err := star.WriteFile(full, doseFixed); err != nil {
			return err
		}
		fmt.Println("Dose-fixed tomograms file written as", full)
	}
	var tnames [2]string
	for h, half := range halves {
		tnames[h] = OutName(flags.Tomos, half.Start, half.End)
		if err := writeMapped(filepath.Join(outdir, tnames[h]), half.Tomos, half.TomoMap, "Tomograms"); err != nil {
			return err
		}
	}
	for h, ph := range parts {
		pname := OutName(flags.Matching, ph.Start, ph.End)
		if err := writeMapped(filepath.Join(outdir, pname), ph.Doc, ph.Map, "Particles"); err != nil {
			return err
		}
		set := filepath.Join(outdir, SetName(flags.Matching, ph.Start, ph.End))
		opt, err := OptimisationSet(pname, tnames[h])
		if err != nil {
			return err
		}
		if err := star.WriteFile(set, opt); err != nil {
			return err
		}
		fmt.Println("Wrote optimisation set", set)
	}
	fmt.Println("----- Done -----")
	return nil
}
