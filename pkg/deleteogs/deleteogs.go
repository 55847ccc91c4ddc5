// 27 Sep 2025

// Package deleteogs takes optics groups out of a WarpTools
// matching_tomograms.star and matching.star and renumbers the groups
// that are left.
package deleteogs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/huwl404/NiLab/pkg/backup"
	"github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/renumber"
	"github.com/huwl404/NiLab/pkg/star"
)

// Block and column names in the WarpTools files
const (
	GlobalBlock    = "global"
	OpticsBlock    = "optics"
	ParticlesBlock = "particles"
	GroupNameCol   = "rlnOpticsGroupName"
	GroupCol       = "rlnOpticsGroup"
	TomoNameCol    = "rlnTomoName"
)

// CmdFlag is the command line after parsing
type CmdFlag struct {
	Tomos    string // matching_tomograms.star
	Matching string // matching.star
	OGs      []int  // optics groups to delete
	OutDir   string
}

// groupID reads an integer optics group.
func groupID(s, blk string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("block data_%s: optics group \"%s\" is not an integer: %w", blk, s, common.ErrMalformedRow)
	}
	return n, nil
}

// Tomograms drops the rows of the global table whose optics group name
// has a deleted number, and the per-tomogram blocks those rows name.
// The remaining names are renumbered.
func Tomograms(doc *star.Document, del map[int]bool) (*star.Document, *renumber.Mapping, error) {
	g, err := doc.Need(GlobalBlock)
	if err != nil {
		return nil, nil, err
	}
	ic, err := g.Col(GroupNameCol)
	if err != nil {
		return nil, nil, err
	}
	it, err := g.Col(TomoNameCol)
	if err != nil {
		return nil, nil, err
	}
	var gone []string
	kept := g.Select(func(_ int, r star.Row) bool {
		if id, ok := renumber.ExtractID(r[ic]); ok && del[id] {
			gone = append(gone, r[it])
			return false
		}
		return true
	})
	mp, err := renumber.FromColumn(kept, GroupNameCol)
	if err != nil {
		return nil, nil, err
	}
	if kept, err = renumber.ApplyName(kept, GroupNameCol, mp); err != nil {
		return nil, nil, err
	}
	return doc.Replace(kept).Without(gone...), mp, nil
}

// Particles drops the deleted optics groups and their particles. The
// mapping comes from the optics group names and is applied to the
// names and to the group numbers in both tables.
func Particles(doc *star.Document, del map[int]bool) (*star.Document, *renumber.Mapping, error) {
	optics, err := doc.Need(OpticsBlock)
	if err != nil {
		return nil, nil, err
	}
	parts, err := doc.Need(ParticlesBlock)
	if err != nil {
		return nil, nil, err
	}
	keptOptics, groups, err := keepGroups(optics, func(id int) bool { return !del[id] })
	if err != nil {
		return nil, nil, err
	}
	keptParts, _, err := keepGroups(parts, func(id int) bool { return groups[id] })
	if err != nil {
		return nil, nil, err
	}
	mp, err := renumber.FromColumn(keptOptics, GroupNameCol)
	if err != nil {
		return nil, nil, err
	}
	newOptics, newParts, err := Apply(keptOptics, keptParts, mp)
	if err != nil {
		return nil, nil, err
	}
	return doc.Replace(newOptics).Replace(newParts), mp, nil
}

// keepGroups selects the rows whose integer optics group passes keep and
// returns the set of groups kept.
func keepGroups(b *star.Block, keep func(int) bool) (*star.Block, map[int]bool, error) {
	ic, err := b.Col(GroupCol)
	if err != nil {
		return nil, nil, err
	}
	var bad error
	kept := make(map[int]bool)
	nb := b.Select(func(_ int, r star.Row) bool {
		id, err := groupID(r[ic], b.Name)
		if err != nil {
			if bad == nil {
				bad = err
			}
			return false
		}
		if keep(id) {
			kept[id] = true
			return true
		}
		return false
	})
	if bad != nil {
		return nil, nil, bad
	}
	return nb, kept, nil
}

// Apply renumbers an optics table and its particles. Optics names get
// the new number in their digits, group numbers are replaced outright.
func Apply(optics, parts *star.Block, mp *renumber.Mapping) (*star.Block, *star.Block, error) {
	o, err := renumber.ApplyName(optics, GroupNameCol, mp)
	if err != nil {
		return nil, nil, err
	}
	if o, err = renumber.ApplyInt(o, GroupCol, mp); err != nil {
		return nil, nil, err
	}
	p, err := renumber.ApplyInt(parts, GroupCol, mp)
	if err != nil {
		return nil, nil, err
	}
	return o, p, nil
}

// Stem is a file name without directory or extension.
func Stem(fname string) string {
	base := filepath.Base(fname)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// result is one cleaned file waiting to be written.
type result struct {
	fname string
	doc   *star.Document
	mp    *renumber.Mapping
}

// clean reads and fixes one file. Tomogram files are recognised by
// their global block.
func clean(fname string, del map[int]bool) (*result, error) {
	doc, err := star.ReadFile(fname, common.Warnf)
	if err != nil {
		return nil, err
	}
	res := &result{fname: fname}
	if doc.Block(GlobalBlock) != nil {
		res.doc, res.mp, err = Tomograms(doc, del)
	} else {
		res.doc, res.mp, err = Particles(doc, del)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return res, nil
}

// save backs up the input and writes the cleaned version.
func (res *result) save(outdir string) error {
	full := filepath.Join(outdir, Stem(res.fname)+"_full.star")
	if _, err := backup.Copy(res.fname, full); err != nil {
		return err
	}
	fmt.Println("Saved full backup:", full)
	out := filepath.Join(outdir, filepath.Base(res.fname))
	if err := star.WriteFile(out, res.doc); err != nil {
		return err
	}
	fmt.Println("Wrote cleaned file:", out)
	return res.mp.Table(os.Stdout, renumber.TermWidth())
}

// Mymain does the work after the command line has been parsed.
// Both files are read and checked before anything is written.
func Mymain(flags *CmdFlag) error {
	if flags.Tomos == "" || flags.Matching == "" {
		return fmt.Errorf("need both the tomograms and the particles file: %w", common.ErrInvalidParam)
	}
	if len(flags.OGs) == 0 {
		return fmt.Errorf("no optics groups to delete: %w", common.ErrInvalidParam)
	}
	for _, f := range []string{flags.Tomos, flags.Matching} {
		if _, err := os.Stat(f); err != nil {
			return err
		}
	}
	outdir := flags.OutDir
	if outdir == "" {
		outdir = "."
	}
	del := make(map[int]bool, len(flags.OGs))
	for _, og := range flags.OGs {
		del[og] = true
	}
	fmt.Println("------START------")
	sortedOGs := make([]int, 0, len(del))
	for og := range del {
		sortedOGs = append(sortedOGs, og)
	}
	slices.Sort(sortedOGs)
	var todo []*result
	for _, f := range []string{flags.Tomos, flags.Matching} {
		fmt.Printf("Processing %s, deleting optics groups %v\n", filepath.Base(f), sortedOGs)
		res, err := clean(f, del)
		if err != nil {
			return err
		}
		todo = append(todo, res)
	}
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return err
	}
	for _, res := range todo {
		if err := res.save(outdir); err != nil {
			return err
		}
	}
	fmt.Println("----- DONE -----")
	return nil
}
