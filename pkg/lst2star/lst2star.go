// 20 Aug 2025

// Package lst2star keeps the particles of a RELION star file that
// survived a Jalign run, optionally only those whose Jalign score
// passes a threshold.
package lst2star

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huwl404/NiLab/pkg/binning"
	"github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/lst"
	"github.com/huwl404/NiLab/pkg/star"
	"github.com/huwl404/NiLab/pkg/xref"
)

// ImageCol is the column that names a particle.
const ImageCol = "rlnImageName"

// CmdFlag is the command line after parsing
type CmdFlag struct {
	Lst       string   // Jalign output
	Lst2      string   // Jalign input, lines match Lst line for line. If empty, follow the paths in Lst
	Star      string   // particles to be filtered
	Output    string   // default is <Lst stem>.star next to Lst
	Column    string   // field in Lst to filter on. Empty means keep everything
	Threshold *float64 // with Mode, one side of a cut on Column
	Mode      string   // gt or lt
	Greater   *float64 // keep values above this
	Less      *float64 // keep values below this. With Greater, a band
	Abs       bool     // compare |value|
	Partial   bool     // do not complain if some kept images are not in Star
}

// check looks at the flags before we touch any files. It gives back
// the cuts a value has to pass, all of them.
func (f *CmdFlag) check() ([]binning.Pred, error) {
	if f.Lst == "" || f.Star == "" {
		return nil, fmt.Errorf("need both a list and a star file: %w", common.ErrInvalidParam)
	}
	var preds []binning.Pred
	if f.Threshold != nil {
		mode := f.Mode
		if mode == "" {
			mode = "gt"
		}
		m, err := binning.ParseMode(mode)
		if err != nil {
			return nil, err
		}
		preds = append(preds, binning.Pred{Threshold: *f.Threshold, Mode: m, Abs: f.Abs})
	}
	if f.Greater != nil {
		preds = append(preds, binning.Pred{Threshold: *f.Greater, Mode: binning.Greater, Abs: f.Abs})
	}
	if f.Less != nil {
		preds = append(preds, binning.Pred{Threshold: *f.Less, Mode: binning.Less, Abs: f.Abs})
	}
	if f.Greater != nil && f.Less != nil && *f.Greater >= *f.Less {
		return nil, fmt.Errorf("nothing is above %g and below %g: %w", *f.Greater, *f.Less, common.ErrInvalidParam)
	}
	if (f.Column == "") != (len(preds) == 0) {
		return nil, fmt.Errorf("a column needs a threshold and a threshold needs a column: %w", common.ErrInvalidParam)
	}
	return preds, nil
}

// DefaultOutput is the list name with .star in place of .lst.
func DefaultOutput(lstName string) string {
	base := filepath.Base(lstName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(lstName), stem+".star")
}

// candidates gives back the records whose fields we filter on, and
// the RELION image name of each one.
func candidates(flags *CmdFlag, warn common.Warner) (*lst.Document, []string, error) {
	out, err := lst.ReadFile(flags.Lst, warn)
	if err != nil {
		return nil, nil, err
	}
	if flags.Lst2 != "" {
		in, err := lst.ReadFile(flags.Lst2, warn)
		if err != nil {
			return nil, nil, err
		}
		tags, err := xref.Join(out, in)
		if err != nil {
			return nil, nil, fmt.Errorf("%s and %s: %w", flags.Lst, flags.Lst2, err)
		}
		return out, tags, nil
	}
	open := func(fname string) (*lst.Document, error) { return lst.ReadFile(fname, warn) }
	merged, err := xref.Resolve(out, filepath.Dir(flags.Lst), open, warn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", flags.Lst, err)
	}
	fmt.Printf("Merged %d of %d lines of %s with the lists they came from\n", len(merged.Recs), len(out.Recs), flags.Lst)
	tags := make([]string, len(merged.Recs))
	for i, r := range merged.Recs {
		tags[i] = r.Tag()
	}
	return merged, tags, nil
}

// FilterStar keeps the rows of every table with image names whose name
// is in keep. Tables left empty are dropped. Other blocks are passed
// through. It also returns the number of rows kept and the names in
// keep that were never found.
func FilterStar(doc *star.Document, keep map[string]bool, warn common.Warner) (*star.Document, int, []string) {
	if warn == nil {
		warn = common.Quiet
	}
	found := make(map[string]bool, len(keep))
	var nkept int
	var ret = &star.Document{Header: doc.Header}
	for _, b := range doc.Blocks {
		ic, err := b.Col(ImageCol)
		if err != nil {
			ret.Append(b)
			continue
		}
		nb := b.Select(func(_ int, r star.Row) bool {
			if keep[r[ic]] {
				found[r[ic]] = true
				return true
			}
			return false
		})
		if nb.NRow() == 0 {
			warn("skipping block data_%s, no particles kept", b.Name)
			continue
		}
		nkept += nb.NRow()
		ret.Append(nb)
	}
	var missing []string
	for t := range keep {
		if !found[t] {
			missing = append(missing, t)
		}
	}
	slices.Sort(missing)
	return ret, nkept, missing
}

// Mymain does the work after the command line has been parsed.
func Mymain(flags *CmdFlag) error {
	preds, err := flags.check()
	if err != nil {
		return err
	}
	warn := common.Warnf
	output := flags.Output
	if output == "" {
		output = DefaultOutput(flags.Lst)
	}

	recs, tags, err := candidates(flags, warn)
	if err != nil {
		return err
	}
	var rows []int
	if flags.Column == "" {
		rows = make([]int, len(recs.Recs))
		for i := range rows {
			rows[i] = i
		}
	} else {
		get := func(i int) (string, bool) { return recs.Recs[i].Get(flags.Column) }
		entries, _ := binning.Collect(flags.Lst, len(recs.Recs), get, warn)
		rows = binning.Rows(binning.FilterAll(entries, preds...))
	}
	keep, err := xref.KeepSet(tags, rows)
	if err != nil {
		return err
	}
	fmt.Printf("Kept %d usable lines from %s\n", len(keep), flags.Lst)
	if len(keep) == 0 {
		return fmt.Errorf("no images kept in %s, check the Jalign lists: %w", flags.Lst, common.ErrEmptyResult)
	}

	doc, err := star.ReadFile(flags.Star, warn)
	if err != nil {
		return err
	}
	out, nkept, missing := FilterStar(doc, keep, warn)
	if nkept == 0 {
		return fmt.Errorf("no particles of %s kept, column %s: %w", flags.Star, ImageCol, common.ErrEmptyResult)
	}
	if len(missing) > 0 {
		if !flags.Partial {
			return fmt.Errorf("%d images from %s not in %s, for example %s: %w",
				len(missing), flags.Lst, flags.Star, missing[0], common.ErrXrefMismatch)
		}
		warn("%d images from %s not in %s", len(missing), flags.Lst, flags.Star)
	}
	if err := star.WriteFile(output, out); err != nil {
		return err
	}
	fmt.Printf("Wrote %d particles to %s\n", nkept, output)
	return nil
}
