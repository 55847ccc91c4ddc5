// 21 Aug 2025

// Package xref ties EMAN2 lists back to RELION image names.
//
// Jalign writes its scores into a list whose lines follow the lines of
// its input list. Row i of one goes with row i of the other, whatever
// the image numbers say.
package xref

import (
	"fmt"
	"path/filepath"

	"github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/lst"
)

// Join pairs the records of a and b by position and returns, for each
// row, the image name from b.
func Join(a, b *lst.Document) ([]string, error) {
	if len(a.Recs) != len(b.Recs) {
		return nil, fmt.Errorf("%d records in one list, %d in the other: %w",
			len(a.Recs), len(b.Recs), common.ErrXrefMismatch)
	}
	tags := make([]string, len(b.Recs))
	for i, r := range b.Recs {
		tags[i] = r.Tag()
	}
	return tags, nil
}

// KeepSet gives the set of image names for the selected rows.
func KeepSet(tags []string, rows []int) (map[string]bool, error) {
	keep := make(map[string]bool, len(rows))
	for _, i := range rows {
		if i < 0 || i >= len(tags) {
			return nil, fmt.Errorf("row %d, but only %d image names: %w", i, len(tags), common.ErrXrefMismatch)
		}
		keep[tags[i]] = true
	}
	return keep, nil
}

// Opener reads a list. lst.ReadFile is the usual one, tests swap in
// something that does not touch the disk.
type Opener func(fname string) (*lst.Document, error)

// Resolve follows a Jalign output list back to the lists it was run
// on. Each record of out names an input list, relative to dir, and
// an index into that list's records. The result has the referenced
// input record with out's fields added.
// Lines that point nowhere are skipped with a warning.
func Resolve(out *lst.Document, dir string, open Opener, warn common.Warner) (*lst.Document, error) {
	if len(out.Recs) == 0 {
		return nil, fmt.Errorf("no records in the Jalign list: %w", common.ErrEmptyResult)
	}
	if warn == nil {
		warn = common.Quiet
	}
	type cached struct {
		doc *lst.Document
		err error
	}
	cache := make(map[string]cached)
	ret := &lst.Document{}
	for i, r := range out.Recs {
		c, ok := cache[r.Path]
		if !ok {
			fname := r.Path
			if !filepath.IsAbs(fname) {
				fname = filepath.Join(dir, fname)
			}
			c.doc, c.err = open(fname)
			cache[r.Path] = c
		}
		if c.err != nil {
			warn("%v", &common.RowError{Desc: fmt.Sprintf("record %d: %v", i+1, c.err)})
			continue
		}
		if r.Ndx < 0 || r.Ndx >= len(c.doc.Recs) {
			warn("%v", &common.RowError{Desc: fmt.Sprintf("record %d: index %d out of range, %s has %d records",
				i+1, r.Ndx, r.Path, len(c.doc.Recs))})
			continue
		}
		ret.Recs = append(ret.Recs, c.doc.Recs[r.Ndx].With(r.Fields...))
	}
	return ret, nil
}
