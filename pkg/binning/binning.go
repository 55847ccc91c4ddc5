// 22 Aug 2025

// Package binning picks rows by a number and divides them into
// buckets. It never sees the files. Callers hand over (row, value)
// pairs and get row numbers back.
package binning

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/huwl404/NiLab/pkg/common"
)

// Entry is the value of the field we are interested in, for one row.
type Entry struct {
	Row int
	Val float64
}

// Rows gives back the row numbers in order.
func Rows(e []Entry) []int {
	ret := make([]int, len(e))
	for i, x := range e {
		ret[i] = x.Row
	}
	return ret
}

// Collect pulls a number out of each of n rows. get returns the text
// of the field and false if the row does not have it. Rows without a
// usable number are left out and counted. src is only for messages.
func Collect(src string, n int, get func(i int) (string, bool), warn common.Warner) ([]Entry, int) {
	if warn == nil {
		warn = common.Quiet
	}
	entries := make([]Entry, 0, n)
	var nskip int
	for i := 0; i < n; i++ {
		s, ok := get(i)
		if !ok {
			warn("%v", &common.RowError{Src: src, Desc: fmt.Sprintf("row %d: field missing, skipping", i+1)})
			nskip++
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			warn("%v", &common.RowError{Src: src, Desc: fmt.Sprintf("row %d: \"%s\" is not a number, skipping", i+1, s)})
			nskip++
			continue
		}
		entries = append(entries, Entry{Row: i, Val: v})
	}
	return entries, nskip
}

// Mode says which side of the threshold to keep.
type Mode int

const (
	Greater Mode = iota // keep values > threshold
	Less                // keep values < threshold
)

func (m Mode) String() string {
	if m == Less {
		return "lt"
	}
	return "gt"
}

// ParseMode understands "gt" and "lt".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "gt":
		return Greater, nil
	case "lt":
		return Less, nil
	}
	return Greater, fmt.Errorf("mode \"%s\" should be gt or lt: %w", s, common.ErrInvalidParam)
}

// Pred is a filter. If Abs is set, |value| is compared.
type Pred struct {
	Threshold float64
	Mode      Mode
	Abs       bool
}

// Keep says if one value passes. Comparisons are strict, so NaN
// never passes.
func (p Pred) Keep(v float64) bool {
	if p.Abs {
		v = math.Abs(v)
	}
	if p.Mode == Less {
		return v < p.Threshold
	}
	return v > p.Threshold
}

// Filter returns the entries that pass, in their original order. The
// values themselves are not changed.
func Filter(entries []Entry, p Pred) []Entry {
	var ret []Entry
	for _, e := range entries {
		if p.Keep(e.Val) {
			ret = append(ret, e)
		}
	}
	return ret
}

// FilterAll keeps the entries that pass every one of preds. With
// no preds, everything passes.
func FilterAll(entries []Entry, preds ...Pred) []Entry {
	var ret []Entry
	for _, e := range entries {
		ok := true
		for _, p := range preds {
			ok = ok && p.Keep(e.Val)
		}
		if ok {
			ret = append(ret, e)
		}
	}
	return ret
}

// Abs returns a copy with every value replaced by its absolute value.
func Abs(entries []Entry) []Entry {
	ret := make([]Entry, len(entries))
	for i, e := range entries {
		ret[i] = Entry{Row: e.Row, Val: math.Abs(e.Val)}
	}
	return ret
}

// Range returns the smallest and largest finite values. With nothing
// finite, it is an EmptyResult error.
func Range(entries []Entry) (lo, hi float64, err error) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, e := range entries {
		if math.IsNaN(e.Val) || math.IsInf(e.Val, 0) {
			continue
		}
		lo, hi = min(lo, e.Val), max(hi, e.Val)
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("no finite values: %w", common.ErrEmptyResult)
	}
	return lo, hi, nil
}

// Bucket is the interval [Lo, Hi), or [Lo, Hi] if Last is set.
type Bucket struct {
	Lo, Hi  float64
	Last    bool
	Entries []Entry
}

func (b Bucket) String() string {
	closer := ")"
	if b.Last {
		closer = "]"
	}
	return fmt.Sprintf("[%.6g, %.6g%s", b.Lo, b.Hi, closer)
}

// Result of binning. Edges has one more element than Buckets. NSkip
// counts the entries that went into no bucket.
type Result struct {
	Buckets []Bucket
	Edges   []float64
	NSkip   int
}

// Included is the number of entries in all buckets.
func (r *Result) Included() int {
	var n int
	for _, b := range r.Buckets {
		n += len(b.Entries)
	}
	return n
}

func checkParam(nbin int, vmin, vmax float64) error {
	if nbin < 1 {
		return fmt.Errorf("%d bins, need at least 1: %w", nbin, common.ErrInvalidParam)
	}
	if math.IsNaN(vmin) || math.IsNaN(vmax) || math.IsInf(vmin, 0) || math.IsInf(vmax, 0) {
		return fmt.Errorf("range [%g, %g] is not finite: %w", vmin, vmax, common.ErrInvalidParam)
	}
	if vmin >= vmax {
		return fmt.Errorf("min (%g) must be < max (%g): %w", vmin, vmax, common.ErrInvalidParam)
	}
	return nil
}

// newResult makes the buckets from a set of edges.
func newResult(edges []float64) *Result {
	nbin := len(edges) - 1
	r := &Result{Edges: edges, Buckets: make([]Bucket, nbin)}
	for i := range r.Buckets {
		r.Buckets[i] = Bucket{Lo: edges[i], Hi: edges[i+1], Last: i == nbin-1}
	}
	return r
}

// EqualWidth cuts [vmin, vmax] into nbin intervals of the same width.
// Values outside the range, or not finite, are skipped. A value of
// exactly vmax goes into the last bucket.
func EqualWidth(entries []Entry, nbin int, vmin, vmax float64) (*Result, error) {
	if err := checkParam(nbin, vmin, vmax); err != nil {
		return nil, err
	}
	step := (vmax - vmin) / float64(nbin)
	edges := make([]float64, nbin+1)
	for i := range edges {
		edges[i] = vmin + float64(i)*step
	}
	r := newResult(edges)
	for _, e := range entries {
		v := e.Val
		if math.IsNaN(v) || math.IsInf(v, 0) || v < vmin || v > vmax {
			r.NSkip++
			continue
		}
		i := nbin - 1
		if v != vmax {
			i = int(math.Floor((v - vmin) / step))
			i = max(0, min(i, nbin-1))
		}
		r.Buckets[i].Entries = append(r.Buckets[i].Entries, e)
	}
	if r.Included() == 0 {
		return nil, fmt.Errorf("nothing in [%g, %g]: %w", vmin, vmax, common.ErrEmptyResult)
	}
	return r, nil
}

// EqualCount sorts the values in [vmin, vmax] and deals them out so
// each bucket gets the same number, give or take one. The edges are
// the values where the cuts fall.
func EqualCount(entries []Entry, nbin int, vmin, vmax float64) (*Result, error) {
	if err := checkParam(nbin, vmin, vmax); err != nil {
		return nil, err
	}
	var in []Entry
	for _, e := range entries {
		if e.Val >= vmin && e.Val <= vmax {
			in = append(in, e)
		}
	}
	if len(in) == 0 {
		return nil, fmt.Errorf("nothing in [%g, %g]: %w", vmin, vmax, common.ErrEmptyResult)
	}
	slices.SortStableFunc(in, func(a, b Entry) int {
		switch {
		case a.Val < b.Val:
			return -1
		case a.Val > b.Val:
			return 1
		}
		return 0
	})
	total := len(in)
	cut := make([]int, nbin+1)
	edges := make([]float64, nbin+1)
	for i := range cut {
		cut[i] = int(math.RoundToEven(float64(i) * float64(total) / float64(nbin)))
		if cut[i] < total {
			edges[i] = in[cut[i]].Val
		} else {
			edges[i] = in[total-1].Val
		}
	}
	r := newResult(edges)
	r.NSkip = len(entries) - total
	for i := range r.Buckets {
		r.Buckets[i].Entries = slices.Clone(in[cut[i]:cut[i+1]])
	}
	return r, nil
}
