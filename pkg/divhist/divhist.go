// 9 Aug 2025

// Package divhist splits a star or lst file into bins by the value in
// one column and draws the histogram.
package divhist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huwl404/NiLab/pkg/binning"
	"github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/hist"
	"github.com/huwl404/NiLab/pkg/lst"
	"github.com/huwl404/NiLab/pkg/slurp"
	"github.com/huwl404/NiLab/pkg/star"
)

// CmdFlag is the command line after parsing
type CmdFlag struct {
	Input    string
	Column   string
	Bins     int
	Min, Max *float64 // nil means use the data range
	SameSize bool     // same number of particles per bin
	Abs      bool
	OnlyHist bool // no bin files, only the picture
	OutDir   string
	Prefix   string // default is the input file name without extension
}

// Kind of input
type Kind int

const (
	Unknown Kind = iota
	LST
	STAR
)

func (k Kind) String() string {
	switch k {
	case LST:
		return "lst"
	case STAR:
		return "star"
	}
	return "unknown"
}

var zipExt = []string{".gz", ".zst", ".xz"}

// stem is the file name without directory, compression or type
// extension.
func stem(fname string) string {
	base := filepath.Base(fname)
	for _, z := range zipExt {
		base = strings.TrimSuffix(base, z)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// kindFromExt looks only at the name.
func kindFromExt(fname string) Kind {
	base := fname
	for _, z := range zipExt {
		base = strings.TrimSuffix(base, z)
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".lst":
		return LST
	case ".star":
		return STAR
	}
	return Unknown
}

// kindFromText reads lines until one gives the game away.
func kindFromText(r io.Reader) Kind {
	scnr := bufio.NewScanner(r)
	for scnr.Scan() {
		s := strings.TrimSpace(scnr.Text())
		switch {
		case s == "":
		case strings.HasPrefix(s, lst.Magic):
			return LST
		case strings.HasPrefix(strings.ToLower(s), "data_"), strings.HasPrefix(s, "loop_"), s[0] == '_':
			return STAR
		}
	}
	return Unknown
}

// DetectKind decides on the type of a file, by its extension if it has
// a useful one, otherwise by looking inside.
func DetectKind(fname string) (Kind, error) {
	if k := kindFromExt(fname); k != Unknown {
		return k, nil
	}
	k := Unknown
	err := slurp.File(fname, func(r io.Reader) error {
		k = kindFromText(r)
		return nil
	})
	if err != nil {
		return Unknown, err
	}
	if k == Unknown {
		return Unknown, fmt.Errorf("cannot tell if %s is lst or star, give it a .lst or .star extension: %w",
			fname, common.ErrInvalidParam)
	}
	return k, nil
}

// source hides the difference between the two file types. For each
// bucket, it knows how to write a file with just those rows.
type source struct {
	entries []binning.Entry
	write   func(fname string, rows []int) error
}

func lstSource(fname, col string, warn common.Warner) (*source, error) {
	doc, err := lst.ReadFile(fname, warn)
	if err != nil {
		return nil, err
	}
	get := func(i int) (string, bool) { return doc.Recs[i].Get(col) }
	entries, _ := binning.Collect(fname, len(doc.Recs), get, warn)
	write := func(out string, rows []int) error { return lst.WriteFile(out, doc.Subset(rows)) }
	return &source{entries: entries, write: write}, nil
}

func starSource(fname, col string, warn common.Warner) (*source, error) {
	doc, err := star.ReadFile(fname, warn)
	if err != nil {
		return nil, err
	}
	b, err := doc.Find(col)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	ic, _ := b.Col(col)
	get := func(i int) (string, bool) { return b.Rows[i][ic], true }
	entries, _ := binning.Collect(fname, b.NRow(), get, warn)
	write := func(out string, rows []int) error {
		sel := make([]star.Row, len(rows))
		for i, n := range rows {
			sel[i] = b.Rows[n]
		}
		nb, err := b.WithRows(sel)
		if err != nil {
			return err
		}
		return star.WriteFile(out, doc.Replace(nb))
	}
	return &source{entries: entries, write: write}, nil
}

func (f *CmdFlag) check() error {
	if f.Input == "" || f.Column == "" {
		return fmt.Errorf("need an input file and a column: %w", common.ErrInvalidParam)
	}
	if f.Bins < 1 {
		return fmt.Errorf("%d bins, need at least 1: %w", f.Bins, common.ErrInvalidParam)
	}
	if f.Min != nil && f.Max != nil && *f.Min >= *f.Max {
		return fmt.Errorf("min (%g) must be < max (%g): %w", *f.Min, *f.Max, common.ErrInvalidParam)
	}
	return nil
}

// Mymain does the work after the command line has been parsed.
func Mymain(flags *CmdFlag) error {
	if err := flags.check(); err != nil {
		return err
	}
	warn := common.Warnf
	kind, err := DetectKind(flags.Input)
	if err != nil {
		return err
	}
	prefix := flags.Prefix
	if prefix == "" {
		prefix = stem(flags.Input)
	}
	outdir := flags.OutDir
	if outdir == "" {
		outdir = "."
	}

	var src *source
	if kind == LST {
		src, err = lstSource(flags.Input, flags.Column, warn)
	} else {
		src, err = starSource(flags.Input, flags.Column, warn)
	}
	if err != nil {
		return err
	}
	entries := src.entries
	if len(entries) == 0 {
		return fmt.Errorf("no numbers in column %s of %s: %w", flags.Column, flags.Input, common.ErrEmptyResult)
	}
	if flags.Abs {
		entries = binning.Abs(entries)
		fmt.Printf("Converted column %s to absolute values before binning\n", flags.Column)
	}
	vmin, vmax, err := binning.Range(entries)
	if err != nil {
		return fmt.Errorf("column %s of %s: %w", flags.Column, flags.Input, err)
	}
	if flags.Min != nil {
		vmin = *flags.Min
	}
	if flags.Max != nil {
		vmax = *flags.Max
	}
	fmt.Printf("Input: %s\nColumn: %s\nBins: %d\nRange: [%g, %g]\n", flags.Input, flags.Column, flags.Bins, vmin, vmax)

	binner := binning.EqualWidth
	if flags.SameSize {
		binner = binning.EqualCount
	}
	res, err := binner(entries, flags.Bins, vmin, vmax)
	if err != nil {
		return fmt.Errorf("column %s of %s: %w", flags.Column, flags.Input, err)
	}
	fmt.Println("Skipped particles (out of range or non-finite):", res.NSkip)
	fmt.Println("Included particles:", res.Included())
	for i, b := range res.Buckets {
		fmt.Printf("Bin %d: %v -> %d particles\n", i+1, b, len(b.Entries))
	}

	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return err
	}
	if !flags.OnlyHist {
		for i, b := range res.Buckets {
			out := filepath.Join(outdir, fmt.Sprintf("%s_bin%d.%s", prefix, i+1, kind))
			if err := src.write(out, binning.Rows(b.Entries)); err != nil {
				return err
			}
			fmt.Printf("Wrote %d particles to %s\n", len(b.Entries), out)
		}
	}
	pngName := filepath.Join(outdir, prefix+"_histogram.png")
	opts := hist.Opts{Title: "Histogram of " + flags.Column, XLabel: flags.Column, Cuts: flags.SameSize}
	if err := hist.WritePNG(pngName, res, opts); err != nil {
		return err
	}
	fmt.Println("Saved histogram to", pngName)
	return nil
}
