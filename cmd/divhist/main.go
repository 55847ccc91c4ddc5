// 9 Aug 2025

package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	. "github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/divhist"
)

var cli struct {
	Input    string   `short:"i" required:"" type:"existingfile" help:"Input .star or .lst file"`
	Column   string   `short:"c" required:"" help:"Column or field to bin on"`
	Bins     int      `short:"b" default:"10" help:"Number of bins"`
	Min      *float64 `help:"Lower end of the range (default: smallest value)"`
	Max      *float64 `help:"Upper end of the range (default: largest value)"`
	SameSize bool     `name:"samesize" help:"Same number of particles in each bin, instead of same width"`
	Abs      bool     `help:"Bin the absolute value"`
	OnlyHist bool     `name:"onlyhist" help:"Only draw the histogram, do not write bin files"`
	OutDir   string   `short:"o" name:"output-dir" default:"." help:"Directory for the output"`
	Prefix   string   `short:"p" help:"Prefix for output files (default: input name)"`
}

func main() {
	parser, err := kong.New(&cli,
		kong.Name("divhist"),
		kong.Description("Split a star or lst file into bins by one column and draw the histogram."))
	if err != nil {
		panic(err)
	}
	if _, err := parser.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsageError)
	}
	flags := divhist.CmdFlag{
		Input: cli.Input, Column: cli.Column, Bins: cli.Bins,
		Min: cli.Min, Max: cli.Max, SameSize: cli.SameSize, Abs: cli.Abs,
		OnlyHist: cli.OnlyHist, OutDir: cli.OutDir, Prefix: cli.Prefix,
	}
	if err := divhist.Mymain(&flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
}
