// 26 Sep 2025

package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	. "github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/splitmatch"
)

var cli struct {
	Tomos    string   `short:"t" name:"matching_tomograms" required:"" type:"existingfile" help:"Input matching_tomograms.star"`
	Matching string   `short:"m" required:"" type:"existingfile" help:"Input matching.star"`
	Dose     *float64 `short:"d" help:"Per-tilt dose. If given, rlnTomoImportFractionalDose is set to it"`
	OutDir   string   `short:"o" default:"." help:"Directory for the output"`
}

func main() {
	parser, err := kong.New(&cli,
		kong.Name("splitmatch"),
		kong.Description("Split WarpTools matching files into two optimisation sets."))
	if err != nil {
		panic(err)
	}
	if _, err := parser.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsageError)
	}
	flags := splitmatch.CmdFlag{Tomos: cli.Tomos, Matching: cli.Matching, Dose: cli.Dose, OutDir: cli.OutDir}
	if err := splitmatch.Mymain(&flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
}
