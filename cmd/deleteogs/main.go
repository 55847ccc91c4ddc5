// 27 Sep 2025

package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	. "github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/deleteogs"
)

var cli struct {
	Tomos    string `short:"t" name:"matching_tomograms" required:"" type:"existingfile" help:"Input matching_tomograms.star"`
	Matching string `short:"m" required:"" type:"existingfile" help:"Input matching.star"`
	OGs      []int  `name:"og" required:"" sep:"," help:"Optics groups to delete, e.g. --og 3,5"`
	OutDir   string `short:"o" default:"." help:"Directory for the output"`
}

func main() {
	parser, err := kong.New(&cli,
		kong.Name("deleteogs"),
		kong.Description("Delete optics groups from WarpTools matching files and renumber the rest."))
	if err != nil {
		panic(err)
	}
	if _, err := parser.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsageError)
	}
	flags := deleteogs.CmdFlag{Tomos: cli.Tomos, Matching: cli.Matching, OGs: cli.OGs, OutDir: cli.OutDir}
	if err := deleteogs.Mymain(&flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
}
