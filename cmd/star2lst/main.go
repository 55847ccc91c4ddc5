// 30 Sep 2025

package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	. "github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/star2lst"
)

var cli struct {
	Star string `arg:"" type:"existingfile" help:"RELION 3.1 particle .star file"`
	Lst  string `help:"Output .lst file (default: star file name ending in .lst)"`
}

func main() {
	parser, err := kong.New(&cli,
		kong.Name("star2lst"),
		kong.Description("Convert a RELION 3.1 star file to an EMAN2 .lst file."))
	if err != nil {
		panic(err)
	}
	if _, err := parser.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsageError)
	}
	if err := star2lst.Mymain(&star2lst.CmdFlag{Star: cli.Star, Lst: cli.Lst}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
}
