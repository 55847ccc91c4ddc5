// 20 Aug 2025

package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	. "github.com/huwl404/NiLab/pkg/common"
	"github.com/huwl404/NiLab/pkg/lst2star"
)

var cli struct {
	Lst       string   `required:"" type:"existingfile" help:"Jalign output .lst file"`
	Lst2      string   `type:"existingfile" help:"Jalign input .lst file, matching --lst line for line"`
	Star      string   `required:"" type:"existingfile" help:"RELION particle .star file to filter"`
	Output    string   `short:"o" help:"Output .star file (default: <lst stem>.star next to --lst)"`
	Column    string   `short:"c" help:"Field of --lst to filter on, e.g. score"`
	Threshold *float64 `short:"t" help:"Keep particles past this value of --column"`
	Mode      string   `default:"gt" enum:"gt,lt" help:"gt keeps values above the threshold, lt below"`
	Greater   *float64 `name:"greaterthan" help:"Keep particles with --column above this"`
	Less      *float64 `name:"lessthan" help:"Keep particles with --column below this. With --greaterthan, a band"`
	Abs       bool     `help:"Compare the absolute value"`
	Partial   bool     `help:"Do not fail if some kept images are not in --star"`
}

func main() {
	parser, err := kong.New(&cli,
		kong.Name("lst2star"),
		kong.Description("Keep the particles of a star file that survive a Jalign run."))
	if err != nil {
		panic(err)
	}
	if _, err := parser.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsageError)
	}
	flags := lst2star.CmdFlag{
		Lst: cli.Lst, Lst2: cli.Lst2, Star: cli.Star, Output: cli.Output,
		Column: cli.Column, Threshold: cli.Threshold, Mode: cli.Mode,
		Greater: cli.Greater, Less: cli.Less,
		Abs: cli.Abs, Partial: cli.Partial,
	}
	if err := lst2star.Mymain(&flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
}
