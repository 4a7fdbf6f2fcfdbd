package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pterm/pterm"

	austream "github.com/jpl-au/austream"
)

type zindexFlags struct {
	IndexPath  string `short:"x" long:"index" description:"sidecar index path (default <file>.auzx)"`
	IndexEvery int64  `short:"e" long:"every" description:"uncompressed bytes between access points" default:"8388608"`

	Positional struct {
		File string `positional-arg-name:"file"`
	} `positional-args:"yes" required:"1"`
}

func runZindex(args []string) int {
	var zf zindexFlags
	parser := flags.NewParser(&zf, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		exitOnFlagsErr(err)
	}
	if zf.Positional.File == "" {
		fmt.Fprintln(os.Stderr, "au zindex: a gzipped file path is required")
		return 1
	}
	indexPath := zf.IndexPath
	if indexPath == "" {
		indexPath = zf.Positional.File + ".auzx"
	}

	spinner, _ := pterm.DefaultSpinner.Start("Building index for " + zf.Positional.File)
	if err := austream.BuildZindex(zf.Positional.File, indexPath, zf.IndexEvery); err != nil {
		spinner.Fail(err.Error())
		return 1
	}
	spinner.Success("Wrote " + indexPath)
	return 0
}
