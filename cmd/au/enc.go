package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	austream "github.com/jpl-au/austream"
)

type encFlags struct {
	Output string `short:"O" long:"output" description:"output .au path" required:"true"`

	Positional struct {
		Input string `positional-arg-name:"input"`
	} `positional-args:"yes"`
}

// runEnc implements both the "enc" and "json2au" subcommands: they are
// the same operation (spec §6 lists them as distinct CLI entry points
// onto the same JSON→Au converter).
func runEnc(args []string) int {
	var ef encFlags
	parser := flags.NewParser(&ef, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		exitOnFlagsErr(err)
	}

	var in *os.File
	var err error
	if ef.Positional.Input == "" || ef.Positional.Input == "-" {
		in = os.Stdin
	} else {
		in, err = os.Open(ef.Positional.Input)
		if err != nil {
			logger.Errorln(err)
			return 1
		}
		defer in.Close()
	}

	sw, err := austream.Create(ef.Output)
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	defer sw.Close()

	n, err := austream.ConvertJSONLines(in, sw.Encoder)
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	logger.Debugf("encoded %d records to %s", n, ef.Output)
	fmt.Printf("%d records written\n", n)
	return 0
}
