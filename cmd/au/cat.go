package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"

	austream "github.com/jpl-au/austream"
)

type catFlags struct {
	Positional struct {
		File string `positional-arg-name:"file"`
	} `positional-args:"yes" required:"1"`
}

func runCat(args []string) int {
	var cf catFlags
	parser := flags.NewParser(&cf, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		exitOnFlagsErr(err)
	}
	if cf.Positional.File == "" {
		fmt.Fprintln(os.Stderr, "au cat: a file path is required")
		return 1
	}

	sr, err := austream.Open(cf.Positional.File)
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	defer sr.Close()

	w := os.Stdout
	for {
		v, err := sr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			logger.Errorln(err)
			return 1
		}
		line, err := austream.ToJSONLine(v)
		if err != nil {
			logger.Errorln(err)
			return 1
		}
		fmt.Fprint(w, line)
	}
	return 0
}
