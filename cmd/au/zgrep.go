package main

import (
	"fmt"
	"os"

	austream "github.com/jpl-au/austream"
)

func runZgrep(args []string) int {
	gf, rest, err := parseGrepFlags(args)
	exitOnFlagsErr(err)
	if len(rest) > 0 && gf.Positional.Pattern == "" {
		gf.Positional.Pattern = rest[0]
		if len(rest) > 1 {
			gf.Positional.File = rest[1]
		}
	}
	if gf.pattern() == "" {
		fmt.Fprintln(os.Stderr, "au zgrep: a pattern is required")
		return 1
	}
	if gf.Positional.File == "" {
		fmt.Fprintln(os.Stderr, "au zgrep: a gzipped stream path is required")
		return 1
	}

	f, err := os.Open(gf.Positional.File)
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	defer f.Close()

	src, err := austream.OpenGzip(f, gf.Positional.File, gf.IndexPath)
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	defer src.Close()

	pattern, err := gf.buildPattern()
	if err != nil {
		logger.Errorln(err)
		return 1
	}

	matches, err := austream.Grep(src, austream.GrepOptions{
		Key:        gf.key(),
		Pattern:    pattern,
		Before:     gf.before(),
		After:      gf.after(),
		MaxMatches: gf.MaxMatches,
		OrGreater:  gf.OrGreater,
	})
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	return printMatches(matches, gf)
}
