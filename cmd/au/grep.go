package main

import (
	"fmt"
	"os"

	austream "github.com/jpl-au/austream"
)

func runGrep(args []string) int {
	gf, rest, err := parseGrepFlags(args)
	exitOnFlagsErr(err)
	if len(rest) > 0 && gf.Positional.Pattern == "" {
		gf.Positional.Pattern = rest[0]
		if len(rest) > 1 {
			gf.Positional.File = rest[1]
		}
	}
	if gf.pattern() == "" {
		fmt.Fprintln(os.Stderr, "au grep: a pattern is required")
		return 1
	}

	sr, err := openStreamArg(gf.Positional.File)
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	defer sr.Close()

	pattern, err := gf.buildPattern()
	if err != nil {
		logger.Errorln(err)
		return 1
	}

	matches, err := austream.Grep(sr.Source(), austream.GrepOptions{
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

func printMatches(matches []austream.Match, gf *grepFlags) int {
	if gf.CountOnly {
		fmt.Println(len(matches))
		return exitCodeForMatches(len(matches))
	}
	for _, m := range matches {
		if gf.ListOnly {
			fmt.Println(m.Pos)
			continue
		}
		line, err := austream.ToJSONLine(m.Value)
		if err != nil {
			logger.Errorln(err)
			return 1
		}
		fmt.Print(line)
	}
	return exitCodeForMatches(len(matches))
}

func exitCodeForMatches(n int) int {
	if n == 0 {
		return 1
	}
	return 0
}

// openStreamArg opens path for reading; an empty path (stdin) is
// rejected with an error.
func openStreamArg(path string) (*austream.StreamReader, error) {
	if path == "" {
		return nil, fmt.Errorf("au: reading from stdin is not yet wired; pass a file path")
	}
	return austream.Open(path)
}
