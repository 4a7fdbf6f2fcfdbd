package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/jessevdk/go-flags"

	austream "github.com/jpl-au/austream"
)

type statsFlags struct {
	Positional struct {
		File string `positional-arg-name:"file"`
	} `positional-args:"yes" required:"1"`
}

func runStats(args []string) int {
	var sf statsFlags
	parser := flags.NewParser(&sf, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		exitOnFlagsErr(err)
	}
	if sf.Positional.File == "" {
		fmt.Fprintln(os.Stderr, "au stats: a file path is required")
		return 1
	}

	sr, err := austream.Open(sf.Positional.File)
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	defer sr.Close()

	st, err := austream.ComputeStats(sr.Source())
	if err != nil {
		logger.Errorln(err)
		return 1
	}

	fmt.Printf("header records: %d\n", st.HeaderRecords)
	fmt.Printf("clear records:  %d\n", st.ClearRecords)
	fmt.Printf("add records:    %d\n", st.AddRecords)
	fmt.Printf("value records:  %d\n", st.ValueRecords)
	fmt.Printf("dict entries:   %d\n", st.DictEntries)

	types := make([]string, 0, len(st.TypeCounts))
	for k := range st.TypeCounts {
		types = append(types, k)
	}
	sort.Strings(types)
	for _, k := range types {
		fmt.Printf("  %-8s %d\n", k, st.TypeCounts[k])
	}
	return 0
}
