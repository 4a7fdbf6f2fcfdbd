// Command au is the CLI surface over the austream package: cat, tail,
// grep, zgrep, enc, json2au, stats, zindex and ztail, each a thin
// wrapper dispatching into the core library (spec.md §1's explicit
// out-of-scope collaborators: argument parsing, file discovery,
// terminal decoration). Grounded on
// opensciencegrid-xrootd-monitoring-shoveler's go-flags + logrus +
// pterm CLI layer.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

type subcommand struct {
	name string
	desc string
	run  func(args []string) int
}

var subcommands = []subcommand{
	{"cat", "decode a stream to JSON text", runCat},
	{"tail", "follow a stream, printing new records as JSON", runTail},
	{"grep", "search a stream for matching records", runGrep},
	{"zgrep", "search a gzipped stream using its auzx index", runZgrep},
	{"enc", "encode JSON lines into an AuStream file", runEnc},
	{"json2au", "alias for enc", runEnc},
	{"stats", "summarize record and value counts", runStats},
	{"zindex", "build an auzx sidecar index for a gzipped stream", runZindex},
	{"ztail", "tail a gzipped stream via its auzx index", runZtail},
}

func main() {
	logger.SetLevel(logrus.WarnLevel)
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	name := os.Args[1]
	if name == "-h" || name == "--help" {
		usage()
		os.Exit(0)
	}
	for _, sc := range subcommands {
		if sc.name == name {
			os.Exit(sc.run(os.Args[2:]))
		}
	}
	fmt.Fprintf(os.Stderr, "au: unknown subcommand %q\n", name)
	usage()
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: au <subcommand> [options]")
	fmt.Fprintln(os.Stderr, "subcommands:")
	for _, sc := range subcommands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", sc.name, sc.desc)
	}
	fmt.Fprintln(os.Stderr, "each subcommand supports -h for its own options")
}
