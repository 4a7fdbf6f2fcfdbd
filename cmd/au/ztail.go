package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"

	austream "github.com/jpl-au/austream"
)

type ztailFlags struct {
	IndexPath string `short:"x" long:"index" description:"sidecar index path (default <file>.auzx)"`
	Bytes     int64  `short:"b" long:"bytes" description:"start this many uncompressed bytes before EOF" default:"65536"`

	Positional struct {
		File string `positional-arg-name:"file"`
	} `positional-args:"yes" required:"1"`
}

// runZtail tails a gzipped AuStream through its auzx index: unlike
// plain tail, the random-access ZipByteSource lets it seek near EOF
// without decompressing the whole member first.
func runZtail(args []string) int {
	var zf ztailFlags
	parser := flags.NewParser(&zf, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		exitOnFlagsErr(err)
	}
	if zf.Positional.File == "" {
		fmt.Fprintln(os.Stderr, "au ztail: a gzipped file path is required")
		return 1
	}

	f, err := os.Open(zf.Positional.File)
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	defer f.Close()

	src, err := austream.OpenGzip(f, zf.Positional.File, zf.IndexPath)
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	defer src.Close()

	size, ok := src.Size()
	if !ok {
		logger.Errorln("au ztail: index does not support random access")
		return 1
	}
	start := size - zf.Bytes
	if start < 0 {
		start = 0
	}
	if err := src.Seek(start); err != nil {
		logger.Errorln(err)
		return 1
	}

	dict := austream.NewDictionary(4)
	pos, err := austream.Sync(src, dict)
	if err != nil {
		if serr := src.Seek(0); serr != nil {
			logger.Errorln(serr)
			return 1
		}
		pos, err = austream.Sync(src, dict)
		if err != nil {
			logger.Errorln(err)
			return 1
		}
	}
	if err := src.Seek(pos); err != nil {
		logger.Errorln(err)
		return 1
	}

	dec := austream.NewDecoderWithDictionary(src, dict)
	for {
		v, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0
			}
			logger.Errorln(err)
			return 1
		}
		line, err := austream.ToJSONLine(v)
		if err != nil {
			logger.Errorln(err)
			return 1
		}
		fmt.Print(line)
	}
}
