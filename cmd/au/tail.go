package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	austream "github.com/jpl-au/austream"
)

type tailFlags struct {
	Follow bool `short:"f" long:"follow" description:"keep reading as the file grows, like tail -f"`
	Bytes  int64 `short:"b" long:"bytes" description:"start this many bytes before EOF instead of at EOF" default:"65536"`

	Positional struct {
		File string `positional-arg-name:"file"`
	} `positional-args:"yes" required:"1"`
}

// waitForData implements spec §5's "sleep when tailing" suspension
// point: a plain one-second poll, grounded on original_source/src/
// Tail.h's waitForData loop.
func waitForData(src austream.ByteSource, size func() (int64, bool)) {
	for {
		if sz, ok := size(); ok && sz > src.Pos() {
			return
		}
		time.Sleep(time.Second)
	}
}

func runTail(args []string) int {
	var tf tailFlags
	parser := flags.NewParser(&tf, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		exitOnFlagsErr(err)
	}
	if tf.Positional.File == "" {
		fmt.Fprintln(os.Stderr, "au tail: a file path is required")
		return 1
	}

	src, err := austream.OpenFile(tf.Positional.File)
	if err != nil {
		logger.Errorln(err)
		return 1
	}
	defer src.Close()

	size, hasSize := src.Size()
	if !hasSize {
		logger.Errorln("au tail: source does not support seeking")
		return 1
	}
	start := size - tf.Bytes
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
		// Nothing to sync within the window; fall back to the start of
		// the file so the dictionary is trivially the first generation.
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
				if !tf.Follow {
					return 0
				}
				waitForData(src, src.Size)
				continue
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
