package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-go-golems/apexlog/pkg/synth"
)

func main() {
	var opts synth.Options
	flag.IntVar(&opts.Units, "units", 50, "Number of top-level calls")
	flag.IntVar(&opts.Depth, "depth", 3, "Nesting depth of each call")
	flag.Int64Var(&opts.Step, "step", 1000, "Nanoseconds between lines")
	flag.DurationVar(&opts.Interval, "interval", 0, "Delay between lines")
	flag.IntVar(&opts.TruncateAfter, "truncate-after", 0, "Stop after this many events and append the size marker")
	flag.BoolVar(&opts.OmitFinish, "omit-finish", false, "Leave out EXECUTION_FINISHED")
	flag.Parse()

	start := time.Now()
	if err := synth.Write(os.Stdout, opts); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "log-spewer:", err)
		os.Exit(1)
	}
	_, _ = fmt.Fprintf(os.Stderr, "log-spewer: wrote %d events in %s\n", synth.Events(opts), time.Since(start))
}
