package cmds

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-go-golems/apexlog/pkg/config"
	"github.com/go-go-golems/apexlog/pkg/eventjs"
	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/parser"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type rootOptions struct {
	Parser    parser.Options
	Scripts   []string
	JSTimeout string
	LogDate   time.Time
	logDate   string
}

func AddRootFlags(root *cobra.Command) {
	addRootFlags(root.PersistentFlags())
}

func addRootFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to config file (defaults to .apexlog.yaml in the current directory)")
	fs.Int("max-events", 0, "Stop after this many events (0: no limit)")
	fs.Int("max-line-length", 0, "Reject lines longer than this many bytes (0: 1 MiB)")
	fs.Int64("size-ceiling", 0, "Platform log size ceiling in bytes (0: 20 MiB)")
	fs.Float64("size-threshold", 0, "Percent of the size ceiling at which a log counts as truncated (0: 95)")
	fs.StringSlice("js", nil, "JavaScript event filter modules, applied in order")
	fs.String("js-timeout", "", "Per-hook JS timeout (e.g. 50ms)")
	fs.String("log-date", "", "Calendar date of the log, used to anchor wall-clock times (any common layout)")
}

func getRootOptions(cmd *cobra.Command) (rootOptions, error) {
	fs := cmd.Root().PersistentFlags()

	cfgPath, err := fs.GetString("config")
	if err != nil {
		return rootOptions{}, err
	}
	if cfgPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return rootOptions{}, err
		}
		cfgPath = config.DefaultPath(cwd)
	}
	cfgPath, err = filepath.Abs(cfgPath)
	if err != nil {
		return rootOptions{}, err
	}
	cfg, err := config.LoadOptional(cfgPath)
	if err != nil {
		return rootOptions{}, err
	}

	if fs.Changed("max-events") {
		if cfg.MaxEvents, err = fs.GetInt("max-events"); err != nil {
			return rootOptions{}, err
		}
	}
	if fs.Changed("max-line-length") {
		if cfg.MaxLineLength, err = fs.GetInt("max-line-length"); err != nil {
			return rootOptions{}, err
		}
	}
	if fs.Changed("size-ceiling") {
		if cfg.SizeCeilingBytes, err = fs.GetInt64("size-ceiling"); err != nil {
			return rootOptions{}, err
		}
	}
	if fs.Changed("size-threshold") {
		if cfg.SizeThresholdPercent, err = fs.GetFloat64("size-threshold"); err != nil {
			return rootOptions{}, err
		}
	}
	if fs.Changed("js") {
		if cfg.Scripts, err = fs.GetStringSlice("js"); err != nil {
			return rootOptions{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return rootOptions{}, err
	}

	opts := rootOptions{
		Parser:  cfg.Options(),
		Scripts: cfg.Scripts,
	}
	if opts.JSTimeout, err = fs.GetString("js-timeout"); err != nil {
		return rootOptions{}, err
	}
	if opts.logDate, err = fs.GetString("log-date"); err != nil {
		return rootOptions{}, err
	}
	if opts.logDate != "" {
		if opts.LogDate, err = eventjs.ParseLogDate(opts.logDate); err != nil {
			return rootOptions{}, err
		}
	}

	log.Debug().
		Str("config", cfgPath).
		Int("maxEvents", opts.Parser.MaxEvents).
		Strs("scripts", opts.Scripts).
		Msg("resolved options")
	return opts, nil
}

// loadChain returns nil when no scripts are configured. Each caller gets its
// own runtimes; a chain must not be shared between goroutines.
func (o rootOptions) loadChain(ctx context.Context) (*eventjs.Chain, error) {
	if len(o.Scripts) == 0 {
		return nil, nil
	}
	return eventjs.LoadChainFromFiles(ctx, o.Scripts, eventjs.Options{
		HookTimeout: o.JSTimeout,
		LogDate:     o.logDate,
	})
}

// wallClock anchors an event's time of day on the configured log date.
func (o rootOptions) wallClock(e *events.Event) *time.Time {
	if o.LogDate.IsZero() || e == nil || e.WallClockMillis <= 0 {
		return nil
	}
	t := o.LogDate.Add(time.Duration(e.WallClockMillis) * time.Millisecond)
	return &t
}

// openInput opens path, or stdin for "" and "-". The label names the input
// in output and logs.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "open input")
	}
	return f, path, nil
}

func checkFormat(format string) error {
	if format != "ndjson" && format != "pretty" {
		return errors.New("--format must be ndjson or pretty")
	}
	return nil
}
