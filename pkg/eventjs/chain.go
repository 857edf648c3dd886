package eventjs

import (
	"context"
	"strings"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/pkg/errors"
)

// Chain runs modules in order over each event. An event is kept only if every
// module keeps it; tags and fields accumulate, later modules winning on key
// clashes. Modules that transform also tag the result with their own tag.
type Chain struct {
	Modules []*Module
}

func LoadChainFromFiles(ctx context.Context, scriptPaths []string, opts Options) (*Chain, error) {
	out := &Chain{Modules: make([]*Module, 0, len(scriptPaths))}
	for _, p := range scriptPaths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		m, err := LoadFromFile(ctx, p, opts)
		if err != nil {
			_ = out.Close(ctx)
			return nil, errors.Wrapf(err, "load %s", p)
		}
		out.Modules = append(out.Modules, m)
	}
	if len(out.Modules) == 0 {
		return nil, errors.New("eventjs: at least one module script is required")
	}
	return out, nil
}

func (c *Chain) Close(ctx context.Context) error {
	var firstErr error
	for _, m := range c.Modules {
		if m == nil {
			continue
		}
		if err := m.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Chain) ProcessEvent(ctx context.Context, ev *events.Event) (*Result, []*ErrorRecord, error) {
	out := &Result{Event: ev}
	var errs []*ErrorRecord
	for _, m := range c.Modules {
		if m == nil {
			continue
		}
		res, rec, err := m.ProcessEvent(ctx, ev)
		if err != nil {
			return nil, errs, err
		}
		if rec != nil {
			errs = append(errs, rec)
		}
		if res == nil {
			return nil, errs, nil
		}
		merge(out, res)
		if m.transformFn != nil {
			out.Tags = appendTag(out.Tags, m.Tag())
		}
	}
	return out, errs, nil
}

func (c *Chain) Stats() map[string]Stats {
	out := make(map[string]Stats, len(c.Modules))
	for _, m := range c.Modules {
		out[m.Name()] = m.Stats()
	}
	return out
}

func merge(dst, src *Result) {
	for _, t := range src.Tags {
		dst.Tags = appendTag(dst.Tags, t)
	}
	if len(src.Fields) == 0 {
		return
	}
	if dst.Fields == nil {
		dst.Fields = map[string]any{}
	}
	for k, v := range src.Fields {
		dst.Fields[k] = v
	}
}
