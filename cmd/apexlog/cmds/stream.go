package cmds

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/apexlog/pkg/eventbus"
	"github.com/go-go-golems/apexlog/pkg/parser"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// sink receives one streaming parse's output.
type sink interface {
	Event(eventbus.EventPayload) error
	Summary(parser.Summary) error
	Error(error) error
}

func newStreamCmd() *cobra.Command {
	var useBus bool

	cmd := &cobra.Command{
		Use:   "stream [file]",
		Short: "Parse a log in streaming mode and print events as ndjson as they complete",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			r, label, err := openInput(cmd, path)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			bw := bufio.NewWriter(cmd.OutOrStdout())
			defer func() { _ = bw.Flush() }()

			if !useBus {
				return runStream(cmd.Context(), opts, r, newJSONSink(bw))
			}
			return runStreamOverBus(cmd.Context(), opts, r, label, bw)
		},
	}

	cmd.Flags().BoolVar(&useBus, "bus", false, "Route events through the in-process message bus")
	return cmd
}

func runStream(ctx context.Context, opts rootOptions, r io.Reader, out sink) error {
	chain, err := opts.loadChain(ctx)
	if err != nil {
		return err
	}
	if chain != nil {
		defer func() { _ = chain.Close(ctx) }()
	}

	var sum parser.Summary
	for it, perr := range parser.StreamReader(r, opts.Parser, &sum) {
		if perr != nil {
			log.Warn().Err(perr).Msg("stream failed")
			return out.Error(perr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		payload := eventbus.EventPayload{StreamItem: it, Time: opts.wallClock(it.Event)}
		if chain != nil {
			res, recs, err := chain.ProcessEvent(ctx, it.Event)
			if err != nil {
				return err
			}
			for _, rec := range recs {
				log.Warn().Str("module", rec.Module).Str("hook", rec.Hook).Int64("event", rec.EventID).Msg(rec.Message)
			}
			if res == nil {
				continue
			}
			payload.Annotate(res)
		}
		if err := out.Event(payload); err != nil {
			return err
		}
	}
	if chain != nil {
		for name, st := range chain.Stats() {
			log.Debug().Str("module", name).Int64("kept", st.EventsKept).Int64("dropped", st.EventsDropped).Msg("script stats")
		}
	}
	return out.Summary(sum)
}

type jsonSink struct {
	enc *json.Encoder
}

func newJSONSink(w io.Writer) *jsonSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &jsonSink{enc: enc}
}

func (s *jsonSink) Event(p eventbus.EventPayload) error {
	return errors.Wrap(s.enc.Encode(p), "encode event")
}

func (s *jsonSink) Summary(sum parser.Summary) error {
	return errors.Wrap(s.enc.Encode(map[string]any{"summary": sum}), "encode summary")
}

func (s *jsonSink) Error(err error) error {
	if pe, ok := parser.AsError(err); ok {
		if encErr := s.enc.Encode(map[string]any{"error": pe}); encErr != nil {
			return errors.Wrap(encErr, "encode error")
		}
	}
	return err
}

type busSink struct {
	pub *eventbus.Publisher
}

func (s *busSink) Event(p eventbus.EventPayload) error { return s.pub.PublishEvent(p) }

func (s *busSink) Summary(sum parser.Summary) error { return s.pub.PublishSummary(sum) }

func (s *busSink) Error(err error) error {
	if pubErr := s.pub.PublishError(err); pubErr != nil {
		return pubErr
	}
	return err
}

// runStreamOverBus publishes every item on the bus; a consumer handler writes
// the envelopes to w. Publishing blocks until the consumer acks, so when the
// parse returns every message has been written.
func runStreamOverBus(ctx context.Context, opts rootOptions, r io.Reader, label string, w io.Writer) error {
	bus, err := eventbus.NewInMemoryBus()
	if err != nil {
		return err
	}

	var mu sync.Mutex
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	bus.AddHandler("apexlog-ndjson", eventbus.TopicEvents, func(msg *message.Message) error {
		env, err := eventbus.Decode(msg)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		return errors.Wrap(enc.Encode(env), "encode envelope")
	})

	busCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(busCtx)
	eg.Go(func() error {
		err := bus.Run(egCtx)
		if stderrors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		select {
		case <-bus.Running():
		case <-egCtx.Done():
			return egCtx.Err()
		}
		defer cancel()
		return runStream(egCtx, opts, r, &busSink{pub: &eventbus.Publisher{Pub: bus.Publisher, Source: label}})
	})

	if err := eg.Wait(); err != nil {
		if pe, ok := parser.AsError(err); ok {
			return pe
		}
		if stderrors.Is(err, context.Canceled) && ctx.Err() == nil {
			return nil
		}
		return errors.Wrap(err, "stream")
	}
	return nil
}

var _ sink = (*jsonSink)(nil)
var _ sink = (*busSink)(nil)
