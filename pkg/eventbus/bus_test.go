package eventbus

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/apexlog/pkg/parser"
	"github.com/stretchr/testify/require"
)

const smallLog = `00:00:00.000 (1)|EXECUTION_STARTED
00:00:00.000 (2)|METHOD_ENTRY|[1]|A.run
00:00:00.000 (9)|METHOD_EXIT|[1]|A.run
00:00:00.000 (10)|EXECUTION_FINISHED
`

func TestBus_PublishStream(t *testing.T) {
	bus, err := NewInMemoryBus()
	require.NoError(t, err)

	var mu sync.Mutex
	var got []Envelope
	done := make(chan struct{})
	bus.AddHandler("collect", TopicEvents, func(msg *message.Message) error {
		env, err := Decode(msg)
		if err != nil {
			return err
		}
		mu.Lock()
		got = append(got, env)
		mu.Unlock()
		if env.Type == TypeSummary {
			close(done)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bus.Run(ctx) }()
	<-bus.Running()

	pub := &Publisher{Pub: bus.Publisher, Source: "small.log"}
	var sum parser.Summary
	for it, err := range parser.Stream(strings.Lines(smallLog), parser.Options{}, &sum) {
		require.NoError(t, err)
		require.NoError(t, pub.PublishEvent(EventPayload{StreamItem: it}))
	}
	require.NoError(t, pub.PublishSummary(sum))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("summary not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 5)
	for _, env := range got[:4] {
		require.Equal(t, TypeEvent, env.Type)
		require.Equal(t, "small.log", env.Source)
	}

	var third map[string]any
	require.NoError(t, json.Unmarshal(got[2].Payload, &third))
	completed, ok := third["completed"].(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 7, completed["duration"])

	var s parser.Summary
	require.NoError(t, json.Unmarshal(got[4].Payload, &s))
	require.Equal(t, int64(4), s.Stats.TotalEvents)
}

func TestPublisher_Error(t *testing.T) {
	bus, err := NewInMemoryBus()
	require.NoError(t, err)

	envs := make(chan Envelope, 1)
	bus.AddHandler("errors", TopicEvents, func(msg *message.Message) error {
		env, err := Decode(msg)
		if err != nil {
			return err
		}
		envs <- env
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bus.Run(ctx) }()
	<-bus.Running()

	_, perr := parser.Parse("", parser.Options{})
	require.Error(t, perr)
	pub := &Publisher{Pub: bus.Publisher}
	require.NoError(t, pub.PublishError(perr))

	select {
	case env := <-envs:
		require.Equal(t, TypeError, env.Type)
		require.Contains(t, string(env.Payload), "EMPTY_LOG")
	case <-time.After(5 * time.Second):
		t.Fatal("error not delivered")
	}
}
