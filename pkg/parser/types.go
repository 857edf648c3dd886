package parser

import (
	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/handlers"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
	"github.com/go-go-golems/apexlog/pkg/tree"
	"github.com/go-go-golems/apexlog/pkg/truncation"
)

// Options is the whole of the parser's runtime configuration.
type Options struct {
	// MaxEvents stops emission after this many events; 0 means no cutoff.
	MaxEvents int `yaml:"max_events,omitempty"`
	// MaxLineLength rejects longer lines as failed lines.
	MaxLineLength int `yaml:"max_line_length,omitempty"`

	Truncation truncation.Options `yaml:",inline"`

	// Registry overrides the default handler table.
	Registry *handlers.Registry `yaml:"-"`
}

// Metadata is what the log header declares.
type Metadata struct {
	APIVersion  string            `json:"apiVersion,omitempty"`
	DebugLevels map[string]string `json:"debugLevels,omitempty"`
}

type Stats struct {
	tokenizer.Stats

	TotalEvents      int64                         `json:"totalEvents"`
	EventsByType     map[tokenizer.EventType]int64 `json:"eventsByType"`
	UnhandledTokens  int64                         `json:"unhandledTokens"`
	UnhandledByType  map[tokenizer.EventType]int64 `json:"unhandledByType,omitempty"`
	UnderflowedExits int64                         `json:"underflowedExits"`
	UnclosedEntries  int                           `json:"unclosedEntries"`
	Capped           bool                          `json:"capped,omitempty"`
}

// Summary is everything about a parse except the events themselves. Streaming
// parses end with one.
type Summary struct {
	Metadata   Metadata              `json:"metadata"`
	Stats      Stats                 `json:"stats"`
	Truncation *truncation.Info      `json:"truncation,omitempty"`
	Confidence truncation.Confidence `json:"confidence"`
}

// ParsedLog is the result of a batch parse.
type ParsedLog struct {
	Events []*events.Event `json:"events"`
	Root   *tree.Node      `json:"root"`
	Summary
}

// IsTruncated reports whether the assessor found the log cut short.
func (s *Summary) IsTruncated() bool {
	return s.Truncation != nil && s.Truncation.IsTruncated
}
