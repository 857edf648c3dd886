package truncation

import (
	"fmt"
	"math"
)

// Confidence is a heuristic trust signal in [0,1], not a probability.
type Confidence struct {
	Score       float64  `json:"score"`
	Reasons     []string `json:"reasons"`
	Limitations []string `json:"limitations,omitempty"`
}

// ConfidenceInput is what the score is computed from.
type ConfidenceInput struct {
	// CandidateLines excludes blank and header lines.
	CandidateLines int64
	// ParsedLines counts handled event lines plus continuation lines.
	ParsedLines     int64
	FailedLines     int64
	UnhandledTokens int64
	DistinctTypes   int
	Underflows      int64
	Truncation      *Info
}

const (
	parseWeight     = 0.9
	diversityWeight = 0.1
)

// diversitySaturation is the number of distinct event types that earns the
// full diversity bonus.
const diversitySaturation = 10

var truncationPenalty = map[Type]float64{
	SizeLimit: 0.7,
	LineLimit: 0.7,
	Timeout:   0.75,
	Unknown:   0.8,
}

// Score weighs the parsed-line ratio, applies a multiplicative penalty for
// truncation and adds a small bonus for event type diversity.
func Score(in ConfidenceInput) Confidence {
	ratio := 0.0
	if in.CandidateLines > 0 {
		ratio = float64(in.ParsedLines) / float64(in.CandidateLines)
	}
	diversity := math.Min(1, float64(in.DistinctTypes)/diversitySaturation)
	score := parseWeight*ratio + diversityWeight*diversity

	c := Confidence{
		Reasons: []string{
			fmt.Sprintf("parsed %d of %d lines (%.1f%%)", in.ParsedLines, in.CandidateLines, ratio*100),
			fmt.Sprintf("%d distinct event types", in.DistinctTypes),
		},
	}

	if in.Truncation != nil && in.Truncation.IsTruncated {
		p, ok := truncationPenalty[in.Truncation.Type]
		if !ok {
			p = truncationPenalty[Unknown]
		}
		score *= p
		msg := fmt.Sprintf("log is truncated (%s): %s", in.Truncation.Type, in.Truncation.Reason)
		if in.Truncation.LastCompleteLine > 0 {
			msg += fmt.Sprintf("; last complete unit ends at line %d", in.Truncation.LastCompleteLine)
		}
		c.Limitations = append(c.Limitations, msg)
	}
	if in.FailedLines > 0 {
		c.Limitations = append(c.Limitations, fmt.Sprintf("%d lines could not be tokenized", in.FailedLines))
	}
	if in.UnhandledTokens > 0 {
		c.Limitations = append(c.Limitations, fmt.Sprintf("%d events had no handler", in.UnhandledTokens))
	}
	if in.Underflows > 0 {
		c.Limitations = append(c.Limitations, fmt.Sprintf("%d exits had no open entry", in.Underflows))
	}
	if in.Truncation != nil && in.Truncation.UnclosedEntries > 0 {
		c.Limitations = append(c.Limitations, fmt.Sprintf("%d entries were never closed", in.Truncation.UnclosedEntries))
	}

	c.Score = math.Max(0, math.Min(1, score))
	return c
}
