package tokenizer

import (
	"regexp"
	"strings"
)

var headerRe = regexp.MustCompile(`^(\d+\.\d+)\s+(.*)$`)

// Header holds what the optional first line of a log declares.
type Header struct {
	APIVersion  string            `json:"apiVersion,omitempty"`
	DebugLevels map[string]string `json:"debugLevels,omitempty"`
}

// ParseHeader reads `<apiVersion> <CATEGORY,LEVEL>[,CATEGORY,LEVEL...]`.
// Pairs may also be separated by ';' or whitespace. Within a segment the
// comma-separated tokens alternate between category and level.
func ParseHeader(line string) (Header, bool) {
	m := headerRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Header{}, false
	}
	h := Header{APIVersion: m[1]}
	segments := strings.FieldsFunc(m[2], func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t'
	})
	for _, seg := range segments {
		parts := strings.Split(seg, ",")
		for i := 0; i+1 < len(parts); i += 2 {
			cat := strings.TrimSpace(parts[i])
			if cat == "" {
				continue
			}
			if h.DebugLevels == nil {
				h.DebugLevels = map[string]string{}
			}
			h.DebugLevels[strings.ToUpper(cat)] = strings.ToUpper(strings.TrimSpace(parts[i+1]))
		}
	}
	return h, true
}
