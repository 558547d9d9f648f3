package redact

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Entity is one recognized span. Offsets are rune offsets into the
// analyzed text, half-open [Start, End).
type Entity struct {
	Label string
	Start int
	End   int
}

// Recognizer produces named entities for a text.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// categoryForLabel maps recognizer label vocabularies onto the bracketed
// categories written into redacted text.
var categoryForLabel = map[string]string{
	"PER":    "PERSON",
	"PERSON": "PERSON",
	"LOC":    "LOCATION",
	"GPE":    "LOCATION",
	"ORG":    "ORGANIZATION",
	"DATE":   "DATE",
	"PHONE":  "PHONE",
	"EMAIL":  "EMAIL",
}

// EntityRedactor redacts spans reported by a named-entity recognizer.
type EntityRedactor struct {
	rec   Recognizer
	allow map[string]struct{}
}

// NewEntityRedactor creates an entity-based redactor. Only entities whose
// label appears in allowLabels (case-insensitive) are redacted.
func NewEntityRedactor(rec Recognizer, allowLabels []string) *EntityRedactor {
	allow := make(map[string]struct{}, len(allowLabels))
	for _, l := range allowLabels {
		allow[strings.ToUpper(l)] = struct{}{}
	}
	return &EntityRedactor{rec: rec, allow: allow}
}

// Redact replaces every allowed entity span with its bracketed category.
//
// Replacements are applied in descending start-offset order: replacement
// text generally differs in length from the matched span, and working from
// the end of the text keeps the offsets of not-yet-processed entities
// valid. Spans overlapping an already-applied replacement are skipped.
func (r *EntityRedactor) Redact(ctx context.Context, text string) (string, error) {
	entities, err := r.rec.Recognize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognizerFailed, err)
	}

	spans := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if _, ok := r.allow[strings.ToUpper(e.Label)]; ok {
			spans = append(spans, e)
		}
	}
	if len(spans) == 0 {
		return text, nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start > spans[j].Start })

	runes := []rune(text)
	applied := len(runes) + 1 // start offset of the last applied span
	for _, e := range spans {
		if e.Start < 0 || e.End > len(runes) || e.Start >= e.End {
			continue
		}
		if e.End > applied {
			continue // overlaps a span already replaced
		}
		category, ok := categoryForLabel[strings.ToUpper(e.Label)]
		if !ok {
			category = strings.ToUpper(e.Label)
		}
		replacement := []rune("[" + category + "]")
		runes = append(runes[:e.Start], append(replacement, runes[e.End:]...)...)
		applied = e.Start
	}

	return string(runes), nil
}
