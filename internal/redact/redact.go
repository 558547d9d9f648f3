// Package redact removes identifiable spans from clinical text before it
// leaves local control.
//
// Two interchangeable engines implement the same contract: a pattern-based
// engine driven by an ordered list of category regexes, and an entity-based
// engine driven by a named-entity recognizer. Both replace matched spans
// with bracketed category labels such as [EMAIL] or [PERSON]. The engine is
// chosen once at construction time via configuration.
package redact

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/config"
)

var (
	// ErrInvalidConfig indicates invalid redaction configuration.
	ErrInvalidConfig = errors.New("invalid redaction configuration")

	// ErrRecognizerFailed indicates the entity recognizer was unreachable
	// or rejected the request.
	ErrRecognizerFailed = errors.New("entity recognition failed")
)

// Redactor removes identifiable spans from text.
//
// Redact never fails for well-formed text when backed by local patterns;
// the entity-based engine can fail when its recognizer is unreachable.
type Redactor interface {
	Redact(ctx context.Context, text string) (string, error)
}

// New creates the redactor selected by cfg.Mode.
func New(cfg config.RedactionConfig, logger *zap.Logger) (Redactor, error) {
	switch cfg.Mode {
	case config.RedactionPattern:
		patterns := DefaultPatterns()
		if cfg.PatternsFile != "" {
			extra, err := LoadPatterns(cfg.PatternsFile)
			if err != nil {
				return nil, fmt.Errorf("loading patterns file: %w", err)
			}
			patterns = append(patterns, extra...)
		}
		logger.Info("using pattern-based redaction", zap.Int("categories", len(patterns)))
		return NewPatternRedactor(patterns), nil
	case config.RedactionEntity:
		rec := NewHFRecognizer(HFRecognizerConfig{
			Model:   cfg.Entity.Model,
			BaseURL: cfg.Entity.BaseURL,
			APIKey:  cfg.Entity.APIKey.Value(),
		})
		logger.Info("using entity-based redaction",
			zap.String("model", cfg.Entity.Model),
			zap.Strings("labels", cfg.Entity.Labels))
		return NewEntityRedactor(rec, cfg.Entity.Labels), nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, cfg.Mode)
	}
}
