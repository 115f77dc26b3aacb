// Package analyzer runs the traceback pipeline: segment raw log text into
// blocks, extract one record per usable block, group records by signature
// and rank the groups into patterns.
package analyzer

import (
	"context"
)

// Analyzer is the pipeline entry point over raw log text.
type Analyzer interface {
	// Analyze runs the full pipeline. The source labels where the text came
	// from (a path, "stdin", a Loki query) and travels into the result.
	Analyze(ctx context.Context, source, text string) (*Analysis, error)
}

// Engine is an Analyzer with optional stages that can be toggled before use.
type Engine interface {
	Analyzer

	// WithLevelStats toggles log level counting over the input text.
	WithLevelStats(enabled bool) Engine

	// WithTypePrefix toggles the "Type: " message prefix on extraction.
	WithTypePrefix(enabled bool) Engine
}
