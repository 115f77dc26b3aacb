package formatter

import "github.com/logsleuth/logsleuth/internal/analyzer"

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(analysis *analyzer.Analysis) ([]byte, error)
}
