package traceback

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	filePattern    = regexp.MustCompile(`File "([^"]+)"`)
	linePattern    = regexp.MustCompile(`line (\d+)`)
	typePattern    = regexp.MustCompile(`([A-Za-z]+Error|[A-Za-z]*Exception):`)
	messagePattern = regexp.MustCompile(`([A-Za-z]+Error|[A-Za-z]*Exception):\s*(.*)`)
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithTypePrefix keeps the exception type as a "Type: " prefix on extracted
// messages instead of the bare message text.
func WithTypePrefix() Option {
	return func(e *Extractor) {
		e.typePrefix = true
	}
}

// Extractor pulls structured fields out of a single traceback block.
type Extractor struct {
	typePrefix bool
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs four independent field searches over the block, each taking
// the first match: source file, line number, exception type, and message.
// The pattern searches are unanchored, so the file and line come from the
// first frame while the type and message usually come from the final line.
// In multi-frame tracebacks the first frame is the outermost caller, not
// the frame that raised, so the reported location can sit above the fault.
//
// The boolean is false when either the file path or the line number is
// missing; such blocks carry nothing actionable and are dropped. A missing
// type defaults to "Unknown" and a missing message stays empty, since the
// block is still locatable in code.
func (e *Extractor) Extract(block string) (*ErrorRecord, bool) {
	file := filePattern.FindStringSubmatch(block)
	line := linePattern.FindStringSubmatch(block)
	if file == nil || line == nil {
		return nil, false
	}
	number, err := strconv.Atoi(line[1])
	if err != nil {
		return nil, false
	}

	rec := &ErrorRecord{
		FilePath:      file[1],
		LineNumber:    number,
		ErrorType:     "Unknown",
		FullTraceback: block,
	}

	if m := typePattern.FindStringSubmatch(block); m != nil {
		rec.ErrorType = m[1]
	}
	if m := messagePattern.FindStringSubmatch(block); m != nil {
		msg := strings.TrimSpace(m[2])
		if e.typePrefix && msg != "" {
			msg = m[1] + ": " + msg
		}
		rec.ErrorMessage = msg
	}
	return rec, true
}
