package grouping

import "github.com/logsleuth/logsleuth/internal/traceback"

// ErrorGroup collects every record sharing one signature, in the order the
// records were first seen.
type ErrorGroup struct {
	Signature string                   `json:"signature"`
	Records   []*traceback.ErrorRecord `json:"records"`
}

// Count returns the number of occurrences in the group.
func (g *ErrorGroup) Count() int {
	return len(g.Records)
}

// FileCount pairs a source file path with its occurrence count inside a
// group.
type FileCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// ErrorPattern is the ranked summary of one group: the recurring error shape
// an operator actually looks at.
type ErrorPattern struct {
	Signature      string                 `json:"signature"`
	ErrorType      string                 `json:"error_type"`
	Count          int                    `json:"count"`
	Representative *traceback.ErrorRecord `json:"representative"`
	CommonFiles    []FileCount            `json:"common_files"`
}
