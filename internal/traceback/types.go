package traceback

import "fmt"

// ErrorRecord is one error occurrence extracted from a single traceback
// block. FilePath and LineNumber point at the frame the extraction matched,
// which is the first frame of the block.
type ErrorRecord struct {
	FilePath      string `json:"file_path"`
	LineNumber    int    `json:"line_number"`
	ErrorType     string `json:"error_type"`
	ErrorMessage  string `json:"error_message"`
	FullTraceback string `json:"full_traceback"`
}

// Location returns the record's position in "file:line" form.
func (r *ErrorRecord) Location() string {
	return fmt.Sprintf("%s:%d", r.FilePath, r.LineNumber)
}
