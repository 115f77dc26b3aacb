package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/logsleuth/logsleuth/internal/analyzer"
)

// csvFormatter formats ranked patterns as CSV, one row per pattern
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) Format(analysis *analyzer.Analysis) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	headers := []string{
		"Signature",
		"Error Type",
		"Count",
		"File",
		"Line",
		"Message",
		"Common Files",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, pattern := range analysis.Patterns {
		file, line, message := "", "", ""
		if rep := pattern.Representative; rep != nil {
			file = rep.FilePath
			line = strconv.Itoa(rep.LineNumber)
			message = flattenMessage(rep.ErrorMessage, 100)
		}

		record := []string{
			pattern.Signature,
			pattern.ErrorType,
			strconv.Itoa(pattern.Count),
			file,
			line,
			message,
			commonFilesLabel(pattern.CommonFiles),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return b.Bytes(), nil
}
