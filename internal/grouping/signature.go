package grouping

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"github.com/logsleuth/logsleuth/internal/traceback"
)

var (
	singleQuoted = regexp.MustCompile(`'[^']*'`)
	doubleQuoted = regexp.MustCompile(`"[^"]*"`)
	digitRun     = regexp.MustCompile(`\b\d+\b`)
)

// NormalizeMessage masks the variable parts of an error message so that
// occurrences differing only in quoted literals or numbers normalize to the
// same string. Single quoted spans become 'VARIABLE', double quoted spans
// become "VARIABLE", and standalone digit runs become NUMBER.
func NormalizeMessage(msg string) string {
	masked := singleQuoted.ReplaceAllString(msg, "'VARIABLE'")
	masked = doubleQuoted.ReplaceAllString(masked, `"VARIABLE"`)
	return digitRun.ReplaceAllString(masked, "NUMBER")
}

// Signature derives the stable grouping key for a record: a sha256 digest
// over the error type and the normalized message. Records of the same error
// shape hash equal regardless of the literals embedded in their messages.
func Signature(rec *traceback.ErrorRecord) string {
	sum := sha256.Sum256([]byte(rec.ErrorType + ":" + NormalizeMessage(rec.ErrorMessage)))
	return hex.EncodeToString(sum[:])
}
