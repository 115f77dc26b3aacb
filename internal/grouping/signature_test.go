package grouping

import (
	"testing"

	"github.com/logsleuth/logsleuth/internal/traceback"
)

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "single quoted literal",
			input: "invalid literal for int() with base 10: 'abc'",
			want:  "invalid literal for int() with base NUMBER: 'VARIABLE'",
		},
		{
			name:  "double quoted literal",
			input: `no such column: "user_id"`,
			want:  `no such column: "VARIABLE"`,
		},
		{
			name:  "digit runs",
			input: "connection to 10 failed after 3 retries",
			want:  "connection to NUMBER failed after NUMBER retries",
		},
		{
			name:  "digits embedded in words survive",
			input: "base64 decode failed",
			want:  "base64 decode failed",
		},
		{
			name:  "empty message",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMessage(tt.input); got != tt.want {
				t.Errorf("NormalizeMessage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSignatureStability(t *testing.T) {
	a := &traceback.ErrorRecord{ErrorType: "KeyError", ErrorMessage: "'user_id'"}
	b := &traceback.ErrorRecord{ErrorType: "KeyError", ErrorMessage: "'session'"}
	c := &traceback.ErrorRecord{ErrorType: "ValueError", ErrorMessage: "'user_id'"}

	if Signature(a) != Signature(a) {
		t.Error("signature is not deterministic")
	}
	if Signature(a) != Signature(b) {
		t.Error("messages differing only in quoted literals must share a signature")
	}
	if Signature(a) == Signature(c) {
		t.Error("different error types must not share a signature")
	}
}

func TestSignatureSeparatesTypeFromMessage(t *testing.T) {
	// The type and message are joined with a delimiter before hashing, so
	// shifting characters between them changes the digest.
	a := &traceback.ErrorRecord{ErrorType: "TimeoutError", ErrorMessage: "x"}
	b := &traceback.ErrorRecord{ErrorType: "Timeout", ErrorMessage: "Errorx"}
	if Signature(a) == Signature(b) {
		t.Error("type/message boundary is ambiguous in the signature input")
	}
}
