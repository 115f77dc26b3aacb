package traceback

import (
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		block    string
		wantOK   bool
		validate func(t *testing.T, rec *ErrorRecord)
	}{
		{
			name: "complete block",
			block: `Traceback (most recent call last):
  File "/app/services/payment.py", line 42, in process
    amount = int(data['amount'])
ValueError: invalid literal for int() with base 10: 'abc'`,
			wantOK: true,
			validate: func(t *testing.T, rec *ErrorRecord) {
				if rec.FilePath != "/app/services/payment.py" {
					t.Errorf("unexpected file path: %q", rec.FilePath)
				}
				if rec.LineNumber != 42 {
					t.Errorf("unexpected line number: %d", rec.LineNumber)
				}
				if rec.ErrorType != "ValueError" {
					t.Errorf("unexpected error type: %q", rec.ErrorType)
				}
				if rec.ErrorMessage != "invalid literal for int() with base 10: 'abc'" {
					t.Errorf("unexpected message: %q", rec.ErrorMessage)
				}
			},
		},
		{
			name: "first frame wins in multi frame block",
			block: `Traceback (most recent call last):
  File "/app/main.py", line 10, in <module>
    run()
  File "/app/worker.py", line 99, in run
    handle()
KeyError: 'user_id'`,
			wantOK: true,
			validate: func(t *testing.T, rec *ErrorRecord) {
				if rec.FilePath != "/app/main.py" {
					t.Errorf("expected first frame file, got %q", rec.FilePath)
				}
				if rec.LineNumber != 10 {
					t.Errorf("expected first frame line, got %d", rec.LineNumber)
				}
				if rec.ErrorType != "KeyError" {
					t.Errorf("unexpected error type: %q", rec.ErrorType)
				}
			},
		},
		{
			name: "missing file path drops the block",
			block: `Traceback (most recent call last):
ValueError: bad input`,
			wantOK: false,
		},
		{
			name: "missing line number drops the block",
			block: `Traceback (most recent call last):
  File "/app/main.py", in <module>
ValueError: bad input`,
			wantOK: false,
		},
		{
			name: "unrecognized final line defaults the type",
			block: `Traceback (most recent call last):
  File "/app/main.py", line 3, in <module>
    sys.exit(main())
SystemExit`,
			wantOK: true,
			validate: func(t *testing.T, rec *ErrorRecord) {
				if rec.ErrorType != "Unknown" {
					t.Errorf("expected Unknown type, got %q", rec.ErrorType)
				}
				if rec.ErrorMessage != "" {
					t.Errorf("expected empty message, got %q", rec.ErrorMessage)
				}
			},
		},
		{
			name: "bare exception",
			block: `Traceback (most recent call last):
  File "/app/main.py", line 7, in <module>
    raise Exception("boom")
Exception: boom`,
			wantOK: true,
			validate: func(t *testing.T, rec *ErrorRecord) {
				if rec.ErrorType != "Exception" {
					t.Errorf("unexpected error type: %q", rec.ErrorType)
				}
				if rec.ErrorMessage != "boom" {
					t.Errorf("unexpected message: %q", rec.ErrorMessage)
				}
			},
		},
		{
			name: "custom exception subclass",
			block: `Traceback (most recent call last):
  File "/app/api.py", line 55, in call
    raise UpstreamException(resp)
UpstreamException: 502 from gateway`,
			wantOK: true,
			validate: func(t *testing.T, rec *ErrorRecord) {
				if rec.ErrorType != "UpstreamException" {
					t.Errorf("unexpected error type: %q", rec.ErrorType)
				}
			},
		},
		{
			name: "message with colons keeps the remainder intact",
			block: `Traceback (most recent call last):
  File "/app/db.py", line 12, in connect
    conn = psycopg2.connect(dsn)
OperationalError: could not connect to server: Connection refused`,
			wantOK: true,
			validate: func(t *testing.T, rec *ErrorRecord) {
				if rec.ErrorMessage != "could not connect to server: Connection refused" {
					t.Errorf("unexpected message: %q", rec.ErrorMessage)
				}
			},
		},
		{
			name: "multi line message truncates at the first line",
			block: `Traceback (most recent call last):
  File "/app/views.py", line 88, in render
    return template.render(ctx)
TemplateError: unexpected end of template
nearby: {% endfor %}`,
			wantOK: true,
			validate: func(t *testing.T, rec *ErrorRecord) {
				if strings.Contains(rec.ErrorMessage, "nearby") {
					t.Errorf("message crossed a line boundary: %q", rec.ErrorMessage)
				}
			},
		},
	}

	extractor := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := extractor.Extract(tt.block)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if rec.FullTraceback != tt.block {
				t.Error("full traceback does not round trip the block")
			}
			if tt.validate != nil {
				tt.validate(t, rec)
			}
		})
	}
}

func TestExtractWithTypePrefix(t *testing.T) {
	block := `Traceback (most recent call last):
  File "/app/main.py", line 5, in <module>
    lookup()
KeyError: 'missing'`

	rec, ok := NewExtractor(WithTypePrefix()).Extract(block)
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.ErrorMessage != "KeyError: 'missing'" {
		t.Errorf("expected prefixed message, got %q", rec.ErrorMessage)
	}
	if rec.ErrorType != "KeyError" {
		t.Errorf("unexpected error type: %q", rec.ErrorType)
	}
}

func TestErrorRecordLocation(t *testing.T) {
	rec := &ErrorRecord{FilePath: "/app/main.py", LineNumber: 10}
	if rec.Location() != "/app/main.py:10" {
		t.Errorf("unexpected location: %q", rec.Location())
	}
}
