package advisor

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-promptfmt"

	"github.com/logsleuth/logsleuth/internal/codectx"
	"github.com/logsleuth/logsleuth/internal/grouping"
	"github.com/logsleuth/logsleuth/internal/traceback"
)

// explainResponse is the JSON shape requested from the model.
type explainResponse struct {
	Summary     string   `json:"summary"`
	RootCause   string   `json:"root_cause"`
	Suggestions []string `json:"suggestions"`
}

func (a *Advisor) buildExplainPrompt(pattern *grouping.ErrorPattern, rec *traceback.ErrorRecord, window *codectx.CodeWindow) *promptfmt.Prompt {
	pb := promptfmt.New().
		System("You are a senior Python engineer doing production incident triage. "+
			"Explain errors precisely and suggest concrete remediations in JSON format.").
		User("Explain this Python error (%s), seen %d time(s), reported at %s:\n\n%s",
			errorHeadline(rec), pattern.Count, rec.Location(),
			a.fit(rec.FullTraceback, tracebackTokenBudget))

	if len(pattern.CommonFiles) > 0 {
		files := make([]string, 0, len(pattern.CommonFiles))
		for _, fc := range pattern.CommonFiles {
			files = append(files, fmt.Sprintf("%s (%d)", fc.Path, fc.Count))
		}
		pb.AddContext("affected_files", strings.Join(files, ", "))
	}

	if window != nil && window.Code != "" {
		pb.AddContext("code", fmt.Sprintf("Lines %d-%d of %s:\n%s",
			window.StartLine+1, window.EndLine, rec.FilePath,
			a.fit(window.Code, codeTokenBudget)))
	}

	return pb.ExpectJSON(&explainResponse{}).Build()
}

func (a *Advisor) buildFixPrompt(rec *traceback.ErrorRecord, window *codectx.CodeWindow) *promptfmt.Prompt {
	return promptfmt.New().
		System("You are a senior Python engineer. Reply with corrected code only: "+
			"no prose, no markdown fences, keep the input's indentation style.").
		User("This code raises %s at %s. Return the corrected replacement for exactly these lines:\n\n%s",
			errorHeadline(rec), rec.Location(), window.Code).
		AddContext("traceback", a.fit(rec.FullTraceback, tracebackTokenBudget)).
		Build()
}

func errorHeadline(rec *traceback.ErrorRecord) string {
	if rec.ErrorMessage == "" {
		return rec.ErrorType
	}
	return rec.ErrorType + ": " + rec.ErrorMessage
}
