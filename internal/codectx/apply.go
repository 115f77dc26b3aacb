package codectx

import (
	"fmt"
	"os"
	"strings"
)

// Apply rewrites the file named by hint, replacing the zero based half open
// line range [start, end) of the window's full content with the fix text.
// The cache entry for hint is refreshed so subsequent reads observe the
// rewritten file.
func (r *Reader) Apply(hint string, window *CodeWindow, fix string) error {
	if window == nil {
		return fmt.Errorf("no code window to apply against")
	}

	path, ok := r.locator.Find(hint)
	if !ok {
		return fmt.Errorf("no file matching %q under %s", hint, r.locator.Root())
	}

	lines := strings.Split(window.FullContent, "\n")
	start, end := window.StartLine, window.EndLine
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		start = end
	}

	updated := make([]string, 0, len(lines))
	updated = append(updated, lines[:start]...)
	updated = append(updated, strings.Split(fix, "\n")...)
	updated = append(updated, lines[end:]...)

	content := strings.Join(updated, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	r.cache.Store(hint, path, content)
	return nil
}
