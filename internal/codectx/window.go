package codectx

import (
	"fmt"
	"os"
	"strings"
)

// DefaultContextLines is the number of lines shown on each side of an error
// line when the caller does not choose.
const DefaultContextLines = 5

// CodeWindow is the slice of a source file surrounding one error line.
// StartLine and EndLine are zero based and half open, indexing into the
// file split on newlines. FullContent carries the whole file so a later
// Apply can splice a fix without re-reading.
type CodeWindow struct {
	Code        string `json:"code"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	FullContent string `json:"full_content"`
}

// Reader reads code windows through a Locator with content memoization.
type Reader struct {
	locator *Locator
	cache   *ContentCache
}

// NewReader creates a Reader. A nil cache disables memoization by using a
// throwaway cache.
func NewReader(locator *Locator, cache *ContentCache) *Reader {
	if cache == nil {
		cache = NewContentCache()
	}
	return &Reader{locator: locator, cache: cache}
}

// Content returns the full content of the file named by hint, resolving it
// through the locator and memoizing the result under the hint.
func (r *Reader) Content(hint string) (string, error) {
	if content, ok := r.cache.Get(hint); ok {
		return content, nil
	}

	path, ok := r.locator.Find(hint)
	if !ok {
		return "", fmt.Errorf("no file matching %q under %s", hint, r.locator.Root())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	content := string(data)
	r.cache.Store(hint, path, content)
	return content, nil
}

// Window returns contextLines lines of code on each side of the one based
// line number. Bounds clamp to the file, so windows near the start or end
// simply come out shorter.
func (r *Reader) Window(hint string, line, contextLines int) (*CodeWindow, error) {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}

	content, err := r.Content(hint)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(content, "\n")
	start := line - contextLines - 1
	if start < 0 {
		start = 0
	}
	end := line + contextLines
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		start = end
	}

	return &CodeWindow{
		Code:        strings.Join(lines[start:end], "\n"),
		StartLine:   start,
		EndLine:     end,
		FullContent: content,
	}, nil
}
