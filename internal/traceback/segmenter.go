package traceback

import (
	"regexp"
	"strings"
)

// Header is the line that opens every Python traceback.
const Header = "Traceback (most recent call last):"

var headerPattern = regexp.MustCompile(regexp.QuoteMeta(Header))

// Segment splits raw log text into traceback blocks. Each block starts at a
// header occurrence and runs up to the next header or the end of input, so
// interleaved log lines between tracebacks stay attached to the preceding
// block. Text before the first header belongs to no block. Blocks are
// trimmed of surrounding whitespace; input without a header yields nil.
func Segment(text string) []string {
	if text == "" {
		return nil
	}

	locs := headerPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		block := strings.TrimSpace(text[loc[0]:end])
		if block == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}
