package grouping

import (
	"sort"

	"github.com/logsleuth/logsleuth/internal/traceback"
)

// topFilesLimit caps how many file paths a pattern reports.
const topFilesLimit = 3

// Rank summarizes each group into a pattern and orders the patterns by
// occurrence count, most frequent first. The sort is stable, so groups with
// equal counts keep their first seen order.
func Rank(set *GroupSet) []*ErrorPattern {
	if set == nil || set.Len() == 0 {
		return nil
	}

	patterns := make([]*ErrorPattern, 0, set.Len())
	for _, group := range set.Groups() {
		patterns = append(patterns, summarize(group))
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})
	return patterns
}

// summarize collapses a group into its pattern. The representative is the
// first record seen for the signature.
func summarize(group *ErrorGroup) *ErrorPattern {
	rep := group.Records[0]
	return &ErrorPattern{
		Signature:      group.Signature,
		ErrorType:      rep.ErrorType,
		Count:          len(group.Records),
		Representative: rep,
		CommonFiles:    topFiles(group.Records, topFilesLimit),
	}
}

// topFiles returns the k most frequent file paths across the records. Ties
// keep the order in which paths first appeared.
func topFiles(records []*traceback.ErrorRecord, k int) []FileCount {
	counts := make(map[string]int, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		if _, seen := counts[rec.FilePath]; !seen {
			order = append(order, rec.FilePath)
		}
		counts[rec.FilePath]++
	}

	files := make([]FileCount, 0, len(order))
	for _, path := range order {
		files = append(files, FileCount{Path: path, Count: counts[path]})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Count > files[j].Count
	})
	if len(files) > k {
		files = files[:k]
	}
	return files
}
