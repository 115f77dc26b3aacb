// Package classify decides whether files look like application logs before
// the pipeline spends time parsing them. The check is a cheap heuristic over
// a bounded sample, so both false positives and false negatives are possible
// and callers must treat the answer as advisory.
package classify

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// maxSampleBytes bounds how much of a regular file is read.
	maxSampleBytes = 4096

	// largeFileBytes is the size above which files are sampled by line
	// instead of by byte, to avoid pulling huge single reads into memory.
	largeFileBytes = 10 * 1024 * 1024

	// largeFileLines is the number of leading lines sampled from large files.
	largeFileLines = 10
)

var logIndicators = []*regexp.Regexp{
	regexp.MustCompile(`Traceback \(most recent call last\):`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`\d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`ERROR|WARNING|INFO|DEBUG|CRITICAL`),
	regexp.MustCompile(`Exception|Error:`),
	regexp.MustCompile(`(?m)^\[\w+\]`),
}

// LooksLikeLog reports whether the file at path resembles log output. It
// samples a bounded prefix and matches it against common log markers:
// traceback headers, dates, clock times, level tokens, error keywords and
// bracketed tags at line start. Missing files, directories, unreadable or
// binary looking content all report false, never an error.
func LooksLikeLog(path string) bool {
	sample, ok := sampleFile(path)
	if !ok {
		return false
	}
	for _, indicator := range logIndicators {
		if indicator.MatchString(sample) {
			return true
		}
	}
	return false
}

// sampleFile reads the bounded prefix used for classification. The boolean
// is false when the file cannot be read or the sample does not decode as
// text.
func sampleFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}

	file, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer func() { _ = file.Close() }()

	var sample []byte
	if info.Size() > largeFileBytes {
		sample, err = readLeadingLines(file, largeFileLines)
		if err != nil {
			return "", false
		}
	} else {
		buf := make([]byte, maxSampleBytes)
		n, err := io.ReadFull(file, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return "", false
		}
		sample = buf[:n]
	}

	if bytes.IndexByte(sample, 0) >= 0 || !validTextPrefix(sample) {
		return "", false
	}
	return string(sample), true
}

func readLeadingLines(r io.Reader, n int) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	lines := make([]string, 0, n)
	for len(lines) < n && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// validTextPrefix checks UTF-8 validity while tolerating a multibyte rune
// cut in half by the sample boundary.
func validTextPrefix(sample []byte) bool {
	for i := 0; i < len(sample); {
		r, size := utf8.DecodeRune(sample[i:])
		if r == utf8.RuneError && size == 1 {
			return len(sample)-i < utf8.UTFMax
		}
		i += size
	}
	return true
}
