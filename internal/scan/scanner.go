// Package scan discovers log files under a directory tree and runs the
// analyzer over them with a fixed-size worker pool.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/logsleuth/logsleuth/internal/analyzer"
	"github.com/logsleuth/logsleuth/internal/classify"
	"github.com/logsleuth/logsleuth/internal/grouping"
	"github.com/logsleuth/logsleuth/internal/logger"
	"github.com/logsleuth/logsleuth/internal/traceback"
)

const (
	// DefaultMaxDepth bounds directory recursion, counting the root as
	// depth one.
	DefaultMaxDepth = 4

	// DefaultWorkers is the analysis worker pool size.
	DefaultWorkers = 4
)

// DefaultExtensions lists the file extensions considered log candidates.
func DefaultExtensions() []string {
	return []string{".log", ".txt"}
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
}

// Options configure a Scanner.
type Options struct {
	// Extensions to consider, compared case-insensitively. Empty means
	// DefaultExtensions.
	Extensions []string

	// MaxDepth bounds recursion; zero or negative means DefaultMaxDepth.
	MaxDepth int

	// Workers sizes the analysis pool; zero or negative means
	// DefaultWorkers.
	Workers int

	// Verbose gates debug logging, wired to the CLI flag.
	Verbose func() bool
}

// FileReport is the analysis outcome for one discovered file.
type FileReport struct {
	Path     string             `json:"path"`
	Analysis *analyzer.Analysis `json:"analysis,omitempty"`
	Err      error              `json:"-"`
}

// Batch is the aggregated outcome of one directory scan. Patterns are
// re-grouped across every file, so an error shape recurring in several
// files ranks by its total count.
type Batch struct {
	Root         string                   `json:"root"`
	Reports      []FileReport             `json:"reports"`
	Patterns     []*grouping.ErrorPattern `json:"patterns"`
	TotalRecords int                      `json:"total_records"`
	Elapsed      time.Duration            `json:"elapsed"`
}

// FailedCount returns the number of files that could not be analyzed.
func (b *Batch) FailedCount() int {
	failed := 0
	for i := range b.Reports {
		if b.Reports[i].Err != nil {
			failed++
		}
	}
	return failed
}

// Scanner finds likely log files and fans analysis out over them.
type Scanner struct {
	engine     analyzer.Analyzer
	extensions []string
	maxDepth   int
	workers    int
	log        *logger.Logger
}

// New creates a Scanner running the given analyzer over discovered files.
func New(engine analyzer.Analyzer, opts Options) *Scanner {
	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions()
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Scanner{
		engine:     engine,
		extensions: extensions,
		maxDepth:   maxDepth,
		workers:    workers,
		log:        logger.NewWithCallback("scan", opts.Verbose),
	}
}

// Discover walks root and returns the files that look like logs, in walk
// order. Hidden entries and well-known vendor directories are skipped, and
// unreadable subdirectories are logged and skipped rather than aborting
// the walk.
func (s *Scanner) Discover(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			s.log.Warn("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if skipDirs[name] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if s.depth(root, path) > s.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || !s.hasLogExtension(name) {
			return nil
		}
		if !classify.LooksLikeLog(path) {
			s.log.Debug("not a log file: %s", path)
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("discovered %d log files under %s", len(files), root)
	return files, nil
}

// ScanAndAnalyze discovers log files under root and analyzes them with the
// worker pool. A file that fails to read or analyze gets an Err in its
// report and never blocks the others. Report order matches discovery
// order.
func (s *Scanner) ScanAndAnalyze(ctx context.Context, root string) (*Batch, error) {
	started := time.Now()

	files, err := s.Discover(root)
	if err != nil {
		return nil, err
	}

	batch := &Batch{Root: root, Reports: make([]FileReport, len(files))}
	if len(files) == 0 {
		batch.Elapsed = time.Since(started)
		return batch, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				batch.Reports[i] = s.analyzeFile(ctx, files[i])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.aggregate(batch)
	batch.Elapsed = time.Since(started)

	s.log.InfoWithFields("scan complete", []logger.Field{
		logger.Count("files", len(files)),
		logger.Count("failed", batch.FailedCount()),
		logger.Count("patterns", len(batch.Patterns)),
		logger.Duration("elapsed", batch.Elapsed),
	})
	return batch, nil
}

func (s *Scanner) analyzeFile(ctx context.Context, path string) FileReport {
	report := FileReport{Path: path}

	if err := ctx.Err(); err != nil {
		report.Err = err
		return report
	}

	data, err := os.ReadFile(path) //nolint:gosec // Paths come from directory discovery
	if err != nil {
		s.log.Warn("failed to read %s: %v", path, err)
		report.Err = err
		return report
	}

	analysis, err := s.engine.Analyze(ctx, path, string(data))
	if err != nil {
		s.log.Warn("failed to analyze %s: %v", path, err)
		report.Err = err
		return report
	}

	report.Analysis = analysis
	return report
}

// aggregate re-groups records across every successful report so patterns
// rank by their total count over the whole tree.
func (s *Scanner) aggregate(batch *Batch) {
	var records []*traceback.ErrorRecord
	for i := range batch.Reports {
		if batch.Reports[i].Analysis == nil {
			continue
		}
		records = append(records, batch.Reports[i].Analysis.Records...)
	}

	batch.TotalRecords = len(records)
	batch.Patterns = grouping.Rank(grouping.Group(records))
}

func (s *Scanner) hasLogExtension(name string) bool {
	ext := filepath.Ext(name)
	for _, allowed := range s.extensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// depth returns the directory depth of path relative to root, counting
// root itself as one.
func (s *Scanner) depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 1
	}
	return 1 + len(strings.Split(rel, string(filepath.Separator)))
}
