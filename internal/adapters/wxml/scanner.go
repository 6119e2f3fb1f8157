package wxml

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

// Scanner finds candidate files on the vendor drop share. It only lists and
// reads directories; it never writes.
type Scanner struct {
	dir     string
	pattern string
}

// NewScanner creates a scanner over the given directory
func NewScanner(dir string) *Scanner {
	return &Scanner{dir: dir}
}

// NewScannerWithPattern creates a scanner that additionally filters results
// by a glob pattern on the base filename. An empty pattern matches all.
func NewScannerWithPattern(dir, pattern string) *Scanner {
	return &Scanner{dir: dir, pattern: pattern}
}

// matchesPattern reports whether the base filename passes the extra glob
// filter. A malformed pattern rejects nothing.
func (s *Scanner) matchesPattern(path string) bool {
	if s.pattern == "" {
		return true
	}
	ok, err := filepath.Match(s.pattern, filepath.Base(path))
	if err != nil {
		return true
	}
	return ok
}

// globExtensions mirrors the extension case variants the vendor produces.
// filepath.Glob has no case-insensitive matching, so each variant is tried.
var globExtensions = []string{"WXML", "wxml", "xml"}

// FindForDate returns the files whose embedded date token equals date. The
// fast path globs on the date token in vendor format; when that yields
// nothing the whole directory is listed and filtered by parsed filename
// date, which covers exports that deviate from the usual token placement.
// A missing directory yields a config error and zero files.
func (s *Scanner) FindForDate(date time.Time) ([]string, error) {
	if _, err := os.Stat(s.dir); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("source directory %s is not readable: %v", s.dir, err))
	}

	token := date.Format("02012006")

	var matches []string
	for _, ext := range globExtensions {
		pattern := filepath.Join(s.dir, fmt.Sprintf("*##%s*.%s", token, ext))
		found, err := filepath.Glob(pattern)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to glob source directory", err)
		}
		matches = append(matches, found...)
	}

	if len(matches) == 0 {
		var err error
		matches, err = s.scanAll(date)
		if err != nil {
			return nil, err
		}
	}

	filtered := matches[:0]
	for _, m := range matches {
		if s.matchesPattern(m) {
			filtered = append(filtered, m)
		}
	}

	sort.Strings(filtered)
	return dedupe(filtered), nil
}

// scanAll is the slow path: list every export file and keep the ones whose
// parsed filename date equals date
func (s *Scanner) scanAll(date time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("source directory %s is not readable: %v", s.dir, err))
	}

	target := date.Format("2006-01-02")

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() || !HasKnownExtension(entry.Name()) {
			continue
		}
		fileDate, ok := FilenameDate(entry.Name())
		if !ok {
			continue
		}
		if fileDate.Format("2006-01-02") == target {
			matches = append(matches, filepath.Join(s.dir, entry.Name()))
		}
	}

	return matches, nil
}

// ListReportFiles returns every PDF artifact in the directory, for the
// report linker
func (s *Scanner) ListReportFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("report directory %s is not readable: %v", s.dir, err))
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			matches = append(matches, filepath.Join(s.dir, entry.Name()))
		}
	}

	sort.Strings(matches)
	return matches, nil
}

func dedupe(paths []string) []string {
	if len(paths) < 2 {
		return paths
	}
	out := paths[:1]
	for _, p := range paths[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
