// Package wxml reads the vendor drop share: it scans for WXML exports,
// extracts exam identity from the vendor filename convention and parses file
// content into a normalized intermediate record.
package wxml

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vitallink/clinic-records/backend/pkg/utils"
)

// Vendor filenames embed a timestamp token as ...##DDMMYYYYHHMM#...
// Some exports carry only the date portion of the token.
var (
	timestampToken = regexp.MustCompile(`##(\d{12})#`)
	dateToken      = regexp.MustCompile(`##(\d{8})`)
)

// knownExtensions are the vendor export extensions, matched case-insensitively
var knownExtensions = []string{".wxml", ".xml"}

// FileIdentity is the identity extracted from a vendor filename
type FileIdentity struct {
	// ExamNumber is the filename minus its extension, capped to the
	// storage column width with a "..." marker when exceeded
	ExamNumber string
	// Timestamp is the exam date and time from the filename token, or
	// the processing time when the token is absent or unparsable
	Timestamp time.Time
	// TimestampParsed reports whether Timestamp came from the filename
	TimestampParsed bool
}

// ParseFilename extracts the exam identity from a vendor filename. It never
// fails: a missing or malformed timestamp token falls back to now, and the
// exam number is always produced (possibly non-unique after truncation).
func ParseFilename(filename string, examNumberMaxLen int, now time.Time) FileIdentity {
	base := filepath.Base(filename)

	identity := FileIdentity{
		ExamNumber: utils.TruncateWithMarker(stripKnownExtension(base), examNumberMaxLen),
		Timestamp:  now,
	}

	if ts, ok := ParseFilenameTimestamp(base); ok {
		identity.Timestamp = ts
		identity.TimestampParsed = true
	}

	return identity
}

// ParseFilenameTimestamp extracts the DDMMYYYYHHMM token from a filename.
// When only the 8-digit date portion is present the time is midnight.
func ParseFilenameTimestamp(filename string) (time.Time, bool) {
	if m := timestampToken.FindStringSubmatch(filename); m != nil {
		if ts, err := time.ParseInLocation("020120061504", m[1], time.Local); err == nil {
			return ts, true
		}
	}
	if m := dateToken.FindStringSubmatch(filename); m != nil {
		if ts, err := time.ParseInLocation("02012006", m[1], time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// FilenameDate extracts just the date portion of the filename token
func FilenameDate(filename string) (time.Time, bool) {
	ts, ok := ParseFilenameTimestamp(filename)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location()), true
}

func stripKnownExtension(base string) string {
	ext := strings.ToLower(filepath.Ext(base))
	for _, known := range knownExtensions {
		if ext == known {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}

// HasKnownExtension reports whether the filename carries one of the vendor
// export extensions
func HasKnownExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, known := range knownExtensions {
		if ext == known {
			return true
		}
	}
	return false
}
