package wxml

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFilenameTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected time.Time
		ok       bool
	}{
		{
			name:     "full timestamp token",
			filename: "PAT01##150320240930#EXAM.WXML",
			expected: time.Date(2024, 3, 15, 9, 30, 0, 0, time.Local),
			ok:       true,
		},
		{
			name:     "date-only token",
			filename: "noise##15032024##more.xml",
			expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local),
			ok:       true,
		},
		{
			name:     "surrounding noise ignored",
			filename: "x9__##15032024##_y.wxml",
			expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local),
			ok:       true,
		},
		{
			name:     "no token",
			filename: "EXAM.WXML",
			ok:       false,
		},
		{
			name:     "impossible date rejected",
			filename: "A##990399990930#B.WXML",
			ok:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := ParseFilenameTimestamp(tt.filename)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, ts)
			}
		})
	}
}

func TestParseFilename_ExamNumber(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)

	t.Run("extension stripped", func(t *testing.T) {
		id := ParseFilename("PAT01##150320240930#EXAM.WXML", 50, now)
		assert.Equal(t, "PAT01##150320240930#EXAM", id.ExamNumber)
		assert.True(t, id.TimestampParsed)
	})

	t.Run("unknown extension kept", func(t *testing.T) {
		id := ParseFilename("PAT01##150320240930#EXAM.bak", 50, now)
		assert.Equal(t, "PAT01##150320240930#EXAM.bak", id.ExamNumber)
	})

	t.Run("sixty characters truncate to fifty with marker", func(t *testing.T) {
		stem := strings.Repeat("A", 60)
		id := ParseFilename(stem+".wxml", 50, now)
		assert.Len(t, id.ExamNumber, 50)
		assert.Equal(t, strings.Repeat("A", 47)+"...", id.ExamNumber)
	})

	t.Run("unparsable timestamp falls back to now", func(t *testing.T) {
		id := ParseFilename("EXAM_NO_TOKEN.xml", 50, now)
		assert.False(t, id.TimestampParsed)
		assert.Equal(t, now, id.Timestamp)
		assert.Equal(t, "EXAM_NO_TOKEN", id.ExamNumber)
	})
}

func TestHasKnownExtension(t *testing.T) {
	assert.True(t, HasKnownExtension("a.WXML"))
	assert.True(t, HasKnownExtension("a.wxml"))
	assert.True(t, HasKnownExtension("a.xml"))
	assert.True(t, HasKnownExtension("a.XML"))
	assert.False(t, HasKnownExtension("a.pdf"))
	assert.False(t, HasKnownExtension("a"))
}
