package wxml

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<Exam/>"), 0o644))
	}
}

func baseNames(paths []string) []string {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return names
}

func TestScanner_FindForDate(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)

	t.Run("glob fast path matches date token across extensions", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir,
			"PAT01##150320240930#EXAM.WXML",
			"PAT02##150320241100#EXAM.wxml",
			"PAT03##15032024##EXAM.xml",
			"PAT04##160320240930#EXAM.WXML",
			"notes.txt",
		)

		found, err := NewScanner(dir).FindForDate(date)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"PAT01##150320240930#EXAM.WXML",
			"PAT02##150320241100#EXAM.wxml",
			"PAT03##15032024##EXAM.xml",
		}, baseNames(found))
	})

	t.Run("no matches yields empty list without error", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "PAT04##160320240930#EXAM.WXML")

		found, err := NewScanner(dir).FindForDate(date)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("missing directory is a config error", func(t *testing.T) {
		found, err := NewScanner(filepath.Join(t.TempDir(), "absent")).FindForDate(date)
		assert.Nil(t, found)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
	})

	t.Run("pattern narrows matches by base filename", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir,
			"PAT01##150320240930#EXAM.WXML",
			"PAT02##150320241100#EXAM.WXML",
		)

		found, err := NewScannerWithPattern(dir, "PAT02*").FindForDate(date)
		require.NoError(t, err)
		assert.Equal(t, []string{"PAT02##150320241100#EXAM.WXML"}, baseNames(found))
	})
}

func TestScanner_ListReportFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"PAT01##150320240930#EXAM.pdf",
		"PAT02##150320241100#EXAM.PDF",
		"PAT03##150320241200#EXAM.WXML",
		"readme.txt",
	)

	found, err := NewScanner(dir).ListReportFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"PAT01##150320240930#EXAM.pdf",
		"PAT02##150320241100#EXAM.PDF",
	}, baseNames(found))
}
