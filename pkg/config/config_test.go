package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_IngestConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("WXML_DIR", "/srv/share/exams")
	os.Setenv("EXAM_NUMBER_MAX_LEN", "40")
	defer func() {
		os.Unsetenv("WXML_DIR")
		os.Unsetenv("EXAM_NUMBER_MAX_LEN")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "/srv/share/exams", cfg.Ingest.WatchDir)
	assert.Equal(t, 40, cfg.Ingest.ExamNumberMaxLen)
	// ReportDir falls back to WatchDir when unset
	assert.Equal(t, "/srv/share/exams", cfg.Ingest.ReportDir)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("WXML_DIR")
	os.Unsetenv("REPORT_DIR")
	os.Unsetenv("EXAM_NUMBER_MAX_LEN")
	os.Unsetenv("DB_NAME")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "/mnt/exams", cfg.Ingest.WatchDir)
	assert.Equal(t, 50, cfg.Ingest.ExamNumberMaxLen)
	assert.Equal(t, "clinic_records", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "clinic",
		Password: "secret",
		Database: "clinic_records",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db port=5433 user=clinic password=secret dbname=clinic_records sslmode=require",
		cfg.DatabaseDSN(),
	)
}
