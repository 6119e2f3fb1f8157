package entities

import (
	"time"
)

// Report represents a PDF/ECG report artifact produced separately from the
// WXML metadata export. Reports arrive asynchronously and out of order; they
// are registered unlinked and associated to an exam by the report linker.
type Report struct {
	ID     string `json:"id" db:"id"`
	ExamID *int64 `json:"exam_id" db:"exam_id"`
	// FilePath is the PDF artifact path on the network share, unique
	FilePath string `json:"file_path" db:"file_path"`
	// ReportDate is ISO (YYYY-MM-DD), parsed from the artifact filename
	// when available
	ReportDate string     `json:"report_date" db:"report_date"`
	LinkedAt   *time.Time `json:"linked_at" db:"linked_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Linked reports whether the report has been associated to an exam
func (r *Report) Linked() bool {
	return r.ExamID != nil
}
