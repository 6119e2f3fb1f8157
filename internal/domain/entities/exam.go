package entities

import (
	"time"
)

// StatusPerformed is the lifecycle status assigned to exams on ingestion.
// The column is free-form; administrative edits may set other values.
const StatusPerformed = "realizado"

// Exam represents an exam ingested from a vendor WXML export. The exam
// number is derived from the source filename and is unique; concurrent
// ingestion runs reconcile on that constraint.
type Exam struct {
	ID         int64  `json:"id" db:"id"`
	ExamNumber string `json:"exam_number" db:"exam_number"`
	PatientID  int64  `json:"patient_id" db:"patient_id"`
	// ExamDate is ISO (YYYY-MM-DD), ExamTime is HH:MM, both taken from
	// the filename timestamp token
	ExamDate string `json:"exam_date" db:"exam_date"`
	ExamTime string `json:"exam_time" db:"exam_time"`
	// Doctor references are optional; an exam may carry zero, one or two
	ResponsibleDoctorID *int64 `json:"responsible_doctor_id" db:"responsible_doctor_id"`
	RequestingDoctorID  *int64 `json:"requesting_doctor_id" db:"requesting_doctor_id"`
	// SourcePath is the WXML file this exam was ingested from. It doubles
	// as the ingestion ledger key: a path present on any exam row marks
	// that file as already processed.
	SourcePath string    `json:"wxml_file_path" db:"wxml_file_path"`
	Processed  bool      `json:"wxml_processed" db:"wxml_processed"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
