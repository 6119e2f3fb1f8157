package entities

import (
	"time"

	"github.com/google/uuid"
)

// ExamEventType represents the type of exam event
type ExamEventType string

const (
	ExamEventTypeCreated ExamEventType = "exam_created"
	ExamEventTypeUpdated ExamEventType = "exam_updated"
	ExamEventTypeLinked  ExamEventType = "report_linked"
)

// ExamEvent is published after ingestion writes so read-side caches can be
// invalidated without coupling the pipeline to the cache layer
type ExamEvent struct {
	ID         string        `json:"id"`
	EventType  ExamEventType `json:"event_type"`
	ExamID     int64         `json:"exam_id"`
	ExamNumber string        `json:"exam_number"`
	PatientID  int64         `json:"patient_id"`
	Timestamp  time.Time     `json:"timestamp"`
}

// NewExamEvent creates a new exam event
func NewExamEvent(eventType ExamEventType, examID int64, examNumber string, patientID int64) *ExamEvent {
	return &ExamEvent{
		ID:         uuid.NewString(),
		EventType:  eventType,
		ExamID:     examID,
		ExamNumber: examNumber,
		PatientID:  patientID,
		Timestamp:  time.Now(),
	}
}
