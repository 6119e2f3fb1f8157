package providers

import (
	"context"
	"strconv"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to exam
// events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ExamEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ExamEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants
const (
	// EventChannelExamUpdates is the channel for all exam create/update events
	EventChannelExamUpdates = "exams:updates"

	// EventChannelPatientPrefix is the prefix for patient-specific channels
	EventChannelPatientPrefix = "patient:"
)

// GetPatientChannel returns the channel name for a specific patient
func GetPatientChannel(patientID int64) string {
	return EventChannelPatientPrefix + strconv.FormatInt(patientID, 10)
}
