package domain

import (
	"time"

	"github.com/google/uuid"
)

// NATS subjects for entity lifecycle events. Consumers are external; the
// tracker only publishes.
const (
	SubjectOperatorCreated = "upn.operator.created.v1"
	SubjectOperatorDeleted = "upn.operator.deleted.v1"
	SubjectPhoneCreated    = "upn.phone.created.v1"
	SubjectPhoneDeleted    = "upn.phone.deleted.v1"
	SubjectServiceCreated  = "upn.service.created.v1"
	SubjectServiceDeleted  = "upn.service.deleted.v1"
	SubjectUsageMarked     = "upn.usage.marked.v1"
	SubjectUsageUnmarked   = "upn.usage.unmarked.v1"
	SubjectSnapshotMerged  = "upn.snapshot.merged.v1"
)

// EntityEvent is the payload for entity lifecycle subjects.
type EntityEvent struct {
	EntityID   uuid.UUID `json:"entity_id"`
	Display    string    `json:"display,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SnapshotMergedEvent is published after a bulk merge completes.
type SnapshotMergedEvent struct {
	Report     MergeReport `json:"report"`
	OccurredAt time.Time   `json:"occurred_at"`
}
