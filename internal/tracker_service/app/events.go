package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

// EventPublisher publishes entity lifecycle events. The NATS client in
// platform/messagebroker satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// publishEntityEvent fires a lifecycle event. Publishing is best-effort:
// failures are logged and never fail the operation that triggered them.
func (a *Application) publishEntityEvent(ctx context.Context, subject string, entityID uuid.UUID, display string) {
	if a.publisher == nil {
		return
	}
	payload, err := json.Marshal(domain.EntityEvent{
		EntityID:   entityID,
		Display:    display,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to marshal entity event", "error", err, "subject", subject)
		return
	}
	if err := a.publisher.Publish(ctx, subject, payload); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish entity event", "error", err, "subject", subject)
	}
}

// publishMergeEvent announces a completed snapshot merge.
func (a *Application) publishMergeEvent(ctx context.Context, report domain.MergeReport) {
	if a.publisher == nil {
		return
	}
	payload, err := json.Marshal(domain.SnapshotMergedEvent{
		Report:     report,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to marshal merge event", "error", err)
		return
	}
	if err := a.publisher.Publish(ctx, domain.SubjectSnapshotMerged, payload); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish merge event", "error", err)
	}
}
