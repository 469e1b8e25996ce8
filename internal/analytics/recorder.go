package analytics

import (
	"context"
	"time"

	"github.com/miniurl/miniurl/internal/messaging"
	"github.com/miniurl/miniurl/internal/shortener"
)

// EventRecorder implements shortener.VisitRecorder by publishing a visit
// event instead of writing to the store. Enrichment and persistence happen
// in the consumer, off the redirect path.
type EventRecorder struct {
	publish messaging.Publish[VisitEvent]
}

// NewEventRecorder creates a recorder backed by the given publish function.
func NewEventRecorder(publish messaging.Publish[VisitEvent]) *EventRecorder {
	return &EventRecorder{publish: publish}
}

func (r *EventRecorder) Record(_ context.Context, link *shortener.ShortLink, ip string) error {
	return r.publish(&VisitEvent{
		ShortLinkID: link.ID,
		Code:        string(link.Code),
		ClientIP:    ip,
		OccurredAt:  time.Now(),
	})
}
