package analytics

import (
	"time"

	"github.com/google/uuid"
)

// TopicVisitRecorded carries one event per redirect served.
const TopicVisitRecorded = "visit.recorded"

// VisitEvent represents a redirect that should be recorded as a visit.
// The client IP rides on the event only for geolocation enrichment and is
// not persisted with the resulting visit.
type VisitEvent struct {
	ShortLinkID uuid.UUID `json:"shortLinkId"`
	Code        string    `json:"code"`
	ClientIP    string    `json:"clientIp"`
	OccurredAt  time.Time `json:"occurredAt"`
}
