package models

import "time"

// Audit event kinds emitted by the scheduling core.
const (
	AuditBookingCreated       = "booking.created"
	AuditBookingUpdated       = "booking.updated"
	AuditBookingRemoved       = "booking.removed"
	AuditAvailabilityReplaced = "availability.replaced"
	AuditSubjectsReplaced     = "assignment.replaced"
)

// AuditEvent is one entry of the activity log.
type AuditEvent struct {
	ID          string    `bson:"id" json:"id"`
	Kind        string    `bson:"kind" json:"kind"`
	Description string    `bson:"description" json:"description"`
	ActorID     string    `bson:"actorId" json:"actorId"`
	OccurredAt  time.Time `bson:"occurredAt" json:"occurredAt"`
}

// Actor identifies who issued a request. The scheduling core records it but does not authorize.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
