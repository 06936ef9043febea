// Package events publishes contact change notifications out of band.
//
// Writes enqueue an Event on an in-process queue; a Worker drains the queue
// into a Sink (Kafka, or the log when no broker is configured). Publishing
// never blocks a request and never fails or undoes a write.
package events

import (
	"time"

	"contactbook/internal/contact/models"
	id "contactbook/pkg/domain"
)

// Action names the kind of change.
type Action string

const (
	ActionCreated Action = "contact.created"
	ActionUpdated Action = "contact.updated"
	ActionDeleted Action = "contact.deleted"
)

// Event describes a single committed change. Contact is nil for deletions.
type Event struct {
	ID         string          `json:"id"`
	Action     Action          `json:"action"`
	ContactID  id.ContactID    `json:"contact_id"`
	Contact    *models.Contact `json:"contact,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
