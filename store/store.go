package store

import (
	"context"
	"time"

	"leadpilot/models"
)

// LeadStore is the document-store contract the lead repository runs against.
// Lookups by an unknown or malformed id report "absent" (nil lead, false),
// not an error; errors are reserved for store unavailability.
type LeadStore interface {
	// FindAll returns every lead ordered by createdAt descending.
	FindAll(ctx context.Context) ([]models.Lead, error)

	// FindByID returns the lead with the given hex id, or nil if absent.
	FindByID(ctx context.Context, id string) (*models.Lead, error)

	// Insert persists a new lead and fills in its assigned id.
	Insert(ctx context.Context, lead *models.Lead) error

	// UpdateFields applies a partial $set-style update and returns the
	// post-image, or nil if no lead matched.
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*models.Lead, error)

	// ReplaceConversations rewrites the full embedded conversation list
	// together with updatedAt and returns the post-image, or nil if absent.
	ReplaceConversations(ctx context.Context, id string, conversations []models.Conversation, updatedAt time.Time) (*models.Lead, error)

	// SetConversationReminder updates followUpReminderDate on the embedded
	// conversation matched by its id (not by array index). A nil date clears
	// the reminder. Returns the post-image, or nil if the lead or the
	// conversation is absent.
	SetConversationReminder(ctx context.Context, id, conversationID string, date *time.Time, updatedAt time.Time) (*models.Lead, error)

	// Delete removes the lead and reports whether a document was deleted.
	Delete(ctx context.Context, id string) (bool, error)
}

// ActivityStore persists append-only audit entries.
type ActivityStore interface {
	// Insert appends an entry and fills in its assigned id.
	Insert(ctx context.Context, activity *models.Activity) error

	// FindAll returns every entry ordered by timestamp descending.
	FindAll(ctx context.Context) ([]models.Activity, error)
}
