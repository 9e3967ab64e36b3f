package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityType identifies the kind of mutation an audit entry describes.
type ActivityType string

const (
	ActivityLeadCreated        ActivityType = "LEAD_CREATED"
	ActivityLeadUpdated        ActivityType = "LEAD_UPDATED"
	ActivityStatusChanged      ActivityType = "STATUS_CHANGED"
	ActivityConversationLogged ActivityType = "CONVERSATION_LOGGED"
	ActivityLeadDeleted        ActivityType = "LEAD_DELETED"
)

// ActivityDetails carries optional field-level context for an entry.
type ActivityDetails struct {
	FieldName        string           `bson:"fieldName,omitempty" json:"fieldName,omitempty"`
	OldValue         string           `bson:"oldValue,omitempty" json:"oldValue,omitempty"`
	NewValue         string           `bson:"newValue,omitempty" json:"newValue,omitempty"`
	ConversationType ConversationType `bson:"conversationType,omitempty" json:"conversationType,omitempty"`
}

// Activity is an immutable audit-trail entry. LeadID and LeadName are a
// snapshot taken when the entry was written; they are never updated, even if
// the lead is renamed or deleted.
type Activity struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	Type        ActivityType       `bson:"type" json:"type"`
	Description string             `bson:"description" json:"description"`
	LeadID      string             `bson:"leadId" json:"leadId"`
	LeadName    string             `bson:"leadName" json:"leadName"`
	Details     *ActivityDetails   `bson:"details,omitempty" json:"details,omitempty"`
}
