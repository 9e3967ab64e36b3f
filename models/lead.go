package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeadStatus is the pipeline stage a lead is currently in.
type LeadStatus string

const (
	StatusNew          LeadStatus = "New"
	StatusContacted    LeadStatus = "Contacted"
	StatusQualified    LeadStatus = "Qualified"
	StatusProposalSent LeadStatus = "Proposal Sent"
	StatusConverted    LeadStatus = "Converted"
	StatusLost         LeadStatus = "Lost"
)

// LeadStatuses lists all statuses in pipeline order. Dashboard breakdowns
// follow this order.
var LeadStatuses = []LeadStatus{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusProposalSent,
	StatusConverted,
	StatusLost,
}

func (s LeadStatus) IsValid() bool {
	for _, known := range LeadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ConversationType categorizes a logged interaction.
type ConversationType string

const (
	ConversationEmail    ConversationType = "Email"
	ConversationCall     ConversationType = "Call"
	ConversationLinkedIn ConversationType = "LinkedIn Message"
	ConversationMeeting  ConversationType = "Meeting"
	ConversationNote     ConversationType = "Note"
)

var ConversationTypes = []ConversationType{
	ConversationEmail,
	ConversationCall,
	ConversationLinkedIn,
	ConversationMeeting,
	ConversationNote,
}

func (t ConversationType) IsValid() bool {
	for _, known := range ConversationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Conversation is a single logged interaction embedded in a Lead. It has no
// lifecycle of its own: it is created through the parent lead and only its
// follow-up reminder date may change afterwards.
type Conversation struct {
	ID                   string           `bson:"id" json:"id"`
	Type                 ConversationType `bson:"type" json:"type"`
	Date                 time.Time        `bson:"date" json:"date"`
	Summary              string           `bson:"summary" json:"summary"`
	CustomNotes          string           `bson:"customNotes,omitempty" json:"customNotes,omitempty"`
	FollowUpReminderDate *time.Time       `bson:"followUpReminderDate,omitempty" json:"followUpReminderDate,omitempty"`
	CreatedAt            time.Time        `bson:"createdAt" json:"createdAt"`
}

// Lead is a prospective customer, the aggregate root of the system.
// Conversations are kept sorted by date descending (newest first).
type Lead struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"`
	Email              string             `bson:"email" json:"email"`
	LinkedinProfileURL string             `bson:"linkedinProfileUrl" json:"linkedinProfileUrl"`
	Company            string             `bson:"company" json:"company"`
	Notes              string             `bson:"notes" json:"notes"`
	Tags               []string           `bson:"tags" json:"tags"`
	Status             LeadStatus         `bson:"status" json:"status"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
	Conversations      []Conversation     `bson:"conversations" json:"conversations"`
}

// ParseTags splits a comma-separated tag string, trims whitespace and drops
// empty entries. Duplicates are kept as entered.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Conversation returns the embedded conversation with the given id, or nil.
func (l *Lead) Conversation(conversationID string) *Conversation {
	for i := range l.Conversations {
		if l.Conversations[i].ID == conversationID {
			return &l.Conversations[i]
		}
	}
	return nil
}

// CommunicationHistory renders the conversation list as one line per entry,
// suitable as prompt context for next-step suggestions.
func (l *Lead) CommunicationHistory() string {
	if len(l.Conversations) == 0 {
		return "No communication history yet."
	}
	lines := make([]string, 0, len(l.Conversations))
	for _, convo := range l.Conversations {
		lines = append(lines, fmt.Sprintf("%s on %s: %s", convo.Type, convo.Date.Format("2006-01-02"), convo.Summary))
	}
	return strings.Join(lines, "\n")
}
