package repository

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/badoux/checkmail"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"leadpilot/models"
	"leadpilot/store"
)

const minSummaryLength = 5

// LeadInput carries the fields for creating a lead. Tags is the raw
// comma-separated string as typed by the user.
type LeadInput struct {
	Name               string
	Email              string
	LinkedinProfileURL string
	Company            string
	Notes              string
	Tags               string
	Status             string
}

// LeadUpdate is a partial update: nil fields are left untouched and are
// stripped before the write, never used to null out a stored value.
type LeadUpdate struct {
	Name               *string
	Email              *string
	LinkedinProfileURL *string
	Company            *string
	Notes              *string
	Tags               *string
	Status             *string
}

// ConversationInput carries the fields for logging a conversation.
type ConversationInput struct {
	Type                 string
	Date                 time.Time
	Summary              string
	CustomNotes          string
	FollowUpReminderDate *time.Time
}

// LeadRepository owns the lead aggregate lifecycle. Every mutation stamps
// updatedAt from the injected clock and emits an audit entry through the
// recorder; recording failures are logged and swallowed, they never fail the
// primary write.
type LeadRepository struct {
	Store    store.LeadStore
	Recorder *ActivityRecorder
	Clock    Clock
	Logger   *log.Logger
}

func NewLeadRepository(s store.LeadStore, recorder *ActivityRecorder, logger *log.Logger) *LeadRepository {
	return &LeadRepository{
		Store:    s,
		Recorder: recorder,
		Clock:    time.Now,
		Logger:   logger,
	}
}

// List returns all leads, newest first.
func (r *LeadRepository) List(ctx context.Context) ([]models.Lead, error) {
	return r.Store.FindAll(ctx)
}

// Get returns one lead or ErrNotFound.
func (r *LeadRepository) Get(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := r.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrNotFound
	}
	return lead, nil
}

// Create validates the input, persists a new lead with default status New and
// an empty conversation list, and emits a LEAD_CREATED entry.
func (r *LeadRepository) Create(ctx context.Context, input LeadInput) (*models.Lead, error) {
	if input.Name == "" {
		return nil, validationErrorf("name is required")
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return nil, validationErrorf("email must be a valid email address")
	}

	status := models.StatusNew
	if input.Status != "" {
		status = models.LeadStatus(input.Status)
		if !status.IsValid() {
			return nil, validationErrorf(fmt.Sprintf("unknown lead status %q", input.Status))
		}
	}

	now := r.Clock().UTC()
	lead := models.Lead{
		Name:               input.Name,
		Email:              input.Email,
		LinkedinProfileURL: input.LinkedinProfileURL,
		Company:            input.Company,
		Notes:              input.Notes,
		Tags:               models.ParseTags(input.Tags),
		Status:             status,
		CreatedAt:          now,
		UpdatedAt:          now,
		Conversations:      []models.Conversation{},
	}

	if err := r.Store.Insert(ctx, &lead); err != nil {
		return nil, err
	}

	r.record(ctx, models.ActivityLeadCreated, &lead,
		fmt.Sprintf("Lead %q created.", lead.Name), nil)
	return &lead, nil
}

// Update applies a field-level partial update and emits LEAD_UPDATED, plus
// STATUS_CHANGED when the status actually moved.
func (r *LeadRepository) Update(ctx context.Context, id string, input LeadUpdate) (*models.Lead, error) {
	if input.Name != nil && *input.Name == "" {
		return nil, validationErrorf("name is required")
	}
	if input.Email != nil {
		if err := checkmail.ValidateFormat(*input.Email); err != nil {
			return nil, validationErrorf("email must be a valid email address")
		}
	}
	if input.Status != nil && !models.LeadStatus(*input.Status).IsValid() {
		return nil, validationErrorf(fmt.Sprintf("unknown lead status %q", *input.Status))
	}

	previous, err := r.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return nil, ErrNotFound
	}

	fields := map[string]interface{}{
		"updatedAt": r.Clock().UTC(),
	}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Email != nil {
		fields["email"] = *input.Email
	}
	if input.LinkedinProfileURL != nil {
		fields["linkedinProfileUrl"] = *input.LinkedinProfileURL
	}
	if input.Company != nil {
		fields["company"] = *input.Company
	}
	if input.Notes != nil {
		fields["notes"] = *input.Notes
	}
	if input.Tags != nil {
		fields["tags"] = models.ParseTags(*input.Tags)
	}
	if input.Status != nil {
		fields["status"] = models.LeadStatus(*input.Status)
	}

	updated, err := r.Store.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	r.record(ctx, models.ActivityLeadUpdated, updated,
		fmt.Sprintf("Lead %q details updated.", updated.Name), nil)

	if input.Status != nil && models.LeadStatus(*input.Status) != previous.Status {
		r.record(ctx, models.ActivityStatusChanged, updated,
			fmt.Sprintf("Status of lead %q changed from %s to %s.", updated.Name, previous.Status, updated.Status),
			&models.ActivityDetails{
				FieldName: "status",
				OldValue:  string(previous.Status),
				NewValue:  string(updated.Status),
			})
	}
	return updated, nil
}

// SetStatus moves a lead to a new pipeline stage and emits STATUS_CHANGED.
// Setting the current status again is a no-op: the read still happens but no
// write is issued and no activity is recorded.
func (r *LeadRepository) SetStatus(ctx context.Context, id string, newStatus string) (*models.Lead, error) {
	status := models.LeadStatus(newStatus)
	if !status.IsValid() {
		return nil, validationErrorf(fmt.Sprintf("unknown lead status %q", newStatus))
	}

	previous, err := r.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return nil, ErrNotFound
	}
	if previous.Status == status {
		return previous, nil
	}

	updated, err := r.Store.UpdateFields(ctx, id, map[string]interface{}{
		"status":    status,
		"updatedAt": r.Clock().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	r.record(ctx, models.ActivityStatusChanged, updated,
		fmt.Sprintf("Status of lead %q changed from %s to %s.", updated.Name, previous.Status, updated.Status),
		&models.ActivityDetails{
			FieldName: "status",
			OldValue:  string(previous.Status),
			NewValue:  string(updated.Status),
		})
	return updated, nil
}

// Delete removes a lead and emits LEAD_DELETED using the pre-delete snapshot.
// If the lead vanished between the read and the delete, the operation reports
// ErrNotFound and records nothing.
func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	snapshot, err := r.Store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return ErrNotFound
	}

	deleted, err := r.Store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	r.record(ctx, models.ActivityLeadDeleted, snapshot,
		fmt.Sprintf("Lead %q deleted.", snapshot.Name), nil)
	return nil
}

// AppendConversation validates and appends a conversation, then rewrites the
// embedded list sorted by date descending (stable, so same-date entries keep
// insertion order). Emits CONVERSATION_LOGGED.
func (r *LeadRepository) AppendConversation(ctx context.Context, leadID string, input ConversationInput) (*models.Lead, error) {
	convoType := models.ConversationType(input.Type)
	if !convoType.IsValid() {
		return nil, validationErrorf(fmt.Sprintf("unknown conversation type %q", input.Type))
	}
	if utf8.RuneCountInString(input.Summary) < minSummaryLength {
		return nil, validationErrorf(fmt.Sprintf("summary must be at least %d characters", minSummaryLength))
	}
	if input.Date.IsZero() {
		return nil, validationErrorf("conversation date is required")
	}

	lead, err := r.Store.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrNotFound
	}

	now := r.Clock().UTC()
	conversation := models.Conversation{
		ID:                   primitive.NewObjectID().Hex(),
		Type:                 convoType,
		Date:                 input.Date.UTC(),
		Summary:              input.Summary,
		CustomNotes:          input.CustomNotes,
		FollowUpReminderDate: input.FollowUpReminderDate,
		CreatedAt:            now,
	}

	conversations := make([]models.Conversation, 0, len(lead.Conversations)+1)
	conversations = append(conversations, lead.Conversations...)
	conversations = append(conversations, conversation)
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].Date.After(conversations[j].Date)
	})

	updated, err := r.Store.ReplaceConversations(ctx, leadID, conversations, now)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	r.record(ctx, models.ActivityConversationLogged, updated,
		fmt.Sprintf("%s conversation logged for lead %q.", conversation.Type, updated.Name),
		&models.ActivityDetails{ConversationType: conversation.Type})
	return updated, nil
}

// SetConversationReminder reschedules (or clears, when date is nil) the
// follow-up reminder on one embedded conversation, leaving its siblings
// untouched. Emits LEAD_UPDATED with the old and new dates.
func (r *LeadRepository) SetConversationReminder(ctx context.Context, leadID, conversationID string, date *time.Time) (*models.Lead, error) {
	lead, err := r.Store.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrNotFound
	}

	conversation := lead.Conversation(conversationID)
	if conversation == nil {
		return nil, ErrNotFound
	}
	oldValue := formatReminderDate(conversation.FollowUpReminderDate)

	var newDate *time.Time
	if date != nil {
		utc := date.UTC()
		newDate = &utc
	}

	updated, err := r.Store.SetConversationReminder(ctx, leadID, conversationID, newDate, r.Clock().UTC())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	r.record(ctx, models.ActivityLeadUpdated, updated,
		fmt.Sprintf("Follow-up reminder for lead %q updated.", updated.Name),
		&models.ActivityDetails{
			FieldName: fmt.Sprintf("Conversation Reminder (ID: %s)", conversationID),
			OldValue:  oldValue,
			NewValue:  formatReminderDate(newDate),
		})
	return updated, nil
}

func (r *LeadRepository) record(ctx context.Context, activityType models.ActivityType, lead *models.Lead, description string, details *models.ActivityDetails) {
	if err := r.Recorder.Record(ctx, activityType, lead.ID.Hex(), lead.Name, description, details); err != nil {
		r.Logger.Printf("activity logging failed for %s on lead %s: %v", activityType, lead.ID.Hex(), err)
	}
}

func formatReminderDate(date *time.Time) string {
	if date == nil {
		return "None"
	}
	return date.Format("2006-01-02")
}
