package repository

import (
	"context"
	"errors"
	"log"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"leadpilot/models"
	"leadpilot/store"
	"leadpilot/utils"
)

// memLeadStore is an in-memory LeadStore with the same absent-vs-error
// semantics as the mongo one.
type memLeadStore struct {
	leads map[string]models.Lead
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{leads: map[string]models.Lead{}}
}

func (m *memLeadStore) FindAll(ctx context.Context) ([]models.Lead, error) {
	all := make([]models.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		all = append(all, lead)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

func (m *memLeadStore) FindByID(ctx context.Context, id string) (*models.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return nil, nil
	}
	copied := lead
	return &copied, nil
}

func (m *memLeadStore) Insert(ctx context.Context, lead *models.Lead) error {
	lead.ID = primitive.NewObjectID()
	m.leads[lead.ID.Hex()] = *lead
	return nil
}

func (m *memLeadStore) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*models.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return nil, nil
	}
	for key, value := range fields {
		switch key {
		case "name":
			lead.Name = value.(string)
		case "email":
			lead.Email = value.(string)
		case "linkedinProfileUrl":
			lead.LinkedinProfileURL = value.(string)
		case "company":
			lead.Company = value.(string)
		case "notes":
			lead.Notes = value.(string)
		case "tags":
			lead.Tags = value.([]string)
		case "status":
			lead.Status = value.(models.LeadStatus)
		case "updatedAt":
			lead.UpdatedAt = value.(time.Time)
		}
	}
	m.leads[id] = lead
	return &lead, nil
}

func (m *memLeadStore) ReplaceConversations(ctx context.Context, id string, conversations []models.Conversation, updatedAt time.Time) (*models.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return nil, nil
	}
	lead.Conversations = conversations
	lead.UpdatedAt = updatedAt
	m.leads[id] = lead
	return &lead, nil
}

func (m *memLeadStore) SetConversationReminder(ctx context.Context, id, conversationID string, date *time.Time, updatedAt time.Time) (*models.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return nil, nil
	}
	found := false
	for i := range lead.Conversations {
		if lead.Conversations[i].ID == conversationID {
			lead.Conversations[i].FollowUpReminderDate = date
			found = true
		}
	}
	if !found {
		return nil, nil
	}
	lead.UpdatedAt = updatedAt
	m.leads[id] = lead
	return &lead, nil
}

func (m *memLeadStore) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.leads[id]; !ok {
		return false, nil
	}
	delete(m.leads, id)
	return true, nil
}

type memActivityStore struct {
	activities []models.Activity
}

func (m *memActivityStore) Insert(ctx context.Context, activity *models.Activity) error {
	activity.ID = primitive.NewObjectID()
	m.activities = append(m.activities, *activity)
	return nil
}

func (m *memActivityStore) FindAll(ctx context.Context) ([]models.Activity, error) {
	reversed := make([]models.Activity, 0, len(m.activities))
	for i := len(m.activities) - 1; i >= 0; i-- {
		reversed = append(reversed, m.activities[i])
	}
	return reversed, nil
}

// failingActivityStore rejects every write, for exercising best-effort
// recording.
type failingActivityStore struct{}

func (f *failingActivityStore) Insert(ctx context.Context, activity *models.Activity) error {
	return errors.New("activity store down")
}

func (f *failingActivityStore) FindAll(ctx context.Context) ([]models.Activity, error) {
	return nil, errors.New("activity store down")
}

var _ store.LeadStore = (*memLeadStore)(nil)
var _ store.ActivityStore = (*memActivityStore)(nil)
var _ store.ActivityStore = (*failingActivityStore)(nil)

var testTime = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestRepository() (*LeadRepository, *memLeadStore, *memActivityStore) {
	leads := newMemLeadStore()
	activities := &memActivityStore{}
	logger := log.New(os.Stdout, "TEST: ", log.LstdFlags)

	recorder := NewActivityRecorder(activities, logger)
	recorder.Clock = func() time.Time { return testTime }

	repo := NewLeadRepository(leads, recorder, logger)
	repo.Clock = func() time.Time { return testTime }
	return repo, leads, activities
}

func mustCreateLead(t *testing.T, repo *LeadRepository, name string) *models.Lead {
	t.Helper()
	lead, err := repo.Create(context.Background(), LeadInput{
		Name:  name,
		Email: "lead@example.com",
	})
	require.NoError(t, err)
	return lead
}

func TestCreateLeadDefaults(t *testing.T) {
	repo, _, activities := newTestRepository()

	lead, err := repo.Create(context.Background(), LeadInput{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Tags:  " enterprise, priority ,, priority ",
	})
	require.NoError(t, err)

	assert.False(t, lead.ID.IsZero())
	assert.Equal(t, models.StatusNew, lead.Status)
	assert.Equal(t, testTime, lead.CreatedAt)
	assert.Equal(t, lead.CreatedAt, lead.UpdatedAt)
	assert.NotNil(t, lead.Conversations)
	assert.Empty(t, lead.Conversations)
	assert.Equal(t, []string{"enterprise", "priority", "priority"}, lead.Tags)

	require.Len(t, activities.activities, 1)
	entry := activities.activities[0]
	assert.Equal(t, models.ActivityLeadCreated, entry.Type)
	assert.Equal(t, lead.ID.Hex(), entry.LeadID)
	assert.Equal(t, "Ada Lovelace", entry.LeadName)
}

func TestCreateLeadValidation(t *testing.T) {
	repo, _, activities := newTestRepository()

	_, err := repo.Create(context.Background(), LeadInput{Email: "a@b.co"})
	assert.True(t, IsValidationError(err))

	_, err = repo.Create(context.Background(), LeadInput{Name: "X", Email: "not-an-email"})
	assert.True(t, IsValidationError(err))

	_, err = repo.Create(context.Background(), LeadInput{Name: "X", Email: "a@b.co", Status: "Frozen"})
	assert.True(t, IsValidationError(err))

	assert.Empty(t, activities.activities)
}

func TestMutationsSurviveActivityRecordingFailure(t *testing.T) {
	leads := newMemLeadStore()
	logger := log.New(os.Stdout, "TEST: ", log.LstdFlags)

	recorder := NewActivityRecorder(&failingActivityStore{}, logger)
	recorder.Clock = func() time.Time { return testTime }
	repo := NewLeadRepository(leads, recorder, logger)
	repo.Clock = func() time.Time { return testTime }

	// Every recording attempt fails, yet each primary write must still land.
	lead, err := repo.Create(context.Background(), LeadInput{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	})
	require.NoError(t, err)
	_, persisted := leads.leads[lead.ID.Hex()]
	assert.True(t, persisted)

	updated, err := repo.Update(context.Background(), lead.ID.Hex(), LeadUpdate{
		Status: utils.Pointer(string(models.StatusContacted)),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusContacted, updated.Status)
	assert.Equal(t, models.StatusContacted, leads.leads[lead.ID.Hex()].Status)

	require.NoError(t, repo.Delete(context.Background(), lead.ID.Hex()))
	assert.Empty(t, leads.leads)
}

func TestUpdateLeadRecordsStatusChange(t *testing.T) {
	repo, _, activities := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")

	updated, err := repo.Update(context.Background(), lead.ID.Hex(), LeadUpdate{
		Status: utils.Pointer(string(models.StatusContacted)),
		Notes:  utils.Pointer("warmed up"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusContacted, updated.Status)
	assert.Equal(t, "warmed up", updated.Notes)

	// LEAD_CREATED + LEAD_UPDATED + STATUS_CHANGED
	require.Len(t, activities.activities, 3)
	statusEntry := activities.activities[2]
	assert.Equal(t, models.ActivityStatusChanged, statusEntry.Type)
	require.NotNil(t, statusEntry.Details)
	assert.Equal(t, "status", statusEntry.Details.FieldName)
	assert.Equal(t, string(models.StatusNew), statusEntry.Details.OldValue)
	assert.Equal(t, string(models.StatusContacted), statusEntry.Details.NewValue)
}

func TestUpdateLeadWithoutStatusChange(t *testing.T) {
	repo, _, activities := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")

	_, err := repo.Update(context.Background(), lead.ID.Hex(), LeadUpdate{
		Company: utils.Pointer("Analytical Engines Ltd"),
	})
	require.NoError(t, err)

	// Only LEAD_CREATED + LEAD_UPDATED, no STATUS_CHANGED.
	require.Len(t, activities.activities, 2)
	assert.Equal(t, models.ActivityLeadUpdated, activities.activities[1].Type)
}

func TestUpdateLeadSameStatusNoStatusEntry(t *testing.T) {
	repo, _, activities := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")

	_, err := repo.Update(context.Background(), lead.ID.Hex(), LeadUpdate{
		Status: utils.Pointer(string(models.StatusNew)),
	})
	require.NoError(t, err)

	require.Len(t, activities.activities, 2)
	assert.Equal(t, models.ActivityLeadUpdated, activities.activities[1].Type)
}

func TestSetStatusSkipsWhenUnchanged(t *testing.T) {
	repo, leads, activities := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")
	before := leads.leads[lead.ID.Hex()].UpdatedAt

	result, err := repo.SetStatus(context.Background(), lead.ID.Hex(), string(models.StatusNew))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, result.Status)

	// No write and no extra activity beyond LEAD_CREATED.
	assert.Equal(t, before, leads.leads[lead.ID.Hex()].UpdatedAt)
	assert.Len(t, activities.activities, 1)
}

func TestSetStatusRecordsTransition(t *testing.T) {
	repo, _, activities := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")

	updated, err := repo.SetStatus(context.Background(), lead.ID.Hex(), string(models.StatusQualified))
	require.NoError(t, err)
	assert.Equal(t, models.StatusQualified, updated.Status)

	require.Len(t, activities.activities, 2)
	entry := activities.activities[1]
	assert.Equal(t, models.ActivityStatusChanged, entry.Type)
	require.NotNil(t, entry.Details)
	assert.Equal(t, string(models.StatusNew), entry.Details.OldValue)
	assert.Equal(t, string(models.StatusQualified), entry.Details.NewValue)
}

func TestSetStatusUnknownStatus(t *testing.T) {
	repo, _, _ := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")

	_, err := repo.SetStatus(context.Background(), lead.ID.Hex(), "Hibernating")
	assert.True(t, IsValidationError(err))
}

func TestDeleteLead(t *testing.T) {
	repo, leads, activities := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")

	err := repo.Delete(context.Background(), lead.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, leads.leads)

	require.Len(t, activities.activities, 2)
	entry := activities.activities[1]
	assert.Equal(t, models.ActivityLeadDeleted, entry.Type)
	assert.Equal(t, "Ada", entry.LeadName)
}

func TestDeleteMissingLead(t *testing.T) {
	repo, _, activities := newTestRepository()

	err := repo.Delete(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, activities.activities)
}

func TestAppendConversationKeepsDateDescendingOrder(t *testing.T) {
	repo, _, activities := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")

	older := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := repo.AppendConversation(context.Background(), lead.ID.Hex(), ConversationInput{
		Type:    string(models.ConversationCall),
		Date:    older,
		Summary: "Intro call, discussed scope.",
	})
	require.NoError(t, err)

	updated, err := repo.AppendConversation(context.Background(), lead.ID.Hex(), ConversationInput{
		Type:    string(models.ConversationEmail),
		Date:    newer,
		Summary: "Sent the proposal draft.",
	})
	require.NoError(t, err)

	require.Len(t, updated.Conversations, 2)
	assert.Equal(t, newer, updated.Conversations[0].Date)
	assert.Equal(t, older, updated.Conversations[1].Date)
	assert.NotEmpty(t, updated.Conversations[0].ID)
	assert.NotEqual(t, updated.Conversations[0].ID, updated.Conversations[1].ID)

	// LEAD_CREATED + two CONVERSATION_LOGGED entries.
	require.Len(t, activities.activities, 3)
	entry := activities.activities[2]
	assert.Equal(t, models.ActivityConversationLogged, entry.Type)
	require.NotNil(t, entry.Details)
	assert.Equal(t, models.ConversationEmail, entry.Details.ConversationType)
}

func TestAppendConversationValidation(t *testing.T) {
	repo, _, _ := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")
	date := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := repo.AppendConversation(context.Background(), lead.ID.Hex(), ConversationInput{
		Type: "Telegram", Date: date, Summary: "long enough summary",
	})
	assert.True(t, IsValidationError(err))

	_, err = repo.AppendConversation(context.Background(), lead.ID.Hex(), ConversationInput{
		Type: string(models.ConversationCall), Date: date, Summary: "hi",
	})
	assert.True(t, IsValidationError(err))

	// Minimum length counts runes, not bytes: four kanji are twelve bytes.
	_, err = repo.AppendConversation(context.Background(), lead.ID.Hex(), ConversationInput{
		Type: string(models.ConversationCall), Date: date, Summary: "日本語だ",
	})
	assert.True(t, IsValidationError(err))

	_, err = repo.AppendConversation(context.Background(), lead.ID.Hex(), ConversationInput{
		Type: string(models.ConversationCall), Summary: "long enough summary",
	})
	assert.True(t, IsValidationError(err))
}

func TestSetConversationReminder(t *testing.T) {
	repo, _, activities := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")

	updated, err := repo.AppendConversation(context.Background(), lead.ID.Hex(), ConversationInput{
		Type:    string(models.ConversationCall),
		Date:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Summary: "Intro call, discussed scope.",
	})
	require.NoError(t, err)
	conversationID := updated.Conversations[0].ID

	reminder := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	updated, err = repo.SetConversationReminder(context.Background(), lead.ID.Hex(), conversationID, &reminder)
	require.NoError(t, err)

	convo := updated.Conversation(conversationID)
	require.NotNil(t, convo)
	require.NotNil(t, convo.FollowUpReminderDate)
	assert.Equal(t, reminder, *convo.FollowUpReminderDate)

	entry := activities.activities[len(activities.activities)-1]
	assert.Equal(t, models.ActivityLeadUpdated, entry.Type)
	require.NotNil(t, entry.Details)
	assert.Equal(t, "Conversation Reminder (ID: "+conversationID+")", entry.Details.FieldName)
	assert.Equal(t, "None", entry.Details.OldValue)
	assert.Equal(t, "2025-03-20", entry.Details.NewValue)
}

func TestClearConversationReminderLeavesSiblingsUntouched(t *testing.T) {
	repo, _, activities := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")

	first := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	updated, err := repo.AppendConversation(context.Background(), lead.ID.Hex(), ConversationInput{
		Type:                 string(models.ConversationCall),
		Date:                 time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Summary:              "Intro call, discussed scope.",
		FollowUpReminderDate: &first,
	})
	require.NoError(t, err)

	second := time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC)
	updated, err = repo.AppendConversation(context.Background(), lead.ID.Hex(), ConversationInput{
		Type:                 string(models.ConversationEmail),
		Date:                 time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Summary:              "Sent the proposal draft.",
		FollowUpReminderDate: &second,
	})
	require.NoError(t, err)

	clearedID := updated.Conversations[0].ID
	siblingID := updated.Conversations[1].ID

	updated, err = repo.SetConversationReminder(context.Background(), lead.ID.Hex(), clearedID, nil)
	require.NoError(t, err)

	assert.Nil(t, updated.Conversation(clearedID).FollowUpReminderDate)
	sibling := updated.Conversation(siblingID)
	require.NotNil(t, sibling.FollowUpReminderDate)
	assert.Equal(t, first, *sibling.FollowUpReminderDate)

	entry := activities.activities[len(activities.activities)-1]
	assert.Equal(t, "None", entry.Details.NewValue)
}

func TestSetConversationReminderUnknownConversation(t *testing.T) {
	repo, _, _ := newTestRepository()
	lead := mustCreateLead(t, repo, "Ada")

	_, err := repo.SetConversationReminder(context.Background(), lead.ID.Hex(), "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMissingLead(t *testing.T) {
	repo, _, _ := newTestRepository()

	_, err := repo.Get(context.Background(), "not-a-hex-id")
	assert.ErrorIs(t, err, ErrNotFound)
}
