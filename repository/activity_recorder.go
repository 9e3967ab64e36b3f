package repository

import (
	"context"
	"log"
	"time"

	"leadpilot/models"
	"leadpilot/store"
	"leadpilot/utils"
)

// Clock supplies the current time for createdAt/updatedAt/timestamp fields.
// Injectable so tests can pin it.
type Clock func() time.Time

// ActivityRecorder appends immutable audit entries. Recording is best-effort:
// a failure here must never roll back the business write that triggered it,
// so callers log the returned error as a warning and move on.
type ActivityRecorder struct {
	Store  store.ActivityStore
	Clock  Clock
	Logger *log.Logger

	// Notify, when set, is invoked with every successfully recorded entry.
	// Used to feed the live activity websocket.
	Notify func(models.Activity)
}

func NewActivityRecorder(s store.ActivityStore, logger *log.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		Store:  s,
		Clock:  time.Now,
		Logger: logger,
	}
}

// Record appends one entry. LeadID and leadName are snapshotted as given and
// never touched again, even if the lead is later renamed or deleted.
func (ar *ActivityRecorder) Record(ctx context.Context, activityType models.ActivityType, leadID, leadName, description string, details *models.ActivityDetails) error {
	activity := models.Activity{
		Timestamp:   ar.Clock().UTC(),
		Type:        activityType,
		Description: description,
		LeadID:      leadID,
		LeadName:    leadName,
		Details:     details,
	}

	if err := ar.Store.Insert(ctx, &activity); err != nil {
		utils.LogError("activity_record_failed", err, map[string]interface{}{
			"activity_type": string(activityType),
			"lead_id":       leadID,
		})
		return err
	}

	if ar.Notify != nil {
		ar.Notify(activity)
	}
	return nil
}

// List returns all entries, newest first.
func (ar *ActivityRecorder) List(ctx context.Context) ([]models.Activity, error) {
	return ar.Store.FindAll(ctx)
}
