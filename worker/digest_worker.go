package worker

import (
	"context"
	"log"
	"time"

	"leadpilot/store"
	"leadpilot/utils"
)

// DigestWorker emails the "due today" follow-up bucket once per calendar
// day. It stays idle when no reminders are due or when SMTP is not
// configured.
type DigestWorker struct {
	Store   store.LeadStore
	Mailer  *utils.DigestMailer
	Logger  *log.Logger
	lastDay string
}

func NewDigestWorker(s store.LeadStore, mailer *utils.DigestMailer, logger *log.Logger) *DigestWorker {
	return &DigestWorker{
		Store:  s,
		Mailer: mailer,
		Logger: logger,
	}
}

func (dw *DigestWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	select {
	case <-ctx.Done():
		return
	case <-time.After(10 * time.Second):
	}

	if !dw.Mailer.Enabled() {
		dw.Logger.Println("Digest worker disabled: SMTP or recipient not configured")
		return
	}

	dw.Logger.Println("Digest worker started")

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dw.Logger.Println("Digest worker shutting down...")
			return
		case <-ticker.C:
			dw.sendDailyDigest(ctx)
		}
	}
}

func (dw *DigestWorker) sendDailyDigest(ctx context.Context) {
	now := time.Now()
	day := now.Format("2006-01-02")
	if day == dw.lastDay {
		return
	}

	leads, err := dw.Store.FindAll(ctx)
	if err != nil {
		dw.Logger.Printf("Error fetching leads for digest: %v", err)
		return
	}

	items := utils.CategorizeFollowUps(utils.BuildFollowUpList(leads, now), now).Today
	if len(items) == 0 {
		dw.lastDay = day
		return
	}

	if err := dw.Mailer.SendFollowUpDigest(items); err != nil {
		dw.Logger.Printf("Error sending follow-up digest: %v", err)
		return
	}

	dw.lastDay = day
	utils.LogEvent("followup_digest_sent", map[string]interface{}{
		"day":   day,
		"count": len(items),
	})
}
