package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

// DigestMailer sends the daily follow-up digest email.
type DigestMailer struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	Recipient string
}

// Enabled reports whether SMTP delivery is configured at all.
func (m *DigestMailer) Enabled() bool {
	return m.Host != "" && m.Recipient != ""
}

const digestTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .item { margin: 12px 0; padding: 10px; border: 1px solid #eee; border-radius: 4px; }
        .lead { font-weight: bold; color: #3498db; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Follow-ups due today</h2>
    </div>

    {{range .Items}}
    <div class="item">
        <span class="lead">{{.LeadName}}</span> — {{.ConversationType}}<br>
        {{.ConversationSummary}}
    </div>
    {{end}}

    <div class="footer">
        <p>© {{.Year}} LeadPilot. Sent automatically by the follow-up digest worker.</p>
    </div>
</body>
</html>`

// SendFollowUpDigest emails the given follow-up items to the configured
// recipient. Callers skip the call when the list is empty.
func (m *DigestMailer) SendFollowUpDigest(items []FollowUpItem) error {
	if !m.Enabled() {
		return fmt.Errorf("digest mailer is not configured")
	}

	tmpl, err := template.New("digest").Parse(digestTemplate)
	if err != nil {
		return fmt.Errorf("error parsing digest template: %v", err)
	}

	subject := fmt.Sprintf("LeadPilot: %d follow-up(s) due today", len(items))
	var body bytes.Buffer
	if err := tmpl.Execute(&body, struct {
		Subject string
		Items   []FollowUpItem
		Year    int
	}{
		Subject: subject,
		Items:   items,
		Year:    time.Now().Year(),
	}); err != nil {
		return fmt.Errorf("error executing digest template: %v", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.FromEmail)
	msg.SetHeader("To", m.Recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending digest email: %v", err)
	}
	return nil
}
