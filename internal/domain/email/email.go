package email

import (
	"strings"
	"time"
)

// Email is a message pulled from a mailbox for classification.
type Email struct {
	GmailID    string
	From       string
	Subject    string
	Body       string
	Category   Category
	ReceivedAt time.Time
}

func NewEmail(gmailID, from, subject, body string) *Email {
	return &Email{
		GmailID:    gmailID,
		From:       from,
		Subject:    subject,
		Body:       body,
		ReceivedAt: time.Now(),
	}
}

// Text renders the message the way a user would paste it: subject line, blank line, body.
func (e *Email) Text() string {
	var b strings.Builder
	if e.Subject != "" {
		b.WriteString("Subject: ")
		b.WriteString(e.Subject)
		b.WriteString("\n\n")
	}
	b.WriteString(e.Body)
	return b.String()
}

func (e *Email) Classify(category Category) {
	e.Category = category
}

func (e *Email) IsEmpty() bool {
	return strings.TrimSpace(e.Body) == ""
}
