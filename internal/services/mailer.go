package services

import "log"

// Mailer delivers magic link emails. Delivery is an external collaborator:
// the core only constructs the URL, and a delivery failure never rolls back
// link creation.
type Mailer interface {
	SendMagicLink(email, magicURL string) error
}

// LogMailer is the default Mailer; it logs instead of sending.
type LogMailer struct{}

// NewLogMailer creates a new LogMailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// SendMagicLink logs the magic link instead of emailing it.
func (m *LogMailer) SendMagicLink(email, magicURL string) error {
	log.Printf("magic link for %s: %s", email, magicURL)
	return nil
}
