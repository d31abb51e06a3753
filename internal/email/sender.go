// Package email delivers account notifications. The only implementation
// writes to the log; a real SMTP sender can drop in behind the same
// interface.
package email

import "log"

// Sender delivers account emails.
type Sender interface {
	SendPasswordReset(to, resetURL string) error
}

// LogSender writes outgoing emails to the application log instead of
// delivering them. Used in development and in tests.
type LogSender struct {
	From string
}

// NewLogSender creates a log-backed sender.
func NewLogSender(from string) *LogSender {
	return &LogSender{From: from}
}

// SendPasswordReset logs the reset email that would have been sent.
func (s *LogSender) SendPasswordReset(to, resetURL string) error {
	log.Printf("[EMAIL] from=%s to=%s subject=%q reset_url=%s",
		s.From, to, "Password reset request", resetURL)
	return nil
}
