package tasks

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/ciaranmckenna/book-club/internal/email"
)

// PasswordResetEmailTask delivers a password reset email off the
// request path.
type PasswordResetEmailTask struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Config returns the queue configuration for reset email tasks.
func (t PasswordResetEmailTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "password_reset_email",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     1 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			// Payloads carry reset tokens; keep them only for failures
			// that need investigating.
			Data: &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PasswordResetEmailProcessor creates a processor that builds the reset
// link and hands it to the sender.
func PasswordResetEmailProcessor(sender email.Sender, baseURL string) backlite.QueueProcessor[PasswordResetEmailTask] {
	return func(ctx context.Context, task PasswordResetEmailTask) error {
		resetURL := fmt.Sprintf("%s/reset-password?token=%s", baseURL, url.QueryEscape(task.Token))
		if err := sender.SendPasswordReset(task.Email, resetURL); err != nil {
			return fmt.Errorf("send reset email to %s: %w", task.Email, err)
		}
		return nil
	}
}

// NewPasswordResetEmailQueue creates the backlite queue for reset
// emails.
func NewPasswordResetEmailQueue(sender email.Sender, baseURL string) backlite.Queue {
	return backlite.NewQueue(PasswordResetEmailProcessor(sender, baseURL))
}

// Notifier enqueues reset notifications on the task queue. It
// satisfies the reset service's notifier contract.
type Notifier struct {
	client *Client
}

// NewNotifier creates a queue-backed notifier.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

// NotifyPasswordReset enqueues a reset email.
func (n *Notifier) NotifyPasswordReset(emailAddr, token string) error {
	_, err := n.client.Add(PasswordResetEmailTask{Email: emailAddr, Token: token}).Save()
	return err
}
