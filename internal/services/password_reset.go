package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/apperrors"
	"github.com/ciaranmckenna/book-club/internal/auth"
	"github.com/ciaranmckenna/book-club/internal/database/users"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = 24 * time.Hour

// ResetNotifier delivers the reset token to the account's email.
// The task queue implements this so delivery happens off the request
// path.
type ResetNotifier interface {
	NotifyPasswordReset(email, token string) error
}

// PasswordResetService issues, validates and consumes password reset
// tokens.
type PasswordResetService struct {
	db         *gorm.DB
	notifier   ResetNotifier
	bcryptCost int
}

// NewPasswordResetService creates a new password reset service.
func NewPasswordResetService(db *gorm.DB, notifier ResetNotifier, bcryptCost int) *PasswordResetService {
	return &PasswordResetService{db: db, notifier: notifier, bcryptCost: bcryptCost}
}

// InitiateReset issues a token for the account registered under the
// email and hands it to the notifier. An unknown email reports success
// without doing anything, so the endpoint does not leak which emails
// have accounts.
func (s *PasswordResetService) InitiateReset(email string) error {
	var token string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		user, err := repo.GetByEmail(email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to look up user: %w", err)
		}

		token, err = generateResetToken()
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}
		expiry := time.Now().Add(ResetTokenTTL)
		user.ResetToken = token
		user.ResetTokenExpiry = &expiry
		if err := repo.Save(user); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	return s.notifier.NotifyPasswordReset(email, token)
}

// ValidateToken reports whether the token belongs to an account and is
// not expired.
func (s *PasswordResetService) ValidateToken(token string) (bool, error) {
	user, err := users.NewRepository(s.db).GetByResetToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up token: %w", err)
	}
	if user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
		return false, nil
	}
	return true, nil
}

// ResetPassword consumes the token and replaces the account's
// password. Expired and unknown tokens fail with a ValidationError.
func (s *PasswordResetService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return apperrors.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		user, err := repo.GetByResetToken(token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Validation("invalid or expired reset token")
			}
			return fmt.Errorf("failed to look up token: %w", err)
		}
		if user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
			return apperrors.Validation("invalid or expired reset token")
		}

		hash, err := auth.HashPassword(newPassword, s.bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
		user.ResetToken = ""
		user.ResetTokenExpiry = nil
		if err := repo.Save(user); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return nil
	})
}

// PurgeExpiredTokens clears reset tokens past their expiry. The
// scheduler runs this periodically.
func (s *PasswordResetService) PurgeExpiredTokens() (int64, error) {
	return users.NewRepository(s.db).ClearExpiredResetTokens(time.Now())
}

func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
