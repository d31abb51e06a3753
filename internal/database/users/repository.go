// Package users provides database operations for user accounts and their
// role grants.
package users

import (
	"time"

	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

var sortSafeList = []string{"username", "email", "created_at"}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new user with any role grants attached to it.
func (r *Repository) Create(user *entities.User) error {
	return r.db.Create(user).Error
}

// Save persists all fields of an existing user. Roles are managed
// through their own rows, not through the association.
func (r *Repository) Save(user *entities.User) error {
	return r.db.Omit("Roles").Save(user).Error
}

// GetByID retrieves a user with roles loaded.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Roles").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by exact username.
func (r *Repository) GetByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Roles").Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by exact email.
func (r *Repository) GetByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Roles").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsernameOrEmail retrieves a user by either identifier, the login
// lookup.
func (r *Repository) GetByUsernameOrEmail(identifier string) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Roles").
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByResetToken retrieves the user holding a password-reset token.
func (r *Repository) GetByResetToken(token string) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Roles").Where("reset_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByID checks whether a user exists.
func (r *Repository) ExistsByID(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ExistsByUsername checks username availability.
func (r *Repository) ExistsByUsername(username string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// ExistsByEmail checks email availability.
func (r *Repository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// Delete removes a user together with their role grants, reading lists
// and reviews.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&entities.UserRole{}).Error; err != nil {
			return err
		}

		var listIDs []uint
		if err := tx.Model(&entities.ReadingList{}).Where("user_id = ?", id).Pluck("id", &listIDs).Error; err != nil {
			return err
		}
		if len(listIDs) > 0 {
			if err := tx.Exec("DELETE FROM reading_list_books WHERE reading_list_id IN ?", listIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", id).Delete(&entities.ReadingList{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&entities.Review{}).Error; err != nil {
			return err
		}

		return tx.Delete(&entities.User{}, id).Error
	})
}

// GetAll returns one page of accounts with roles loaded, for the admin
// listing.
func (r *Repository) GetAll(p database.Pagination) (database.Page[entities.User], error) {
	query := r.db.Model(&entities.User{}).Preload("Roles")
	return database.FindPage[entities.User](query, p.WithSortSafeList("username", sortSafeList...))
}

// Count returns the number of registered users.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// ClearExpiredResetTokens blanks every reset token whose expiry has
// passed. Returns the number of users touched.
func (r *Repository) ClearExpiredResetTokens(now time.Time) (int64, error) {
	result := r.db.Model(&entities.User{}).
		Where("reset_token <> '' AND reset_token_expiry IS NOT NULL AND reset_token_expiry < ?", now).
		Updates(map[string]any{
			"reset_token":        "",
			"reset_token_expiry": nil,
		})
	return result.RowsAffected, result.Error
}
