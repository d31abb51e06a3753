package services

import (
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/ciaranmckenna/book-club/internal/apperrors"
	"github.com/ciaranmckenna/book-club/internal/auth"
	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/database/users"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	maxNameLength     = 100
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RegistrationInput carries the fields of a new account. It is a plain
// data holder; Validate runs once, when the service consumes it.
type RegistrationInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate checks the field constraints of a registration.
func (in RegistrationInput) Validate() error {
	if len(in.Username) < minUsernameLength || len(in.Username) > maxUsernameLength {
		return apperrors.Validation("username must be %d-%d characters", minUsernameLength, maxUsernameLength)
	}
	if !emailPattern.MatchString(in.Email) {
		return apperrors.Validation("invalid email address")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return apperrors.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}
	if len(in.FirstName) > maxNameLength || len(in.LastName) > maxNameLength {
		return apperrors.Validation("names must be at most %d characters", maxNameLength)
	}
	return nil
}

// ProfileInput carries the fields a user may change on their own
// account.
type ProfileInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserService manages accounts, registration uniqueness and role
// grants.
type UserService struct {
	db         *gorm.DB
	bcryptCost int
}

// NewUserService creates a new user service. The bcrypt cost comes
// from configuration.
func NewUserService(db *gorm.DB, bcryptCost int) *UserService {
	return &UserService{db: db, bcryptCost: bcryptCost}
}

// Register creates a new enabled account with the default user role.
// Duplicate usernames and emails fail with a ValidationError.
func (s *UserService) Register(input RegistrationInput) (*entities.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var created *entities.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		taken, err := repo.ExistsByUsername(input.Username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if taken {
			return apperrors.Validation("username %q is already taken", input.Username)
		}
		taken, err = repo.ExistsByEmail(input.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return apperrors.Validation("email %q is already registered", input.Email)
		}

		user := &entities.User{
			Username:     input.Username,
			Email:        input.Email,
			PasswordHash: hash,
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			Enabled:      true,
			Roles:        []entities.UserRole{{Role: entities.RoleUser}},
		}
		if err := repo.Create(user); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.Validation("username or email is already registered")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Authenticate verifies the credentials against the stored hash. The
// identifier may be a username or an email. Failed lookups and wrong
// passwords both come back as an AuthorizationError, without revealing
// which one happened.
func (s *UserService) Authenticate(identifier, password string) (*entities.User, error) {
	user, err := users.NewRepository(s.db).GetByUsernameOrEmail(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Authorization("invalid credentials")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.Enabled {
		return nil, apperrors.Authorization("account is disabled")
	}
	if err := auth.CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, apperrors.Authorization("invalid credentials")
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves an account with its roles.
func (s *UserService) GetUserByID(id uint) (*entities.User, error) {
	user, err := users.NewRepository(s.db).GetByID(id)
	if err != nil {
		return nil, apperrors.FromDB(err, "user", id)
	}
	return user, nil
}

// GetUserByUsername retrieves an account by username.
func (s *UserService) GetUserByUsername(username string) (*entities.User, error) {
	user, err := users.NewRepository(s.db).GetByUsername(username)
	if err != nil {
		return nil, apperrors.FromDB(err, "user", 0)
	}
	return user, nil
}

// UpdateProfile changes the email and display names. A changed email
// must not collide with another account.
func (s *UserService) UpdateProfile(id uint, input ProfileInput) (*entities.User, error) {
	if !emailPattern.MatchString(input.Email) {
		return nil, apperrors.Validation("invalid email address")
	}
	if len(input.FirstName) > maxNameLength || len(input.LastName) > maxNameLength {
		return nil, apperrors.Validation("names must be at most %d characters", maxNameLength)
	}

	var updated *entities.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		user, err := repo.GetByID(id)
		if err != nil {
			return apperrors.FromDB(err, "user", id)
		}

		if input.Email != user.Email {
			taken, err := repo.ExistsByEmail(input.Email)
			if err != nil {
				return fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				return apperrors.Validation("email %q is already registered", input.Email)
			}
		}

		user.Email = input.Email
		user.FirstName = input.FirstName
		user.LastName = input.LastName
		if err := repo.Save(user); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.Validation("email %q is already registered", input.Email)
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePassword replaces the password after verifying the current
// one.
func (s *UserService) ChangePassword(id uint, current, next string) error {
	if len(next) < auth.MinPasswordLength {
		return apperrors.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		user, err := repo.GetByID(id)
		if err != nil {
			return apperrors.FromDB(err, "user", id)
		}
		if err := auth.CheckPassword(current, user.PasswordHash); err != nil {
			return apperrors.Authorization("current password is incorrect")
		}
		hash, err := auth.HashPassword(next, s.bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
		if err := repo.Save(user); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return nil
	})
}

// DeleteUser removes the account and everything it owns: its reading
// lists, memberships and reviews go with it.
func (s *UserService) DeleteUser(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		exists, err := repo.ExistsByID(id)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return apperrors.NotFound("user", id)
		}
		return repo.Delete(id)
	})
}

// IsUsernameAvailable reports whether the username is free.
func (s *UserService) IsUsernameAvailable(username string) (bool, error) {
	taken, err := users.NewRepository(s.db).ExistsByUsername(username)
	return !taken, err
}

// IsEmailAvailable reports whether the email is free.
func (s *UserService) IsEmailAvailable(email string) (bool, error) {
	taken, err := users.NewRepository(s.db).ExistsByEmail(email)
	return !taken, err
}

// GetAllUsers returns one page of accounts, for administration.
func (s *UserService) GetAllUsers(p database.Pagination) (database.Page[entities.User], error) {
	return users.NewRepository(s.db).GetAll(p)
}

// GrantRole adds a role to the account. Granting a role the user
// already holds is a no-op.
func (s *UserService) GrantRole(id uint, role string) error {
	if role != entities.RoleUser && role != entities.RoleAdmin {
		return apperrors.Validation("unknown role %q", role)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		user, err := repo.GetByID(id)
		if err != nil {
			return apperrors.FromDB(err, "user", id)
		}
		if user.HasRole(role) {
			return nil
		}
		if err := tx.Create(&entities.UserRole{UserID: id, Role: role}).Error; err != nil {
			if apperrors.IsUniqueViolation(err) {
				return nil
			}
			return fmt.Errorf("failed to grant role: %w", err)
		}
		return nil
	})
}

// RevokeRole removes a role from the account. Revoking a role the user
// does not hold is a no-op.
func (s *UserService) RevokeRole(id uint, role string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		exists, err := repo.ExistsByID(id)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return apperrors.NotFound("user", id)
		}
		return tx.Where("user_id = ? AND role = ?", id, role).
			Delete(&entities.UserRole{}).Error
	})
}

// SetEnabled toggles whether the account can sign in.
func (s *UserService) SetEnabled(id uint, enabled bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		user, err := repo.GetByID(id)
		if err != nil {
			return apperrors.FromDB(err, "user", id)
		}
		user.Enabled = enabled
		if err := repo.Save(user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
}
