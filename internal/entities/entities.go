package entities

import (
	"time"
)

// Role names. Stored as rows in user_roles so a user can hold several.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Username         string     `gorm:"uniqueIndex;size:50" json:"username"`
	Email            string     `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash     string     `gorm:"size:255" json:"-"`
	FirstName        string     `gorm:"size:100" json:"first_name,omitempty"`
	LastName         string     `gorm:"size:100" json:"last_name,omitempty"`
	Enabled          bool       `gorm:"default:true" json:"enabled"`
	Roles            []UserRole `gorm:"foreignKey:UserID" json:"roles,omitempty"`
	ResetToken       string     `gorm:"index;size:64" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// UserRole is a single role grant. Mirrors a role element collection rather
// than a full role entity: the role name itself is the value.
type UserRole struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	UserID uint   `gorm:"index:idx_user_roles_user_role,unique" json:"-"`
	Role   string `gorm:"size:50;index:idx_user_roles_user_role,unique" json:"role"`
}

// HasRole reports whether the user holds the named role.
// Requires Roles to be loaded.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user holds ROLE_ADMIN.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// FullName returns "First Last", falling back to the username when both
// name fields are empty.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

type Book struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"index;size:255" json:"title"`
	Author          string     `gorm:"index;size:255" json:"author"`
	PublicationDate time.Time  `json:"publication_date"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	Publisher       string     `gorm:"size:255" json:"publisher,omitempty"`
	ISBN            string     `gorm:"index;size:20" json:"isbn,omitempty"`
	CoverImageURL   string     `gorm:"size:2048" json:"cover_image_url,omitempty"`
	CreatedByID     uint       `gorm:"index" json:"created_by_id"`
	CreatedBy       User       `gorm:"foreignKey:CreatedByID" json:"-"`
	Categories      []Category `gorm:"many2many:book_categories;" json:"categories,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50" json:"name"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	Books       []Book    `gorm:"many2many:book_categories;" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReadingList owns one side of the reading_list_books join relation.
// Book deliberately carries no back-reference collection: the membership
// edge is a single (list_id, book_id) fact queried from either direction.
type ReadingList struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"index;size:100" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	UserID      uint      `gorm:"index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
	Books       []Book    `gorm:"many2many:reading_list_books;" json:"books,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Rating     int       `json:"rating"`
	ReviewText string    `gorm:"size:1000" json:"review_text,omitempty"`
	BookID     uint      `gorm:"index:idx_reviews_book_user,unique" json:"book_id"`
	UserID     uint      `gorm:"index:idx_reviews_book_user,unique" json:"user_id"`
	Book       Book      `gorm:"foreignKey:BookID" json:"-"`
	User       User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string        { return "users" }
func (UserRole) TableName() string    { return "user_roles" }
func (Book) TableName() string        { return "books" }
func (Category) TableName() string    { return "categories" }
func (ReadingList) TableName() string { return "reading_lists" }
func (Review) TableName() string      { return "reviews" }
