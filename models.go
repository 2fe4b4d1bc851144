package blog

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole string

const (
	// RoleUser is the default role (i.e. manage own posts and profile)
	RoleUser UserRole = "user"
	// RoleAdmin is an admin role (i.e. manage any user record)
	RoleAdmin UserRole = "admin"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	Role          UserRole  `bun:"user_role,notnull,default:'user'" json:"role"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Post is the post model. Author is immutable after creation and always
// references an existing user.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Title         string    `bun:"title,notnull" json:"title"`
	Content       string    `bun:"content,notnull" json:"content"`
	AuthorID      uuid.UUID `bun:"author_id,notnull,type:uuid" json:"author_id"`
	Author        *User     `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// UserPatch carries the mutable fields of a user record for admin updates.
// Nil fields are left untouched.
type UserPatch struct {
	Name  *string
	Email *string
	Role  *UserRole
}

// PostPatch carries the mutable fields of a post. The author cannot be
// changed through a patch.
type PostPatch struct {
	Title   *string
	Content *string
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleUser:  0,
		RoleAdmin: 1,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
