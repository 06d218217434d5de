package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// Organization roles. Org admins and owners may manage every event created
// within their organization; members only their own.
const (
	RoleOrgOwner = "org_owner"
	RoleOrgAdmin = "org_admin"
	RoleMember   = "member"
)

// User represents an organizer account.
// swagger:model User
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	LastName       string    `json:"last_name"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Role           string    `json:"role"`
	PasswordHash   string    `json:"-"`
	Salt           string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FullName returns the user's display name, falling back to the email address.
func (u *User) FullName() string {
	name := u.Name
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		name = u.Email
	}
	return name
}

// CanManageEvent reports whether u may manage ev: the event creator, or an
// admin/owner of the organization the event belongs to.
func CanManageEvent(u *User, ev *Event) bool {
	if u == nil || ev == nil {
		return false
	}
	if u.ID == ev.OwnerID {
		return true
	}
	if ev.OrganizationID != "" && u.OrganizationID == ev.OrganizationID {
		return u.Role == RoleOrgAdmin || u.Role == RoleOrgOwner
	}
	return false
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier validates a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// UserService defines account operations for organizers.
type UserService interface {
	SignUp(ctx context.Context, email, password, name, lastName string) (*User, error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	GetUser(ctx context.Context, id string) (*User, error)
}
