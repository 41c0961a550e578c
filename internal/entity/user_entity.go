package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string
type UserStatus string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

type User struct {
	Id           uuid.UUID
	Email        string
	PasswordHash *string
	FullName     string
	Role         UserRole
	Status       UserStatus
	AvatarURL    *string

	// ActiveSessionId points at the session the client currently has open.
	// Must reference an existing session; re-pointed on delete.
	ActiveSessionId *uuid.UUID

	// MessageUsage is the free-tier counter, recomputed from the active
	// session's turn count after every persisted turn.
	MessageUsage int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserProvider is the identity supplied by an external provider on
// sign-in. The core treats it as opaque user identity.
type UserProvider struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	ProviderName   string
	ProviderUserId string
	AvatarURL      string
	CreatedAt      time.Time
}

type UserRefreshToken struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	IpAddress string
	UserAgent string
	CreatedAt time.Time
}
