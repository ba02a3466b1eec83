package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	Email          string
	FullName       string
	HashedPassword string

	// Avatar and cover image URLs, owned by the media layer.
	// Empty string means not set.
	AvatarURL string
	CoverURL  string

	// The single currently valid refresh token for this user.
	// nil means no active session. Set on login, replaced on every
	// successful rotation, cleared on logout.
	RefreshToken *string
}
