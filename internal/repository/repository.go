package repository

import (
	"context"

	"github.com/google/uuid"

	"videotube/internal/models"
)

type CreateUserParams struct {
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	AvatarURL      string
	CoverURL       string
}

type ProfilePatch struct {
	// nil fields are left unchanged
	Email    *string
	FullName *string
}

// User repository interface
// Owns the users table including the single-slot refresh token column,
// so every session state change is one atomic statement here
type UserRepo interface {
	// Create user
	// If username or email is taken already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id, or by username-or-email in one lookup
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (models.User, error)

	// Unconditionally store the refresh token issued at login
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error

	// Compare-and-set rotation of the stored refresh token.
	// Succeeds only if 'old' still equals the stored value; of two
	// concurrent rotations exactly one wins.
	// Must return apperrors.ErrRefreshTokenNotFound if no token is stored
	// and apperrors.ErrRefreshTokenReused if a different token is stored.
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldToken string, newToken string) error

	// Drop the stored refresh token. Idempotent.
	ClearRefreshToken(ctx context.Context, userID uuid.UUID) error

	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (models.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (models.User, error)
	UpdateCover(ctx context.Context, userID uuid.UUID, url string) (models.User, error)
}
