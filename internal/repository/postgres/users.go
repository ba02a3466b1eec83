package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"videotube/internal/apperrors"
	"videotube/internal/models"
	"videotube/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `id, created_at, username, email, full_name, password_hash, avatar_url, cover_url, refresh_token`

const createUser = `-- name: CreateUser
INSERT INTO users (username, email, full_name, password_hash, avatar_url, cover_url)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		arg.Username, arg.Email, arg.FullName, arg.HashedPassword, arg.AvatarURL, arg.CoverURL,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, apperrors.ErrUserAlreadyExists
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return user, apperrors.ErrUserNotFound
	}

	return user, err
}

const getUserByIdentifier = `-- name: GetUserByIdentifier
SELECT ` + userColumns + `
FROM users
WHERE username = $1 OR email = $1
`

// Login accepts either username or email in a single field
func (r *UserRepo) GetUserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByIdentifier, identifier)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return user, apperrors.ErrUserNotFound
	}

	return user, err
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE users
SET refresh_token = $2
WHERE id = $1
`

// Initial assignment at login. Overwrites whatever was stored before:
// a new login invalidates the previous session unconditionally.
func (r *UserRepo) SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	tag, err := r.DB.Exec(ctx, setRefreshToken, userID, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

const rotateRefreshToken = `-- name: RotateRefreshToken
UPDATE users
SET refresh_token = $3
WHERE id = $1 AND refresh_token = $2
`

const getRefreshToken = `-- name: getRefreshToken
SELECT refresh_token FROM users WHERE id = $1
`

// Single-statement compare-and-set: the WHERE clause is what closes the
// race between two requests rotating the same token. The follow-up read
// only picks the error to report and never changes state.
func (r *UserRepo) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldToken string, newToken string) error {
	tag, err := r.DB.Exec(ctx, rotateRefreshToken, userID, oldToken, newToken)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var stored *string
	err = r.DB.QueryRow(ctx, getRefreshToken, userID).Scan(&stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrUserNotFound
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case stored == nil:
		return apperrors.ErrRefreshTokenNotFound
	default:
		return apperrors.ErrRefreshTokenReused
	}
}

const clearRefreshToken = `-- name: ClearRefreshToken
UPDATE users
SET refresh_token = NULL
WHERE id = $1
`

// Logout. Idempotent: clearing an already empty slot is not an error.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, clearRefreshToken, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET password_hash = $2
WHERE id = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, updatePassword, userID, hashedPassword)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

const updateProfile = `-- name: UpdateProfile
UPDATE users
SET email = COALESCE($2, email),
    full_name = COALESCE($3, full_name)
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, patch repository.ProfilePatch) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateProfile, userID, patch.Email, patch.FullName)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return user, apperrors.ErrUserNotFound
		case errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return user, apperrors.ErrUserAlreadyExists
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const updateAvatar = `-- name: UpdateAvatar
UPDATE users
SET avatar_url = $2
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateAvatar, userID, url)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return user, apperrors.ErrUserNotFound
	}

	return user, err
}

const updateCover = `-- name: UpdateCover
UPDATE users
SET cover_url = $2
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateCover(ctx context.Context, userID uuid.UUID, url string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateCover, userID, url)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return user, apperrors.ErrUserNotFound
	}

	return user, err
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.FullName,
		&u.HashedPassword, &u.AvatarURL, &u.CoverURL, &u.RefreshToken,
	)
	return u, err
}
