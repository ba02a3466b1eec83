package user

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/service/media"
)

// ObjectStore is the part of the media store the profile flows need
type ObjectStore interface {
	Upload(ctx context.Context, kind string, body io.Reader, contentType string) (media.Object, error)
	Delete(ctx context.Context, key string) error
}

// Profile operations for authenticated users.
// Credential and session changes live in the auth service, not here.
type UserService struct {
	userRepo repository.UserRepo
	media    ObjectStore
}

func NewService(userRepo repository.UserRepo, media ObjectStore) *UserService {
	return &UserService{
		userRepo: userRepo,
		media:    media,
	}
}

func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch repository.ProfilePatch) (models.User, error) {
	if patch.Email != nil {
		// stored lowercase, same as at registration, or the case-blind
		// login lookup would miss it
		lowered := strings.ToLower(*patch.Email)
		patch.Email = &lowered
	}
	return s.userRepo.UpdateProfile(ctx, userID, patch)
}

// UpdateAvatar uploads the new image first and only then swaps the URL.
// If the swap fails the fresh object is deleted, so storage and the user
// row never disagree for long. The old object is kept: historical URLs
// may still be cached by clients.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, body io.Reader, contentType string) (models.User, error) {
	return s.updateImage(ctx, userID, "avatars", body, contentType, s.userRepo.UpdateAvatar)
}

// UpdateCover works exactly like UpdateAvatar for the cover image
func (s *UserService) UpdateCover(ctx context.Context, userID uuid.UUID, body io.Reader, contentType string) (models.User, error) {
	return s.updateImage(ctx, userID, "covers", body, contentType, s.userRepo.UpdateCover)
}

func (s *UserService) updateImage(
	ctx context.Context,
	userID uuid.UUID,
	kind string,
	body io.Reader,
	contentType string,
	update func(ctx context.Context, userID uuid.UUID, url string) (models.User, error),
) (models.User, error) {
	obj, err := s.media.Upload(ctx, kind, body, contentType)
	if err != nil {
		return models.User{}, fmt.Errorf("can't upload %v image. Err: %w", kind, err)
	}

	user, err := update(ctx, userID, obj.URL)
	if err != nil {
		// compensate: the row still points at the old image
		_ = s.media.Delete(ctx, obj.Key)
		return models.User{}, err
	}

	return user, nil
}
