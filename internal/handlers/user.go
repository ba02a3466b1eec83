package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"videotube/internal/apperrors"
	"videotube/internal/handlers/render"
	"videotube/internal/handlers/userctx"
	"videotube/internal/models"
	"videotube/internal/repository"
)

type userService interface {
	GetByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch repository.ProfilePatch) (models.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, body io.Reader, contentType string) (models.User, error)
	UpdateCover(ctx context.Context, userID uuid.UUID, body io.Reader, contentType string) (models.User, error)
}

type UserHandler struct {
	userService userService
}

func NewUser(user userService) *UserHandler {
	return &UserHandler{userService: user}
}

// userResponse is the public account representation.
// Password hash and refresh token never leave the service.
type userResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Avatar    string    `json:"avatar,omitempty"`
	Cover     string    `json:"coverImage,omitempty"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		CreatedAt: u.CreatedAt,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Avatar:    u.AvatarURL,
		Cover:     u.CoverURL,
	}
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, toUserResponse(user))
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	type UpdateProfileRequest struct {
		Email    *string `json:"email" validate:"omitempty,email"`
		FullName *string `json:"fullName" validate:"omitempty,max=100"`
	}

	userID, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := render.BindAndValidate[UpdateProfileRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, repository.ProfilePatch{
		Email:    data.Email,
		FullName: data.FullName,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "Email already taken", http.StatusConflict)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, toUserResponse(user))
}

func (h *UserHandler) updateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.userService.UpdateAvatar)
}

func (h *UserHandler) updateCover(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.userService.UpdateCover)
}

func (h *UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID uuid.UUID, body io.Reader, contentType string) (models.User, error),
) {
	userID, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		render.ServiceError(w, "Malformed multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		render.ServiceError(w, "Image file is missing", http.StatusBadRequest)
		return
	}
	defer file.Close() // nolint:errcheck

	user, err := update(r.Context(), userID, file, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrMediaUploadFailed):
			render.ServiceError(w, "Could not store uploaded image", http.StatusInternalServerError)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, toUserResponse(user))
}
