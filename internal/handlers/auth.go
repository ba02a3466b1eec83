package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"videotube/internal/apperrors"
	"videotube/internal/handlers/render"
	"videotube/internal/handlers/userctx"
	"videotube/internal/models"
	"videotube/internal/service/auth"
	"videotube/internal/service/media"
)

type authService interface {
	// Create account. No session is started: login is a separate step.
	// Has to return apperrors.ErrUserAlreadyExists on duplicate identity.
	Register(ctx context.Context, params auth.RegisterParams) (models.User, error)

	// Login by username or email.
	// Has to return apperrors.ErrAuthenticationFailed for bad credentials.
	Login(ctx context.Context, identifier string, password string) (models.User, models.TokenPair, error)

	// Rotate refresh token, returning the new pair
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Drop the stored refresh token for the user
	Logout(ctx context.Context, userID uuid.UUID) error

	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error

	// Cookie transport for the token pair
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	ClearTokensFromResponse(w http.ResponseWriter)
	GetRefreshString(r *http.Request) (string, error)
}

type AuthHandler struct {
	authService authService
	media       mediaStore
}

func NewAuth(auth authService, media mediaStore) *AuthHandler {
	return &AuthHandler{authService: auth, media: media}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register accepts either plain JSON, or multipart/form-data with
// optional avatar and coverImage files. Media is uploaded before the
// account row is written; if the write fails the uploads are deleted
// (the object store and the database are not jointly transactional,
// so failure is compensated, not rolled back).
func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	var uploads []mediaUpload

	switch {
	case strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"):
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			render.ServiceError(w, "Malformed multipart form", http.StatusBadRequest)
			return
		}

		req = RegisterRequest{
			Username: r.FormValue("username"),
			Email:    r.FormValue("email"),
			FullName: r.FormValue("fullName"),
			Password: r.FormValue("password"),
		}
		if err := render.Validate(w, req); err != nil {
			return
		}

		var err error
		uploads, err = h.uploadFormImages(r)
		if err != nil {
			render.ServiceError(w, "Could not store uploaded images", http.StatusInternalServerError)
			return
		}

	default:
		var err error
		req, err = render.BindAndValidate[RegisterRequest](w, r)
		if err != nil {
			return
		}
	}

	params := auth.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	}
	for _, u := range uploads {
		switch u.kind {
		case "avatars":
			params.AvatarURL = u.object.URL
		case "covers":
			params.CoverURL = u.object.URL
		}
	}

	user, err := h.authService.Register(r.Context(), params)
	if err != nil {
		// compensate the uploads that now point nowhere
		for _, u := range uploads {
			_ = h.media.Delete(r.Context(), u.object.Key)
		}

		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User with given username or email already exists", http.StatusConflict)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSONWithStatus(w, toUserResponse(user), http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		User         userResponse `json:"user"`
		AccessToken  string       `json:"accessToken"`
		RefreshToken string       `json:"refreshToken"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.authService.Login(r.Context(), data.Login, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAuthenticationFailed):
			render.ServiceError(w, "Invalid login or password", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.authService.SetTokenPairToResponse(w, pair)
	render.JSON(w, LoginSuccessResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshSuccessResponse struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	refresh, err := h.authService.GetRefreshString(r)
	if err != nil {
		// non-cookie clients send the token in the body; a missing or
		// unreadable token is a 401 like every other refresh failure
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
			return
		}
		refresh = req.RefreshToken
	}

	pair, err := h.authService.RefreshPair(r.Context(), refresh)
	if err != nil {
		// expired, unknown and reused tokens are indistinguishable to the
		// caller; details stay in server logs
		render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	h.authService.SetTokenPairToResponse(w, pair)
	render.JSON(w, RefreshSuccessResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutSuccessResponse struct {
		Message string `json:"message"`
	}

	userID, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	err := h.authService.Logout(r.Context(), userID)
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.authService.ClearTokensFromResponse(w)
	render.JSON(w, LogoutSuccessResponse{Message: "User logged out successfully"})
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	type ChangePasswordRequest struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}
	type ChangePasswordSuccessResponse struct {
		Message string `json:"message"`
	}

	userID, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := render.BindAndValidate[ChangePasswordRequest](w, r)
	if err != nil {
		return
	}

	err = h.authService.ChangePassword(r.Context(), userID, data.OldPassword, data.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAuthenticationFailed):
			render.ServiceError(w, "Invalid old password", http.StatusBadRequest)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, ChangePasswordSuccessResponse{Message: "Password changed successfully"})
}

type mediaUpload struct {
	kind   string
	object media.Object
}

// uploadFormImages stores the optional avatar and coverImage files and
// returns references for compensation if account creation later fails
func (h *AuthHandler) uploadFormImages(r *http.Request) ([]mediaUpload, error) {
	var uploads []mediaUpload

	for field, kind := range map[string]string{"avatar": "avatars", "coverImage": "covers"} {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return uploads, err
		}

		obj, err := h.media.Upload(r.Context(), kind, file, header.Header.Get("Content-Type"))
		_ = file.Close()
		if err != nil {
			// drop what is already stored, nothing references it
			for _, u := range uploads {
				_ = h.media.Delete(r.Context(), u.object.Key)
			}
			return nil, err
		}

		uploads = append(uploads, mediaUpload{kind: kind, object: obj})
	}

	return uploads, nil
}
