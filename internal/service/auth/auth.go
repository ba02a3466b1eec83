package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"videotube/internal/apperrors"
	"videotube/internal/logger"
	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/service/auth/tokenmanager"
)

const (
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// Cookie names for the token pair and whether to mark them Secure.
	// Cookies are always HttpOnly and SameSite=Strict.
	AccessCookieName  string
	RefreshCookieName string
	CookieSecure      bool

	Logger logger.Logger
}

// Auth service
// Owns the credential and session lifecycle: registration, login,
// refresh token rotation, logout and password change
type AuthService struct {
	// Manager to issue and validate token pairs (access and refresh)
	token *tokenmanager.TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repository holding accounts and the single refresh token slot
	userRepo repository.UserRepo

	accessCookieName  string
	refreshCookieName string
	accessHeaderName  string
	accessAuthScheme  string
	cookieSecure      bool

	logger logger.Logger

	// compared against on login for unknown users so the response time
	// doesn't reveal whether the account exists
	dummyHash string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	if token == nil || userRepo == nil {
		return nil, errors.New("token manager and user repo must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	setDefaultString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefaultString(&cfg.AccessCookieName, defaultAccessCookieName)
	setDefaultString(&cfg.RefreshCookieName, defaultRefreshCookieName)

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("error while preparing hasher. Err: %w", err)
	}

	return &AuthService{
		token:             token,
		hasher:            hasher,
		userRepo:          userRepo,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
		accessHeaderName:  defaultAccessHeaderName,
		accessAuthScheme:  defaultAccessAuthScheme,
		cookieSecure:      cfg.CookieSecure,
		logger:            log,
		dummyHash:         dummyHash,
	}, nil
}

type RegisterParams struct {
	Username  string
	Email     string
	FullName  string
	Password  string
	AvatarURL string
	CoverURL  string
}

// Register creates the account with no active session: the user logs in
// separately. Has to return apperrors.ErrUserAlreadyExists on duplicate
// username or email.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.User, error) {
	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	// identifiers are stored lowercase so the login lookup is case-blind
	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Username:       strings.ToLower(params.Username),
		Email:          strings.ToLower(params.Email),
		FullName:       params.FullName,
		HashedPassword: hash,
		AvatarURL:      params.AvatarURL,
		CoverURL:       params.CoverURL,
	})
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Login by username or email. On success issues a fresh token pair and
// stores the refresh token, replacing any previous session.
// Has to return apperrors.ErrAuthenticationFailed for bad credentials.
func (s *AuthService) Login(ctx context.Context, identifier string, password string) (models.User, models.TokenPair, error) {
	user, err := s.userRepo.GetUserByIdentifier(ctx, strings.ToLower(identifier))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// burn the same time a real comparison would
			_ = s.hasher.Compare(s.dummyHash, password)
			return models.User{}, models.TokenPair{}, apperrors.ErrAuthenticationFailed
		}
		return models.User{}, models.TokenPair{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, models.TokenPair{}, apperrors.ErrAuthenticationFailed
	}

	pair, err := s.token.GeneratePair(user)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	if err := s.userRepo.SetRefreshToken(ctx, user.ID, pair.Refresh.Value); err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	user.RefreshToken = &pair.Refresh.Value
	return user, pair, nil
}

// RefreshPair exchanges a valid refresh token for a new pair, rotating
// the stored token. A presented token is accepted only if its signature
// and expiry check out AND it equals the token currently stored for the
// user; the swap is a compare-and-set, so of two concurrent refreshes
// with the same token exactly one succeeds.
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	userID, err := s.token.ParseRefresh(refresh)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenExpired, err)
		}
		return models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenNotFound, err)
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.TokenPair{}, apperrors.ErrRefreshTokenNotFound
		}
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	err = s.userRepo.RotateRefreshToken(ctx, user.ID, refresh, pair.Refresh.Value)
	if err != nil {
		if errors.Is(err, apperrors.ErrRefreshTokenReused) {
			// a well signed but rotated-away token is a theft signal
			s.logger.Warn("refresh token reuse detected", "user_id", user.ID.String())
		}
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Logout invalidates the current session unconditionally. Idempotent.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.userRepo.ClearRefreshToken(ctx, userID)
}

// ChangePassword re-verifies the old password before replacing the hash.
// The active session survives the change.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, oldPassword); err != nil {
		return apperrors.ErrAuthenticationFailed
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, hash)
}

// Authenticate resolves the caller's identity from the request.
// Stateless: signature and expiry only, no store lookup, so protected
// routes stay cheap. Handlers that need the full account fetch it.
func (s *AuthService) Authenticate(r *http.Request) (uuid.UUID, error) {
	access, err := s.getAccessString(r)
	if err != nil {
		return uuid.Nil, err
	}

	return s.token.ParseAccess(access)
}

// Set auth tokens (access, refresh) as cookies on the response
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, s.tokenCookie(s.accessCookieName, pair.Access))
	http.SetCookie(w, s.tokenCookie(s.refreshCookieName, pair.Refresh))
}

// Expire both token cookies
func (s *AuthService) ClearTokensFromResponse(w http.ResponseWriter) {
	expired := models.IssuedToken{Value: "", ExpiresAt: time.Unix(0, 0)}
	http.SetCookie(w, s.tokenCookie(s.accessCookieName, expired))
	http.SetCookie(w, s.tokenCookie(s.refreshCookieName, expired))
}

func (s *AuthService) tokenCookie(name string, token models.IssuedToken) *http.Cookie {
	maxAge := int(time.Until(token.ExpiresAt).Seconds())
	if token.Value == "" {
		maxAge = -1
	}

	return &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Get refresh token string from request cookie
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.ErrRefreshTokenNotFound
	}
	return cookie.Value, nil
}

// Access token travels either in the cookie or, for non-cookie clients,
// in the Authorization header with the Bearer scheme
func (s *AuthService) getAccessString(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(s.accessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	header := r.Header.Get(s.accessHeaderName)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, s.accessAuthScheme) || token == "" {
		return "", errors.New("no access token in request")
	}

	return strings.TrimSpace(token), nil
}
