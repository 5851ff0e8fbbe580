package usecases

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/pkg/crypto"
	"device-license.backend/pkg/jwt"
	"device-license.backend/pkg/logger"
	"device-license.backend/pkg/redis"
)

// SessionStore is the subset of the redis session store the admin flow needs
type SessionStore interface {
	Open(ctx context.Context, sessionID string, session redis.AdminSession, ttl time.Duration) (*redis.AdminSession, error)
	Resolve(ctx context.Context, sessionID string) (*redis.AdminSession, error)
	Close(ctx context.Context, sessionID string) error
}

var newSessionID = crypto.GenerateSessionID

// AdminAuthUsecase authenticates the single configured administrator
type AdminAuthUsecase struct {
	admin        *entities.Admin
	passwordHash string
	jwtService   *jwt.JWTService
	sessions     SessionStore
}

// NewAdminAuthUsecase derives a stable admin id from the email so tokens
// survive restarts. sessions may be nil, in which case only bearer tokens work.
func NewAdminAuthUsecase(email, passwordHash string, jwtService *jwt.JWTService, sessions SessionStore) *AdminAuthUsecase {
	email = strings.ToLower(strings.TrimSpace(email))
	return &AdminAuthUsecase{
		admin: &entities.Admin{
			ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("admin:"+email)),
			Email: email,
			Role:  entities.AdminRole,
		},
		passwordHash: passwordHash,
		jwtService:   jwtService,
		sessions:     sessions,
	}
}

func (u *AdminAuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if u.passwordHash == "" || email != u.admin.Email || !crypto.CheckPassword(input.Password, u.passwordHash) {
		logger.Warn(ctx, "Admin login failed", zap.String("email", email))
		return nil, domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeInvalidCredentials, "invalid email or password", domainerrors.ErrInvalidCredentials)
	}

	pair, err := u.jwtService.GenerateTokenPair(u.admin.ID, u.admin.Email, u.admin.Role)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	resp := &entities.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Admin:        u.admin,
	}
	if u.sessions != nil {
		sid, err := newSessionID()
		if err != nil {
			return nil, domainerrors.InternalError(err)
		}
		session := redis.AdminSession{
			AdminID: u.admin.ID,
			Email:   u.admin.Email,
			Role:    u.admin.Role,
		}
		if _, err := u.sessions.Open(ctx, sid, session, u.jwtService.RefreshExpiry()); err != nil {
			return nil, domainerrors.InternalError(err)
		}
		resp.SessionID = sid
	}

	logger.Info(ctx, "Admin logged in", zap.String("admin_id", u.admin.ID.String()))
	return resp, nil
}

// Refresh exchanges a refresh token for a new pair
func (u *AdminAuthUsecase) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := u.jwtService.ValidateToken(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		return nil, tokenError(err)
	}
	if claims.AdminID != u.admin.ID {
		return nil, domainerrors.Unauthorized("unknown administrator")
	}
	pair, err := u.jwtService.GenerateTokenPair(u.admin.ID, u.admin.Email, u.admin.Role)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	return pair, nil
}

// Logout drops the session; an unknown session is not an error
func (u *AdminAuthUsecase) Logout(ctx context.Context, sessionID string) error {
	if u.sessions == nil || sessionID == "" {
		return nil
	}
	if err := u.sessions.Close(ctx, sessionID); err != nil {
		return domainerrors.InternalError(err)
	}
	return nil
}

// Authenticate resolves a bearer access token to the administrator
func (u *AdminAuthUsecase) Authenticate(ctx context.Context, accessToken string) (*entities.Admin, error) {
	claims, err := u.jwtService.ValidateToken(accessToken, jwt.TokenTypeAccess)
	if err != nil {
		return nil, tokenError(err)
	}
	if claims.AdminID != u.admin.ID || claims.Role != entities.AdminRole {
		return nil, domainerrors.Forbidden("administrator access required")
	}
	return u.admin, nil
}

// AuthenticateSession resolves a session id. The session lives as long as the
// refresh token, so it is trusted on its own once found.
func (u *AdminAuthUsecase) AuthenticateSession(ctx context.Context, sessionID string) (*entities.Admin, error) {
	if u.sessions == nil {
		return nil, domainerrors.Unauthorized("sessions are not enabled")
	}
	session, err := u.sessions.Resolve(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, redis.ErrSessionNotFound) {
			logger.Warn(ctx, "Session store unavailable", zap.Error(err))
		}
		return nil, domainerrors.Unauthorized("invalid or expired session")
	}
	if session.AdminID != u.admin.ID || session.Role != entities.AdminRole {
		return nil, domainerrors.Forbidden("administrator access required")
	}
	return u.admin, nil
}

func tokenError(err error) error {
	if errors.Is(err, jwt.ErrExpiredToken) {
		return domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeUnauthorized, "token expired", domainerrors.ErrTokenExpired)
	}
	return domainerrors.Unauthorized("invalid token")
}
