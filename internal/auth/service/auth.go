package service

import (
	"context"
	"errors"
	"fmt"

	autherrors "agenda/internal/auth/errors"
	"agenda/internal/auth/repository"
	apperrors "agenda/pkg/errors"
	"agenda/pkg/logger"
	"agenda/pkg/model"

	"github.com/golang-jwt/jwt/v4"
)

type sessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// AuthService resolves session cookies to admin principals. The role is read
// from the user store on every call so a demoted admin loses access at once.
type AuthService struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	secret   []byte
	log      *logger.Logger
}

func NewAuthService(sessions repository.SessionRepository, users repository.UserRepository, secret string, log *logger.Logger) *AuthService {
	return &AuthService{
		sessions: sessions,
		users:    users,
		secret:   []byte(secret),
		log:      log,
	}
}

func (s *AuthService) Authorize(ctx context.Context, token string) (*model.Principal, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	sessionID, err := s.parseToken(token)
	if err != nil {
		s.log.Debug("Rejected session token", "error", err)
		return nil, apperrors.Unauthorized("Invalid session")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, autherrors.ErrSessionNotFound) {
			return nil, apperrors.Unauthorized("Session expired or revoked")
		}
		s.log.Error("Failed to load session", "error", err)
		return nil, apperrors.Unavailable("Session store")
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			return nil, apperrors.Unauthorized("Session user no longer exists")
		}
		s.log.Error("Failed to load user role", "user_id", session.UserID, "error", err)
		return nil, apperrors.Unavailable("User store")
	}

	principal := &model.Principal{UserID: user.ID, Email: session.Email, Role: user.Role}
	if principal.Email == "" {
		principal.Email = user.Email
	}
	if !principal.IsAdmin() {
		return nil, apperrors.Forbidden("Admin role required")
	}
	return principal, nil
}

func (s *AuthService) parseToken(token string) (string, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.SessionID == "" {
		return "", errors.New("token has no session_id claim")
	}
	return claims.SessionID, nil
}
