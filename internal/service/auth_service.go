package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/security/auth"
)

// AuthService handles shared-password logins
type AuthService struct {
	members      domain.MemberRepository
	tokens       *auth.TokenManager
	passwordHash []byte
	passcodeHash []byte
	sessionTTL   time.Duration
	logger       *slog.Logger
}

// LoginRequest is the login form
type LoginRequest struct {
	Password      string `json:"password"`
	Actor         string `json:"actor"`
	AdminPasscode string `json:"adminPasscode,omitempty"`
}

// LoginResult carries the issued session
type LoginResult struct {
	Token     string    `json:"token"`
	Actor     string    `json:"actor"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewAuthService creates an authentication service. The app password and
// admin passcode may be given in plain text or as bcrypt hashes. An empty
// app password rejects every login.
func NewAuthService(
	members domain.MemberRepository,
	tokens *auth.TokenManager,
	appPassword, adminPasscode string,
	sessionTTL time.Duration,
	logger *slog.Logger,
) (*AuthService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	passwordHash, err := hashSecret(appPassword)
	if err != nil {
		return nil, fmt.Errorf("hash app password: %w", err)
	}
	passcodeHash, err := hashSecret(adminPasscode)
	if err != nil {
		return nil, fmt.Errorf("hash admin passcode: %w", err)
	}
	if passwordHash == nil {
		logger.Warn("APP_PASSWORD is not set; all logins will be rejected")
	}

	return &AuthService{
		members:      members,
		tokens:       tokens,
		passwordHash: passwordHash,
		passcodeHash: passcodeHash,
		sessionTTL:   sessionTTL,
		logger:       logger,
	}, nil
}

func hashSecret(secret string) ([]byte, error) {
	if secret == "" {
		return nil, nil
	}
	if strings.HasPrefix(secret, "$2") {
		if _, err := bcrypt.Cost([]byte(secret)); err == nil {
			return []byte(secret), nil
		}
	}
	return bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
}

func matches(hash []byte, secret string) bool {
	if hash == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
}

// Login checks the shared password and issues a session for the actor.
// The Admin actor also needs the admin passcode; anyone else must be an
// active member.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		return nil, domain.NewValidationError("actor", "actor is required")
	}
	if req.Password == "" {
		return nil, domain.NewValidationError("password", "password is required")
	}

	if !matches(s.passwordHash, req.Password) {
		s.logger.Info("login failed with wrong password", slog.String("actor", actor))
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	if actor == domain.AdminActor {
		if !matches(s.passcodeHash, req.AdminPasscode) {
			s.logger.Info("admin login failed with wrong passcode")
			return nil, fmt.Errorf("%w: invalid admin passcode", domain.ErrUnauthorized)
		}
	} else {
		member, err := s.members.GetByName(ctx, actor)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.logger.Info("login attempt for unknown member", slog.String("actor", actor))
			return nil, fmt.Errorf("%w: unknown member", domain.ErrUnauthorized)
		case err != nil:
			return nil, fmt.Errorf("lookup member %q: %w", actor, err)
		case !member.IsActive:
			s.logger.Info("login attempt for inactive member", slog.String("actor", actor))
			return nil, fmt.Errorf("%w: member is inactive", domain.ErrUnauthorized)
		}
	}

	token, expiresAt, err := s.tokens.GenerateToken(actor, s.sessionTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}

	s.logger.Info("user logged in", slog.String("actor", actor))
	return &LoginResult{Token: token, Actor: actor, ExpiresAt: expiresAt}, nil
}
