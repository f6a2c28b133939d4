package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/repository"
	"github.com/aryan0dhankhar/outreach/internal/security/auth"
)

func newAuthService(t *testing.T, password, passcode string) (*AuthService, *auth.TokenManager) {
	t.Helper()
	members := repository.NewMemoryMemberRepository()
	ctx := context.Background()
	_ = members.Upsert(ctx, &domain.Member{Name: "Karim", IsActive: true})
	_ = members.Upsert(ctx, &domain.Member{Name: "Former", IsActive: false})

	tm := auth.NewTokenManager("test-secret", "outreach")
	s, err := NewAuthService(members, tm, password, passcode, 7*24*time.Hour, quietLogger())
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return s, tm
}

func TestLoginMember(t *testing.T) {
	s, tm := newAuthService(t, "team-pass", "admin-code")

	res, err := s.Login(context.Background(), LoginRequest{Password: "team-pass", Actor: "Karim"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Actor != "Karim" || res.Token == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if time.Until(res.ExpiresAt) < 6*24*time.Hour {
		t.Fatalf("expected a week-long session, expires %v", res.ExpiresAt)
	}

	claims, err := tm.ValidateToken(res.Token)
	if err != nil || claims.Actor != "Karim" {
		t.Fatalf("token does not validate: %v %+v", err, claims)
	}
}

func TestLoginRejections(t *testing.T) {
	s, _ := newAuthService(t, "team-pass", "admin-code")

	tests := []struct {
		name string
		req  LoginRequest
		want error
	}{
		{"wrong password", LoginRequest{Password: "nope", Actor: "Karim"}, domain.ErrUnauthorized},
		{"unknown member", LoginRequest{Password: "team-pass", Actor: "Nobody"}, domain.ErrUnauthorized},
		{"inactive member", LoginRequest{Password: "team-pass", Actor: "Former"}, domain.ErrUnauthorized},
		{"admin without passcode", LoginRequest{Password: "team-pass", Actor: "Admin"}, domain.ErrUnauthorized},
		{"admin wrong passcode", LoginRequest{Password: "team-pass", Actor: "Admin", AdminPasscode: "guess"}, domain.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Login(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	var verr *domain.ValidationError
	if _, err := s.Login(context.Background(), LoginRequest{Password: "team-pass"}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for missing actor, got %v", err)
	}
}

func TestLoginAdminWithHashedSecrets(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-code"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	s, _ := newAuthService(t, "team-pass", string(hash))

	res, err := s.Login(context.Background(), LoginRequest{Password: "team-pass", Actor: "Admin", AdminPasscode: "admin-code"})
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if res.Actor != domain.AdminActor {
		t.Fatalf("unexpected actor %q", res.Actor)
	}
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	s, _ := newAuthService(t, "", "")
	if _, err := s.Login(context.Background(), LoginRequest{Password: "anything", Actor: "Karim"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected logins to be rejected, got %v", err)
	}
}
