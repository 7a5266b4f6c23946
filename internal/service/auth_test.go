package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"companion/internal/auth"
	"companion/internal/domain"
)

func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	return NewAuthService(repo, tokens, slog.New(slog.DiscardHandler))
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "Grace@Example.com",
		Password: "correct-horse",
		FullName: "Grace",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "grace@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.HashedPassword == "correct-horse" {
		t.Error("password stored in plaintext")
	}

	token, err := svc.Login(context.Background(), "grace@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Error("empty token on successful login")
	}

	if _, err := svc.Login(context.Background(), "grace@example.com", "wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("bad password login = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "whatever"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("unknown account login = %v, want ErrUnauthorized", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "nope", Password: "long-enough-pw", FullName: "X"}},
		{"short password", RegisterRequest{Email: "a@b.co", Password: "short", FullName: "X"}},
		{"missing name", RegisterRequest{Email: "a@b.co", Password: "long-enough-pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(t, newFakeUserRepo())
			_, err := svc.Register(context.Background(), &tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Register error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	req := &RegisterRequest{Email: "dup@example.com", Password: "long-enough-pw", FullName: "Dup"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := svc.Register(context.Background(), req); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate Register error = %v, want ErrConflict", err)
	}
}
