package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/promptforge/promptforge/pkg/ragstore"
)

var (
	// ErrInvalidInput is returned for blank or obviously unusable
	// registration and login input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredential is returned for wrong email or password.
	// Deliberately identical for both cases so login errors do not reveal
	// which accounts exist.
	ErrInvalidCredential = errors.New("invalid email or password")
)

const minPasswordLength = 8

// Result is a successful registration or login: a signed access token plus
// the account it belongs to.
type Result struct {
	Token    string
	TenantID int64
	Email    string
}

// Service registers accounts and exchanges credentials for access tokens.
type Service struct {
	users  ragstore.UserStore
	issuer *TokenIssuer
}

// NewService wires a Service to its user store and token issuer.
func NewService(users ragstore.UserStore, issuer *TokenIssuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// Register creates a new account and returns a token for it. A taken email
// surfaces as [ragstore.ErrEmailTaken].
func (s *Service) Register(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || !strings.Contains(email, "@") || len(password) < minPasswordLength {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.users.CreateUser(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(id, email)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, TenantID: id, Email: email}, nil
}

// Login verifies credentials and returns a fresh token. Unknown email and
// wrong password both come back as [ErrInvalidCredential].
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetUser(ctx, email)
	if errors.Is(err, ragstore.ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.CredentialHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, TenantID: user.ID, Email: user.Email}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
