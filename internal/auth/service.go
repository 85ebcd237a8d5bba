package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service couples the account repository with password hashing and session
// token issuance. Handlers call it; it never logs or stores plaintext
// passwords.
type Service struct {
	accounts AccountRepository
	secret   string
	tokenTTL time.Duration
}

// NewService creates an auth service. The signing secret and token lifetime
// come from the security section of the configuration.
func NewService(accounts AccountRepository, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		accounts: accounts,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// Register creates a new account and returns its generated id.
// Fails with ErrUsernameExists when the username is already taken.
func (s *Service) Register(ctx context.Context, username, password string) (int64, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return 0, err
	}

	account := &Account{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return 0, err
	}

	return account.ID, nil
}

// Login verifies the credentials and issues a session token.
//
// An unknown username and a wrong password both fail with
// ErrInvalidCredentials so callers cannot probe which usernames exist.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("looking up account: %w", err)
	}

	ok, err := VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	return IssueToken(account.ID, s.secret, s.tokenTTL)
}

// Verify validates a session token and returns the embedded account id.
func (s *Service) Verify(token string) (int64, error) {
	return VerifyToken(token, s.secret)
}

// Account resolves a verified session's account id to the full account,
// for audit logging and display. Fails with ErrAccountNotFound when the
// account has been removed since the token was issued.
func (s *Service) Account(ctx context.Context, id int64) (*Account, error) {
	return s.accounts.GetByID(ctx, id)
}
