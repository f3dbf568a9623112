package services

import (
	"context"
	"log"
	"net/mail"
	"strings"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/models"
	"wifisub_app/internal/repository"
)

// NewAccount is the profile of a user being registered
type NewAccount struct {
	ID    string
	Name  string
	Email string
	Phone string
	Role  models.UserRole
}

// AccountService registers users and decides whether a verified caller may
// use the service
type AccountService struct {
	users repository.UserRepository
}

func NewAccountService(users repository.UserRepository) *AccountService {
	return &AccountService{users: users}
}

// Register stores a new active account. An empty ID gets a generated one.
func (s *AccountService) Register(ctx context.Context, in NewAccount) (*models.User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, apperr.NewValidation("email", "must be a valid email address")
	}
	role := in.Role
	if role == "" {
		role = models.UserRoleUser
	}
	if role != models.UserRoleAdmin && role != models.UserRoleUser {
		return nil, apperr.NewValidation("role", "must be admin or user")
	}
	email := strings.ToLower(addr.Address)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.NewInvalidState("email is already registered")
	} else if !apperr.Is(err, apperr.NotFound) {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = addr.Name
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	user := &models.User{
		ID:     strings.TrimSpace(in.ID),
		Name:   name,
		Email:  email,
		Phone:  strings.TrimSpace(in.Phone),
		Role:   role,
		Status: models.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Resolve loads the stored account behind a verified token. A subject seen for
// the first time is registered from the token's profile claims. Suspended
// accounts are refused, and the stored role replaces the token's role claim.
func (s *AccountService) Resolve(ctx context.Context, claimed Actor) (Actor, error) {
	user, err := s.users.FindByID(ctx, claimed.ID)
	if apperr.Is(err, apperr.NotFound) {
		user, err = s.registerCaller(ctx, claimed)
	}
	if err != nil {
		return Actor{}, err
	}

	if user.Status == models.UserStatusSuspended {
		return Actor{}, apperr.NewForbidden("account is suspended")
	}
	return Actor{ID: user.ID, Role: normalizeRole(user.Role), Name: user.Name, Email: user.Email}, nil
}

func (s *AccountService) registerCaller(ctx context.Context, claimed Actor) (*models.User, error) {
	if strings.TrimSpace(claimed.Email) == "" {
		return nil, apperr.NewUnauthorized("account is not registered")
	}
	user, err := s.Register(ctx, NewAccount{
		ID:    claimed.ID,
		Name:  claimed.Name,
		Email: claimed.Email,
		Role:  normalizeRole(claimed.Role),
	})
	if err == nil {
		log.Printf("[account] registered %s user %s", user.Role, user.ID)
		return user, nil
	}

	// a concurrent first request may have inserted the row already
	if existing, findErr := s.users.FindByID(ctx, claimed.ID); findErr == nil {
		return existing, nil
	}
	return nil, err
}

// Verifier wraps tokens so every verified caller is checked against the
// users table
func (s *AccountService) Verifier(tokens TokenVerifier) TokenVerifier {
	return &accountVerifier{tokens: tokens, accounts: s}
}

type accountVerifier struct {
	tokens   TokenVerifier
	accounts *AccountService
}

func (v *accountVerifier) Verify(ctx context.Context, token string) (Actor, error) {
	claimed, err := v.tokens.Verify(ctx, token)
	if err != nil {
		return Actor{}, err
	}
	return v.accounts.Resolve(ctx, claimed)
}
