package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service provides high level identity operations and token issuance.
type Service struct {
	store  Store
	tokens *TokenService
	now    func() time.Time
}

// NewService constructs Service over the store and token signer.
func NewService(store Store, tokens *TokenService) *Service {
	return &Service{store: store, tokens: tokens, now: time.Now}
}

// Registration carries the fields accepted when creating an account.
type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account with a hashed password. New accounts start
// with no scopes; privileges are granted afterwards.
func (s *Service) Register(ctx context.Context, reg Registration) (*User, error) {
	email := strings.TrimSpace(strings.ToLower(reg.Email))
	if email == "" || reg.Password == "" {
		return nil, ErrInvalidInput
	}
	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &User{
		ID:           uuid.New(),
		AuthID:       uuid.NewString(),
		PasswordHash: hash,
		Email:        email,
		Username:     strings.TrimSpace(reg.Username),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, *User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", time.Time{}, nil, ErrUnauthorized
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, nil, ErrUnauthorized
	}
	if !user.IsActive {
		return "", time.Time{}, nil, ErrUnauthorized
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return "", time.Time{}, nil, ErrUnauthorized
	}
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	return token, exp, user, nil
}

// Authenticate validates an access token and loads the principal with the
// effective privilege set.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Principal{}, err
	}
	userID, err := claims.SubjectID()
	if err != nil {
		return Principal{}, err
	}
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	if !user.IsActive {
		return Principal{}, ErrInvalidToken
	}
	return Principal{User: user, Privileges: CurrentUserPrivileges(user)}, nil
}

// Controller builds a request-scoped permission controller for a principal.
func (s *Service) Controller(principal Principal) *Controller {
	return NewController(s.store, principal.User, principal.Privileges)
}
