package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"task-service/internal/jwt"
	"task-service/internal/model"
	"task-service/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var hashCost = bcrypt.DefaultCost

// TokenIssuer signs identity claims into a bearer token.
type TokenIssuer interface {
	Issue(identity jwt.Identity) (string, *jwt.Claims, error)
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

type authService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	tokens    TokenIssuer
}

func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, tokens TokenIssuer) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	user, err := createUser(ctx, s.userRepo, name, email, password, model.RoleUser)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Authenticate matches the email exactly and compares the password against its bcrypt hash.
// An unknown email and a wrong password are indistinguishable to the caller.
func (s *authService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// keep the response time close to the known-email path
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	return s.tokenRepo.Revoke(ctx, &model.RevokedToken{
		TokenID:   claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}

func (s *authService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.tokenRepo.IsRevoked(ctx, tokenID)
}

// EnsureAdmin creates an admin account unless the email is already registered.
// It reports whether a user was created.
func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	_, err = createUser(ctx, s.userRepo, name, email, password, model.RoleAdmin)
	if errors.Is(err, ErrDuplicateEmail) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *authService) issue(user *model.User) (string, error) {
	token, _, err := s.tokens.Issue(jwt.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	})
	return token, err
}

func createUser(ctx context.Context, repo repository.UserRepository, name, email, password, role string) (*model.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, validationError("name, email and password are required")
	}
	if !model.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return nil, err
	}

	user, err := repo.Create(ctx, &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return user, nil
}

var (
	dummyHashOnce  sync.Once
	dummyHashBytes []byte
)

func dummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHashBytes, _ = bcrypt.GenerateFromPassword([]byte("task-service-dummy"), hashCost)
	})
	return dummyHashBytes
}
