package service

import (
	"context"
	"errors"
	"strings"

	"task-service/internal/events"
	"task-service/internal/model"
	"task-service/internal/repository"

	"github.com/google/uuid"
)

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	// Role defaults to model.RoleUser when empty.
	Role string
}

type AvatarUpload struct {
	UploadURL     string `json:"upload_url"`
	FinalImageURL string `json:"final_image_url"`
}

// UploadPresigner hands out short-lived upload URLs for object keys.
type UploadPresigner interface {
	PresignUpload(ctx context.Context, objectKey string) (uploadURL, finalURL string, err error)
}

type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, input CreateUserInput) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, name, email string) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AvatarUploadURL(ctx context.Context, userID uuid.UUID) (*AvatarUpload, error)
	SetAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (*model.User, error)
	RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error
}

type userService struct {
	userRepo   repository.UserRepository
	deviceRepo repository.DeviceTokenRepository
	presigner  UploadPresigner
	publisher  events.EventPublisher
}

// NewUserService builds the user directory. presigner may be nil when object storage is not configured.
func NewUserService(userRepo repository.UserRepository, deviceRepo repository.DeviceTokenRepository, presigner UploadPresigner, pub events.EventPublisher) UserService {
	return &userService{
		userRepo:   userRepo,
		deviceRepo: deviceRepo,
		presigner:  presigner,
		publisher:  pub,
	}
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	role := input.Role
	if role == "" {
		role = model.RoleUser
	}
	return createUser(ctx, s.userRepo, input.Name, input.Email, input.Password, role)
}

// Update changes name and email only. The role is fixed at creation.
func (s *userService) Update(ctx context.Context, id uuid.UUID, name, email string) (*model.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return nil, validationError("name and email are required")
	}

	user, err := s.userRepo.Update(ctx, id, name, email)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return userError(err)
	}

	go s.publisher.PublishUserDeleted(id)

	return nil
}

func (s *userService) AvatarUploadURL(ctx context.Context, userID uuid.UUID) (*AvatarUpload, error) {
	if s.presigner == nil {
		return nil, ErrStorageDisabled
	}

	objectKey := "user-avatars/" + userID.String() + "/" + uuid.New().String() + ".jpg"
	uploadURL, finalURL, err := s.presigner.PresignUpload(ctx, objectKey)
	if err != nil {
		return nil, err
	}

	return &AvatarUpload{UploadURL: uploadURL, FinalImageURL: finalURL}, nil
}

func (s *userService) SetAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (*model.User, error) {
	if err := s.userRepo.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return nil, userError(err)
	}
	return s.GetByID(ctx, userID)
}

func (s *userService) RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	if strings.TrimSpace(token) == "" {
		return validationError("device token is required")
	}
	err := s.deviceRepo.Register(ctx, userID, token)
	if errors.Is(err, repository.ErrForeignKeyViolation) {
		return ErrUserNotFound
	}
	return err
}

func userError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrUniqueViolation):
		return ErrDuplicateEmail
	default:
		return err
	}
}
