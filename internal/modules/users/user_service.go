package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carryconnect/internal/models"
	"carryconnect/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// ServiceInterface defines methods for user business logic.
type ServiceInterface interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
}

type Service struct {
	userRepo  RepositoryInterface
	jwtSecret string
	jwtTTL    time.Duration
}

func NewService(userRepo RepositoryInterface, jwtSecret string, jwtTTL time.Duration) ServiceInterface {
	return &Service{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Register.HashPassword: %w", err)
	}

	role := models.UserRole(req.Role)
	if role == "" {
		role = models.RoleBoth
	}

	newUser := &models.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Role:         role,
	}
	if req.PhoneNumber != "" {
		phone := req.PhoneNumber
		newUser.PhoneNumber = &phone
	}
	if req.Email != "" {
		email := req.Email
		newUser.Email = &email
	}

	created, err := s.userRepo.Create(ctx, newUser)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("service.Register.Create: %w", err)
	}

	return s.authResponse(created)
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.Login.FindByUsername: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("service.GetProfile: %w", err)
	}
	return profile, nil
}

func (s *Service) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, err := utils.GenerateAccessToken(user, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, fmt.Errorf("service.authResponse: %w", err)
	}
	return &models.AuthResponse{
		AccessToken: token,
		User:        user.Profile(),
	}, nil
}
