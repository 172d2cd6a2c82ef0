package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	user.UserRepository
	jwt.Service
	logger *slog.Logger
}

func NewAuthService(userRepository user.UserRepository, jwtService jwt.Service, logger *slog.Logger) auth.AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthServiceImpl{
		UserRepository: userRepository,
		Service:        jwtService,
		logger:         logger,
	}
}

func (a *AuthServiceImpl) hashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	hashed := string(hash)
	return hashed, nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, loginReq auth.LoginRequest) (auth.TokenResponse, error) {
	loginReq.Email = strings.ToLower(strings.TrimSpace(loginReq.Email))
	if err := loginReq.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	userData, err := a.UserRepository.GetByEmail(ctx, loginReq.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Check password
	if userData.PasswordHash == nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*userData.PasswordHash), []byte(loginReq.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if !userData.IsActive {
		return auth.TokenResponse{}, auth.ErrAccountInactive
	}

	accessToken, expiresAt, err := a.Service.GenerateAccessToken(userData.ID, userData.Email, userData.Role)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}

	return auth.TokenResponse{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt,
		UserID:               userData.ID,
		Role:                 string(userData.Role),
	}, nil
}

// EnsureOwner implements auth.AuthService.
func (a *AuthServiceImpl) EnsureOwner(ctx context.Context, req auth.BootstrapOwnerRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		return err
	}

	_, err := a.UserRepository.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	hashed, err := a.hashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	name := req.Name
	if name == "" {
		name = "Owner"
	}

	created, err := a.UserRepository.Create(ctx, user.User{
		Email:        req.Email,
		Name:         name,
		PasswordHash: &hashed,
		Role:         user.RoleOwner,
		IsActive:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to create owner: %w", err)
	}

	a.logger.InfoContext(ctx, "bootstrap owner created", slog.Int64("user_id", created.ID), slog.String("email", created.Email))
	return nil
}
