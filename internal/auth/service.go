package auth

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/policy"
)

const (
	bcryptCost        = 12
	walletAddressLen  = 42
	minPasswordLength = 6
)

// Requests

type RegisterRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	Organization  string `json:"organization"`
	Role          string `json:"role"`
	WalletAddress string `json:"walletAddress"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name          *string `json:"name"`
	Organization  *string `json:"organization"`
	WalletAddress *string `json:"walletAddress"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResult is a user plus a freshly issued token.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	ListUsers(ctx context.Context, actor Principal, roleFilter string, page, limit int) ([]*User, int64, error)
}

type authService struct {
	repo     Repository
	secret   string
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewService(repo Repository, secret string, tokenTTL time.Duration, logger *zap.Logger) Service {
	return &authService{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apperr.Validation("VALIDATION_ERROR", "Valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Validation("VALIDATION_ERROR", "Password must be at least 6 characters")
	}
	if len(req.Name) < 2 || len(req.Name) > 100 {
		return nil, apperr.Validation("VALIDATION_ERROR", "Name must be between 2 and 100 characters")
	}
	if len(req.Organization) > 200 {
		return nil, apperr.Validation("VALIDATION_ERROR", "Organization name too long")
	}
	role := policy.RoleCommunity
	if req.Role != "" {
		role = policy.Role(req.Role)
		if !policy.ValidRole(role) {
			return nil, apperr.Validation("VALIDATION_ERROR", "Invalid role")
		}
	}
	if req.WalletAddress != "" && len(req.WalletAddress) != walletAddressLen {
		return nil, apperr.Validation("VALIDATION_ERROR", "Invalid wallet address")
	}

	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("USER_EXISTS", "User with this email already exists")
	}

	if req.WalletAddress != "" {
		existingWallet, err := s.repo.GetUserByWallet(ctx, req.WalletAddress)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if existingWallet != nil {
			return nil, apperr.Conflict("WALLET_EXISTS", "User with this wallet address already exists")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &User{
		Email:    req.Email,
		Password: string(hashed),
		Name:     req.Name,
		Role:     role,
	}
	if req.Organization != "" {
		user.Organization = &req.Organization
	}
	if req.WalletAddress != "" {
		user.WalletAddress = &req.WalletAddress
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	token, err := IssueToken(s.secret, user, s.tokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("user registered",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))

	return &AuthResult{User: user, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperr.Validation("VALIDATION_ERROR", "Email and password are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.Unauthorized("INVALID_CREDENTIALS", "Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("INVALID_CREDENTIALS", "Invalid email or password")
	}

	token, err := IssueToken(s.secret, user, s.tokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("user logged in", zap.String("email", user.Email))

	return &AuthResult{User: user, Token: token}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.NotFound("USER_NOT_FOUND", "User not found")
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if len(*req.Name) < 2 || len(*req.Name) > 100 {
			return nil, apperr.Validation("VALIDATION_ERROR", "Name must be between 2 and 100 characters")
		}
		user.Name = *req.Name
	}
	if req.Organization != nil {
		if len(*req.Organization) > 200 {
			return nil, apperr.Validation("VALIDATION_ERROR", "Organization name too long")
		}
		user.Organization = req.Organization
	}
	if req.WalletAddress != nil {
		if len(*req.WalletAddress) != walletAddressLen {
			return nil, apperr.Validation("VALIDATION_ERROR", "Invalid wallet address")
		}
		existing, err := s.repo.GetUserByWallet(ctx, *req.WalletAddress)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if existing != nil && existing.ID != userID {
			return nil, apperr.Conflict("WALLET_IN_USE", "Wallet address already in use")
		}
		user.WalletAddress = req.WalletAddress
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	if req.CurrentPassword == "" {
		return apperr.Validation("VALIDATION_ERROR", "Current password is required")
	}
	if len(req.NewPassword) < minPasswordLength {
		return apperr.Validation("VALIDATION_ERROR", "New password must be at least 6 characters")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return apperr.Validation("INVALID_PASSWORD", "Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}
	user.Password = string(hashed)

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return apperr.Internal(err)
	}

	s.logger.Info("password changed", zap.String("user_id", userID.String()))
	return nil
}

// ListUsers is the admin account overview.
func (s *authService) ListUsers(ctx context.Context, actor Principal, roleFilter string, page, limit int) ([]*User, int64, error) {
	if actor.Role != policy.RoleAdmin {
		return nil, 0, apperr.Forbidden("ADMIN_REQUIRED", "Admin access required")
	}

	var role *policy.Role
	if roleFilter != "" {
		r := policy.Role(roleFilter)
		if !policy.ValidRole(r) {
			return nil, 0, apperr.Validation("VALIDATION_ERROR", "Invalid role filter")
		}
		role = &r
	}

	users, total, err := s.repo.ListUsers(ctx, role, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return users, total, nil
}
