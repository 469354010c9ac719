// internal/domain/user/service.go
package user

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned when login fails, without revealing
// whether the account exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service handles account lookup and authentication
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{db: db, config: cfg}
}

// LoginRequest represents login form data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// Authenticate verifies credentials and issues an access token
func (s *Service) Authenticate(req *LoginRequest) (*LoginResponse, error) {
	var account User
	result := s.db.Where("email = ? AND is_active = ?", req.Email, true).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", result.Error)
	}

	if !auth.CheckPassword(req.Password, account.Password) {
		return nil, ErrInvalidCredentials
	}

	jwtManager := auth.NewJWTManager(s.config)
	token, err := jwtManager.GenerateAccessToken(account.ID, account.Email, account.IsStaff)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResponse{
		AccessToken: token,
		User:        &account,
	}, nil
}

// GetByID returns an account by id
func (s *Service) GetByID(id uint) (*User, error) {
	var account User
	if err := s.db.First(&account, id).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &account, nil
}
