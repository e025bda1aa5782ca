package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"socialdl/internal/domain"
	"socialdl/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAdminExists is returned when the username is already taken
	ErrAdminExists = errors.New("admin already exists")
	// ErrWeakPassword is returned for passwords shorter than minPasswordLength
	ErrWeakPassword = errors.New("password too short")
)

const minPasswordLength = 8

// AdminService manages admin API accounts
type AdminService struct {
	adminRepo repository.AdminRepository
	logger    *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(adminRepo repository.AdminRepository, logger *zap.Logger) *AdminService {
	return &AdminService{
		adminRepo: adminRepo,
		logger:    logger,
	}
}

// Authenticate checks a username/password pair
func (s *AdminService) Authenticate(ctx context.Context, username, password string) (*domain.AdminUser, error) {
	admin, err := s.adminRepo.GetAdminByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// Create hashes the password and stores a new admin
func (s *AdminService) Create(ctx context.Context, username, password string, superAdmin bool, telegramID *int64) (*domain.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidCredentials
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	existing, err := s.adminRepo.GetAdminByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAdminExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin := domain.AdminUser{
		Username:       username,
		PasswordHash:   string(hash),
		IsSuperAdmin:   superAdmin,
		TelegramUserID: telegramID,
	}
	if admin.ID, err = s.adminRepo.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("Admin created", zap.String("username", username), zap.Bool("super_admin", superAdmin))
	return &admin, nil
}

// EnsureSuperAdmin creates the bootstrap super admin unless it already exists
func (s *AdminService) EnsureSuperAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.Create(ctx, username, password, true, nil)
	if errors.Is(err, ErrAdminExists) {
		return nil
	}
	return err
}

// List returns all admins
func (s *AdminService) List(ctx context.Context) ([]domain.AdminUser, error) {
	return s.adminRepo.ListAdmins(ctx)
}

// Delete removes an admin account
func (s *AdminService) Delete(ctx context.Context, id int64) error {
	return s.adminRepo.DeleteAdmin(ctx, id)
}
