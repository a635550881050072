package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mdfarid01/RapidTrack/internal/auth"
	"github.com/mdfarid01/RapidTrack/internal/clock"
	"github.com/mdfarid01/RapidTrack/internal/config"
	"github.com/mdfarid01/RapidTrack/internal/domain"
	"github.com/mdfarid01/RapidTrack/internal/repository"
	apperrors "github.com/mdfarid01/RapidTrack/pkg/util"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	clock      clock.Clock
	bcryptCost int
	adminEmail string
	adminPass  string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository, clk clock.Clock) *AuthService {
	if clk == nil {
		clk = clock.System()
	}
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		clock:      clk,
		bcryptCost: cfg.Auth.BcryptCost,
		adminEmail: cfg.Auth.AdminEmail,
		adminPass:  cfg.Auth.AdminPassword,
	}
}

// Register creates a new employee account. Self-registration never grants
// staff or admin roles.
func (s *AuthService) Register(ctx context.Context, name, email, password, department string) (*domain.User, string, time.Time, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("name, email, password required", nil)
	}
	if department != "" && !domain.ValidDepartment(department) {
		return nil, "", time.Time{}, apperrors.NewValidationError("invalid department", map[string]any{"department": department})
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user, err := s.createUser(ctx, name, email, password, domain.RoleEmployee, department)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// CreateStaff lets an admin provision department staff and admin accounts.
func (s *AuthService) CreateStaff(ctx context.Context, actor domain.Actor, name, email, password string, role domain.Role, department string) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may create staff accounts")
	}
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("name, email, password required", nil)
	}
	if role != domain.RoleDepartmentStaff && role != domain.RoleAdmin {
		return nil, apperrors.NewValidationError("role must be department_staff or admin", nil)
	}
	if role == domain.RoleDepartmentStaff && !domain.ValidDepartment(department) {
		return nil, apperrors.NewValidationError("department required for staff", map[string]any{"department": department})
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	return s.createUser(ctx, name, email, password, role, department)
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// SeedAdmin provisions the bootstrap admin from config when absent. Without
// it a fresh deployment has no way to mint staff accounts.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	if s.adminEmail == "" || s.adminPass == "" {
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, s.adminEmail); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	_, err := s.createUser(ctx, "Administrator", s.adminEmail, s.adminPass, domain.RoleAdmin, "")
	return err
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role domain.Role, department string) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.clock.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Department:   department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
