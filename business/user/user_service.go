package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"justEatMore/domain"
	"justEatMore/pkg/logger"
	"justEatMore/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// LoginLimiter counts failed logins per client key.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type userService struct {
	userRepo UserRepository
	validate *validator.Validate
	limiter  LoginLimiter
}

func NewUserService(userRepo UserRepository, validate *validator.Validate, limiter LoginLimiter) *userService {
	return &userService{
		userRepo: userRepo,
		validate: validate,
		limiter:  limiter,
	}
}

var validRoles = map[string]bool{
	domain.RoleAdmin: true,
	domain.RoleStaff: true,
}

// Register creates a staff account. Only admins reach this through the API.
func (s *userService) Register(ctx context.Context, user *domain.User) (domain.User, error) {
	if err := s.validate.Var(user.Email, "required,email"); err != nil {
		logger.Error("Invalid email format", err)
		return domain.User{}, domain.InvalidInput("email", "invalid email format")
	}

	if err := s.validate.Var(user.Password, "required,min=6"); err != nil {
		logger.Error("Invalid user password", err)
		return domain.User{}, domain.InvalidInput("password", "must be at least 6 characters")
	}

	role := user.Role
	if role == "" {
		role = domain.RoleStaff
	}
	if !validRoles[role] {
		return domain.User{}, domain.InvalidInput("role", "must be admin or staff")
	}

	email := strings.ToLower(strings.TrimSpace(user.Email))
	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existingUser.ID > 0 {
		logger.Error("Email already exists")
		return domain.User{}, domain.InvalidInput("email", "already exists")
	}

	passwordHash, err := utils.HashPassword(user.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return domain.User{}, errors.New("failed to hash password")
	}

	newUser := domain.User{
		FullName: user.FullName,
		Email:    email,
		Password: string(passwordHash),
		Role:     role,
	}

	if err := s.userRepo.Create(ctx, &newUser); err != nil {
		logger.Error("Failed to create new user", err)
		return domain.User{}, err
	}

	newUser.Password = ""
	return newUser, nil
}

// Login checks credentials for clientKey (usually the caller IP). Failed
// attempts count against the key; a success clears it.
func (s *userService) Login(ctx context.Context, email, password, clientKey string) (string, domain.User, error) {
	key := "login:" + clientKey

	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		logger.Warn("login limiter unavailable", "error", err.Error())
	} else if !allowed {
		logger.Warn("login locked out", "client", clientKey)
		return "", domain.User{}, domain.ErrTooManyAttempts
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			logger.Error("Failed to find user", err)
			return "", domain.User{}, err
		}
		s.fail(ctx, key)
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	if !utils.CheckPassword(password, user.Password) {
		logger.Error("User password incorrect", "user_id", user.ID)
		s.fail(ctx, key)
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		logger.Warn("failed to reset login attempts", "error", err.Error())
	}

	token, err := utils.GenerateJWT(strconv.FormatUint(uint64(user.ID), 10), user.Role)
	if err != nil {
		logger.Error("Failed to generated token", err)
		return "", domain.User{}, fmt.Errorf("failed to generate token: %w", err)
	}

	user.Password = ""
	return token, user, nil
}

func (s *userService) fail(ctx context.Context, key string) {
	if err := s.limiter.Fail(ctx, key); err != nil {
		logger.Warn("failed to record login attempt", "error", err.Error())
	}
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get user by ID", err)
		return domain.User{}, err
	}

	user.Password = ""
	return user, nil
}
