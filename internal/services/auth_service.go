package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/constants"
	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
	"github.com/yukikurage/faculty-feedback-api/internal/token"
)

var (
	ErrEmailTaken              = errors.New("email already registered")
	ErrInvalidEmail            = errors.New("invalid email address")
	ErrNameRequired            = errors.New("name is required")
	ErrNameTooLong             = errors.New("name is too long")
	ErrPasswordTooShort        = errors.New("password too short")
	ErrPasswordTooLong         = errors.New("password too long")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrAccountInactive         = errors.New("account is deactivated")
	ErrInvalidToken            = errors.New("invalid session token")
	ErrTokenExpired            = errors.New("session token expired")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidRole             = errors.New("invalid role")
	ErrCurrentPasswordRequired = errors.New("current password is required to set a new password")
	ErrCurrentPasswordWrong    = errors.New("current password is incorrect")
	ErrFailedToHashPassword    = errors.New("failed to hash password")
)

// bcrypt ignores input beyond this length
const maxPasswordBytes = 72

var validate = validator.New()

// StaffRoles may triage feedback
var StaffRoles = []models.UserRole{
	models.RoleFacultyAdmin,
	models.RoleRelatedUnit,
	models.RoleFacultyLeadership,
}

// ReportingRoles may read the dashboard
var ReportingRoles = []models.UserRole{
	models.RoleFacultyAdmin,
	models.RoleFacultyLeadership,
}

// Authorize reports whether user holds one of the roles. There is no hierarchy.
func Authorize(user *models.User, roles ...models.UserRole) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// AuthService handles authentication related business logic.
type AuthService struct {
	users      repository.UserRepository
	tokens     *token.Manager
	logger     *zap.Logger
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, tokens *token.Manager, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// RegisterInput represents the required information to create a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an end_user account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	return s.CreateUser(ctx, CreateUserInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     models.RoleEndUser,
	})
}

// CreateUserInput creates an account with an explicit role. Only the CLI uses
// roles other than end_user.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     models.UserRole
}

// CreateUser validates and stores a new active account.
func (s *AuthService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(input.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", zap.Uint64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the issued session token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	signed, expiresAt, err := s.tokens.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

// ValidateSession resolves a token to its active user.
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return user, nil
}

// OptionalAuthenticate returns the session user, or nil when the token is
// missing or unusable for any reason.
func (s *AuthService) OptionalAuthenticate(ctx context.Context, tokenString string) *models.User {
	if tokenString == "" {
		return nil
	}
	user, err := s.ValidateSession(ctx, tokenString)
	if err != nil {
		return nil
	}
	return user
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput holds optional profile changes. NewPassword requires CurrentPassword.
type UpdateProfileInput struct {
	Name            *string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile changes the caller's own name and/or password.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := normalizeName(*input.Name)
		if err != nil {
			return nil, err
		}
		user.Name = name
	}

	if input.NewPassword != "" {
		if input.CurrentPassword == "" {
			return nil, ErrCurrentPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
			return nil, ErrCurrentPasswordWrong
		}
		hash, err := s.hashPassword(input.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	if len(password) < constants.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hash), nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if len([]rune(name)) > constants.MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetActive activates or deactivates the account with the given email.
// Deactivated accounts keep their history but can no longer authenticate.
func (s *AuthService) SetActive(ctx context.Context, email string, active bool) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.IsActive = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.logger.Info("User activation changed", zap.Uint64("user_id", user.ID), zap.Bool("active", active))
	return user, nil
}
