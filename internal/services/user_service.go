package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/boehmtech/task-tracker/internal/constants"
	"github.com/boehmtech/task-tracker/internal/models"
	"github.com/boehmtech/task-tracker/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("username already exists")
	ErrEmailTaken           = errors.New("email already exists")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrInvalidRole          = errors.New("invalid role")
	ErrRoleEscalation       = errors.New("only superadmins can assign admin roles")
	ErrNotPermitted         = errors.New("insufficient permissions")
	ErrSelfDeactivation     = errors.New("cannot deactivate your own account")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// UserService handles user directory business logic. Every method takes the
// acting user explicitly; there is no ambient request identity.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListUsersInput holds filters for listing users.
type ListUsersInput struct {
	Role     *models.Role
	IsActive *bool
}

// List returns users matching the filters, newest first. Requires admin.
func (s *UserService) List(actor *models.User, input ListUsersInput) ([]models.User, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return nil, ErrNotPermitted
	}

	users, err := s.userRepo.List(repository.UserFilter{
		Role:     input.Role,
		IsActive: input.IsActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateUserInput holds the fields for account creation.
type CreateUserInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Role        models.Role
}

// Create creates a new account with a hashed password. Duplicate usernames
// and emails conflict against all accounts, deactivated ones included. Only
// superadmins may create admin or superadmin accounts.
func (s *UserService) Create(actor *models.User, input CreateUserInput) (*models.User, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return nil, ErrNotPermitted
	}

	if input.Role == "" {
		input.Role = models.RoleUser
	}
	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	if input.Role != models.RoleUser && actor.Role != models.RoleSuperadmin {
		return nil, ErrRoleEscalation
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	// Advisory pre-checks; the unique constraint is the authoritative guard.
	if _, err := s.userRepo.FindByUsername(input.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashed),
		DisplayName:  input.DisplayName,
		Role:         input.Role,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		// A concurrent create can win the race past the pre-check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Get returns a user by ID. Plain users may only fetch themselves.
// Deactivated accounts remain resolvable.
func (s *UserService) Get(actor *models.User, id uint64) (*models.User, error) {
	if actor.ID != id && !actor.HasRole(models.RoleAdmin) {
		return nil, ErrNotPermitted
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateUserInput holds the optional fields for a user update. Nil pointers
// leave the corresponding field untouched.
type UpdateUserInput struct {
	DisplayName *string
	Email       *string
	Password    *string
	Role        *models.Role
	IsActive    *bool
}

// Update applies field-level gated changes to an account. Self or admin for
// display name, email and password; role and active flag require admin; a
// promotion into admin or superadmin requires superadmin.
func (s *UserService) Update(actor *models.User, id uint64, input UpdateUserInput) (*models.User, error) {
	if actor.ID != id && !actor.HasRole(models.RoleAdmin) {
		return nil, ErrNotPermitted
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}

	if input.Email != nil && *input.Email != user.Email {
		taken, err := s.userRepo.EmailTaken(*input.Email, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, ErrEmailTaken
		}
		user.Email = *input.Email
	}

	if input.Role != nil && actor.HasRole(models.RoleAdmin) {
		if !input.Role.IsValid() {
			return nil, ErrInvalidRole
		}
		if *input.Role != models.RoleUser && actor.Role != models.RoleSuperadmin {
			return nil, ErrRoleEscalation
		}
		user.Role = *input.Role
	}

	if input.IsActive != nil && actor.HasRole(models.RoleAdmin) {
		user.IsActive = *input.IsActive
	}

	if input.Password != nil {
		if len(*input.Password) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Deactivate soft-deletes an account. Superadmin only, never oneself. The
// record stays in storage so historical tasks keep their references.
func (s *UserService) Deactivate(actor *models.User, id uint64) error {
	if actor.Role != models.RoleSuperadmin {
		return ErrNotPermitted
	}
	if actor.ID == id {
		return ErrSelfDeactivation
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	user.IsActive = false
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// Search finds active users by username or display name substring. Requires
// admin. An empty query returns no results without touching storage.
func (s *UserService) Search(actor *models.User, query string) ([]models.User, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return nil, ErrNotPermitted
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}

	users, err := s.userRepo.Search(query, constants.SearchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}
