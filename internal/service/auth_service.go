// Package service holds the business rules that sit between the HTTP
// handlers and the data layer.
package service

import (
	"context"
	"strings"

	"jobtracker/internal/models"
	"jobtracker/internal/repository"
	"jobtracker/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// Verification outcomes reported by AuthService.Verify.
const (
	VerifySuccess          = "success"
	VerifyUsernameNotFound = "username_not_found"
	VerifyWrongPassword    = "wrong_password"
)

type AuthService struct {
	users repository.UserRepository
	cost  int
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// VerifyResult reports why a login attempt failed or which user it matched.
type VerifyResult struct {
	Status string
	User   *models.User
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users, cost: bcrypt.DefaultCost}
}

// WithCost lowers the bcrypt cost; tests use bcrypt.MinCost.
func (s *AuthService) WithCost(cost int) *AuthService {
	s.cost = cost
	return s
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, models.NewValidationError("Username and password are required.")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Username already exists. Please choose a different username.", nil)
	}

	var email *string
	if e := strings.TrimSpace(in.Email); e != "" {
		taken, err := s.users.EmailExists(ctx, e)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.NewConflictError("Email already registered. Please use a different email.", nil)
		}
		email = &e
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash), Email: email}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Verify checks credentials. A failed check is reported in the result,
// not as an error; errors are reserved for the data layer.
func (s *AuthService) Verify(ctx context.Context, username, password string) (VerifyResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return VerifyResult{}, err
	}
	if user == nil {
		return VerifyResult{Status: VerifyUsernameNotFound}, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return VerifyResult{Status: VerifyWrongPassword}, nil
	}
	return VerifyResult{Status: VerifySuccess, User: user}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return models.NewUnauthorizedError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return models.NewInternalError(err)
	}
	n, err := s.users.UpdatePasswordHash(ctx, userID, string(hash))
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

// DeleteAccount removes the user and, through the data layer, everything
// the user owns.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint) error {
	n, err := s.users.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
