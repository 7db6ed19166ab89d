package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type Role string

const (
	RoleRegular Role = "Regular"
	RoleAdmin   Role = "Admin"
)

var (
	ErrMissingFields      = errors.New("All the fields must be present and not empty")
	ErrInvalidEmail       = errors.New("Email address is not valid")
	ErrAlreadyRegistered  = errors.New("You are already registered")
	ErrInvalidCredentials = errors.New("Wrong credentials")
	ErrCannotDeleteAdmin  = errors.New("Admins cannot be deleted")
)

type User struct {
	ID           string    `json:"-"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// DeletionResult reports what was removed together with a user.
type DeletionResult struct {
	DeletedTransactions int64 `json:"deletedTransactions"`
	DeletedFromGroup    bool  `json:"deletedFromGroup"`
}

type Service interface {
	Register(ctx context.Context, username, email, password string, role Role) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	SaveRefreshToken(ctx context.Context, userID, refreshToken string) error
	GetUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, username string) (*User, error)
	GetUsersByEmails(ctx context.Context, emails []string) ([]User, error)
	DeleteUser(ctx context.Context, email string) (*DeletionResult, error)
	UserExists(ctx context.Context, username string) (bool, error)
	UsernamesByEmails(ctx context.Context, emails []string) ([]string, error)
}

type service struct {
	repo Repository
}

func NewUserService(repo Repository) Service {
	return &service{repo: repo}
}

func hashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashedPasswordBytes), err
}

func doPasswordsMatch(hashedPassword, currPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(currPassword))
	return err == nil
}

func ValidateEmailAddress(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func (s *service) Register(ctx context.Context, username, email, password string, role Role) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if err := ValidateEmailAddress(email); err != nil {
		return nil, err
	}
	if role != RoleRegular && role != RoleAdmin {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if err := ValidateEmailAddress(email); err != nil {
		return nil, err
	}

	existingUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !doPasswordsMatch(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return existingUser, nil
}

// SaveRefreshToken stores the latest refresh token, an empty token logs the user out.
func (s *service) SaveRefreshToken(ctx context.Context, userID, refreshToken string) error {
	return s.repo.UpdateRefreshToken(ctx, userID, refreshToken)
}

func (s *service) GetUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		return []User{}, nil
	}
	return users, nil
}

func (s *service) GetUser(ctx context.Context, username string) (*User, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *service) GetUsersByEmails(ctx context.Context, emails []string) ([]User, error) {
	if len(emails) == 0 {
		return []User{}, nil
	}
	return s.repo.FindByEmails(ctx, emails)
}

func (s *service) DeleteUser(ctx context.Context, email string) (*DeletionResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrMissingFields
	}
	if err := ValidateEmailAddress(email); err != nil {
		return nil, err
	}

	existingUser, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingUser.Role == RoleAdmin {
		return nil, ErrCannotDeleteAdmin
	}
	return s.repo.DeleteByID(ctx, existingUser.ID)
}

func (s *service) UserExists(ctx context.Context, username string) (bool, error) {
	_, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UsernamesByEmails maps emails to usernames, emails without a user are skipped.
func (s *service) UsernamesByEmails(ctx context.Context, emails []string) ([]string, error) {
	users, err := s.GetUsersByEmails(ctx, emails)
	if err != nil {
		return nil, err
	}
	usernames := make([]string, 0, len(users))
	for _, u := range users {
		usernames = append(usernames, u.Username)
	}
	return usernames, nil
}
