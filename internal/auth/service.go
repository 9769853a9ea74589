package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkravets/tasktracker/internal/apperr"
	"github.com/mkravets/tasktracker/internal/models"
	"github.com/mkravets/tasktracker/internal/validate"
)

// PasswordCost is the bcrypt cost for new accounts.
const PasswordCost = 12

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, hashedPw, role string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserName(ctx context.Context, id, name string) (*models.User, error)
	UpdateUserAvatar(ctx context.Context, id, avatarKey string) (*models.User, error)
}

// Service holds registration and credential logic, kept out of the HTTP
// layer so the error semantics are testable against a fake store.
type Service struct {
	users UserStore
	cost  int
}

func NewService(users UserStore) *Service {
	return &Service{users: users, cost: PasswordCost}
}

// NormalizeEmail lowercases and trims an address; emails are stored this
// way so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the payload, rejects duplicate emails, hashes the
// password, and creates the user with role USER. The returned record never
// carries the hash in serialized form (json:"-" on the model).
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := validate.Register(req); err != nil {
		return nil, err
	}
	email := NormalizeEmail(req.Email)

	// Pre-check for a clean error; the unique index backstops the race.
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.DuplicateEmail()
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, apperr.Persistence("password hash", err)
	}
	return s.users.CreateUser(ctx, strings.TrimSpace(req.Name), email, string(hashed), models.RoleUser)
}

// Authenticate verifies credentials. Both unknown email and wrong password
// come back as the same UNAUTHENTICATED error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthenticated()
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperr.Unauthenticated()
	}
	return user, nil
}

// UpdateProfile changes the display name. Email and password stay immutable.
func (s *Service) UpdateProfile(ctx context.Context, userID, name string) (*models.User, error) {
	name, err := validate.ProfileName(name)
	if err != nil {
		return nil, err
	}
	return s.users.UpdateUserName(ctx, userID, name)
}
