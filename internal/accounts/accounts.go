// Package accounts is the credential store: registration, credential
// checks and the few self-service changes a user may make to their account.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/security"
)

var ErrInvalidInput = errors.New("invalid input")

type Store interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdateFullName(ctx context.Context, id int64, fullName string) (user.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

type Service struct {
	store Store
	log   *slog.Logger

	hash  func(string) (string, error)
	check func(hash, plain string) error
}

func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		store: store,
		log:   log,
		hash:  security.HashPassword,
		check: security.CheckPassword,
	}
}

// Register stores a new user with a salted password hash. It never returns
// the stored record so the hash cannot leak through the caller.
func (s *Service) Register(ctx context.Context, req user.RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	if err := validateRegistration(req); err != nil {
		return err
	}

	// Friendly pre-checks; the unique constraints still decide races.
	if _, err := s.store.GetByUsername(ctx, req.Username); err == nil {
		return user.ErrUsernameTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	if _, err := s.store.GetByEmail(ctx, req.Email); err == nil {
		return user.ErrEmailTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.Create(ctx, user.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	return nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords produce the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (user.PublicUser, error) {
	u, err := s.store.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.log.DebugContext(ctx, "login failed", "reason", "unknown_user")
			return user.PublicUser{}, user.ErrInvalidCredentials
		}
		return user.PublicUser{}, err
	}

	if err := s.check(u.PasswordHash, password); err != nil {
		s.log.DebugContext(ctx, "login failed", "reason", "password_mismatch", "user_id", u.ID)
		return user.PublicUser{}, user.ErrInvalidCredentials
	}

	return u.Public(), nil
}

func (s *Service) Get(ctx context.Context, id int64) (user.PublicUser, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return user.PublicUser{}, err
	}
	return u.Public(), nil
}

// Update applies the allow-listed profile fields to the user's own record.
func (s *Service) Update(ctx context.Context, id int64, req user.UpdateRequest) (user.PublicUser, error) {
	if req.Empty() {
		return user.PublicUser{}, fmt.Errorf("%w: no updatable fields supplied", ErrInvalidInput)
	}

	if req.Password != nil {
		if err := s.setPassword(ctx, id, *req.Password); err != nil {
			return user.PublicUser{}, err
		}
	}

	if req.FullName != nil {
		u, err := s.store.UpdateFullName(ctx, id, strings.TrimSpace(*req.FullName))
		if err != nil {
			return user.PublicUser{}, err
		}
		return u.Public(), nil
	}

	return s.Get(ctx, id)
}

// SetPasswordByEmail replaces a user's password; used by the admin CLI.
func (s *Service) SetPasswordByEmail(ctx context.Context, email, password string) error {
	u, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	return s.setPassword(ctx, u.ID, password)
}

// EnsureUser registers the user unless the username already exists.
func (s *Service) EnsureUser(ctx context.Context, req user.RegisterRequest) (created bool, err error) {
	if _, err := s.store.GetByUsername(ctx, strings.TrimSpace(req.Username)); err == nil {
		return false, nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	if err := s.Register(ctx, req); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) setPassword(ctx context.Context, id int64, password string) error {
	if err := security.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.store.UpdatePasswordHash(ctx, id, hash)
}

func validateRegistration(req user.RegisterRequest) error {
	var problems []string

	switch {
	case req.Username == "":
		problems = append(problems, "username is required")
	case len(req.Username) > 50:
		problems = append(problems, "username must be at most 50 characters")
	case !ValidUsername(req.Username):
		problems = append(problems, "username may only contain letters, digits, '_', '.' and '-'")
	}

	if req.Email == "" {
		problems = append(problems, "email is required")
	} else if len(req.Email) > 100 {
		problems = append(problems, "email must be at most 100 characters")
	} else if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		problems = append(problems, "email must be a valid email address")
	}

	if err := security.ValidatePassword(req.Password); err != nil {
		problems = append(problems, err.Error())
	}

	if len(req.FullName) > 100 {
		problems = append(problems, "full name must be at most 100 characters")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// ValidUsername reports whether s uses only the username alphabet.
func ValidUsername(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}
