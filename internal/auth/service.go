package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"civicpulse_backend/platform/apperr"
	"civicpulse_backend/platform/config"
	"civicpulse_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleCitizen = "citizen"
	RoleAdmin   = "admin"
)

// UserStore is the persistence collaborator for the auth service.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// Service implements account registration and login.
type Service struct {
	store UserStore
	cfg   config.AuthServiceConfig
	log   *logger.Logger
	now   func() time.Time
}

func NewService(store UserStore, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{
		store: store,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// Register creates a new account. The configured admin email gets the admin
// role; everyone else is a citizen.
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		s.log.AuthEvent("register", email, false, "email already registered")
		return nil, apperr.Conflict("email already registered")
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to check existing account", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	role := RoleCitizen
	if admin := strings.ToLower(strings.TrimSpace(s.cfg.GetAdminEmail())); admin != "" && admin == email {
		role = RoleAdmin
	}

	user := &User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		Role:         role,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create account", err)
	}

	s.log.AuthEvent("register", email, true, "")
	return user, nil
}

// Login verifies credentials and returns the user with a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.log.AuthEvent("login", email, false, "unknown email")
		return nil, "", apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to load account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.AuthEvent("login", email, false, "wrong password")
		return nil, "", apperr.Unauthorized("invalid credentials")
	}

	token, err := s.signAccessToken(user)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindInternal, "failed to sign token", err)
	}

	s.log.AuthEvent("login", email, true, "")
	return user, token, nil
}

// Me loads the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load account", err)
	}
	return user, nil
}

// EmailForUser resolves a user's email, used by the reports module for
// status notifications.
func (s *Service) EmailForUser(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (s *Service) signAccessToken(user *User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"type": "access",
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
