// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and bearer-token
// authentication.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/fplassistant/internal/common"
	"github.com/dmitrijs2005/fplassistant/internal/dbx"
	"github.com/dmitrijs2005/fplassistant/internal/logging"
	"github.com/dmitrijs2005/fplassistant/internal/server/auth"
	"github.com/dmitrijs2005/fplassistant/internal/server/config"
	"github.com/dmitrijs2005/fplassistant/internal/server/models"
	"github.com/dmitrijs2005/fplassistant/internal/server/password"
	"github.com/dmitrijs2005/fplassistant/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/fplassistant/internal/server/repositories/users"
)

// Lengths are counted in characters, not bytes.
const (
	MinUserNameLength = 3
	MinPasswordLength = 6
)

// RegisterInput is a validated registration request.
type RegisterInput struct {
	UserName  string
	Email     string
	Password  string
	ManagerID *int64
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User          *models.User
	Token         string
	IsSpecialUser bool
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint a token
// - Authenticate: resolve a bearer token to its user
type UserService struct {
	repomanager                 repomanager.RepositoryManager
	hasher                      *password.Hasher
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	specialUserEmail            string
	log                         logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(m repomanager.RepositoryManager, hasher *password.Hasher, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		repomanager:                 m,
		hasher:                      hasher,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		specialUserEmail:            users.NormalizeEmail(cfg.SpecialUserEmail),
		log:                         log,
	}
}

// Register creates a new account and returns it with a fresh token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	userName := strings.TrimSpace(in.UserName)
	email := users.NormalizeEmail(in.Email)

	if utf8.RuneCountInString(userName) < MinUserNameLength {
		return nil, common.ErrInvalidUsername
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return nil, common.ErrWeakPassword
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrInternal, err)
	}

	var created *models.User
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		exists, err := repo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrDuplicateEmail
		}

		exists, err = repo.ExistsByUsername(ctx, userName)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrDuplicateUsername
		}

		created, err = repo.Create(ctx, &models.User{
			UserName:     userName,
			Email:        email,
			PasswordHash: hash,
			ManagerID:    in.ManagerID,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) || errors.Is(err, common.ErrDuplicateUsername) {
			return nil, err
		}
		s.log.Error(ctx, "registration failed", "error", err)
		return nil, fmt.Errorf("%w: create user: %v", common.ErrInternal, err)
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID)
	return s.authResult(created)
}

// Login verifies the credentials. Unknown email and wrong password yield the
// same common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, plain string) (*AuthResult, error) {
	repo := s.repomanager.Users(s.repomanager.DB())

	user, err := repo.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Error(ctx, "login lookup failed", "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
		}
		// keep the timing close to a real verification
		_, _ = s.hasher.Verify(plain, s.getDummyHash())
		return nil, common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(plain, user.PasswordHash)
	if err != nil {
		s.log.Warn(ctx, "stored password hash is unreadable", "user_id", user.ID, "error", err)
		return nil, common.ErrInvalidCredentials
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.authResult(user)
}

// Authenticate resolves a bearer token to its user. Every failure is
// reported as common.ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrUnauthorized
	}

	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		s.log.Debug(ctx, "token rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}

	user, err := s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Error(ctx, "token user lookup failed", "user_id", userID, "error", err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	return user, nil
}

// IsSpecialUser reports whether user is the configured special account.
func (s *UserService) IsSpecialUser(user *models.User) bool {
	return s.specialUserEmail != "" && users.NormalizeEmail(user.Email) == s.specialUserEmail
}

// --- helpers below ---

func (s *UserService) authResult(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %v", common.ErrInternal, err)
	}
	return &AuthResult{User: user, Token: token, IsSpecialUser: s.IsSpecialUser(user)}, nil
}

func (s *UserService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
