// Package services contains server-side business logic: the authentication
// flows (register, login, refresh rotation), the admin user listing and the
// work-item operations with their ownership rules.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/dbx"
	"github.com/dmitrijs2005/workboard/internal/logging"
	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const MaxUsernameLength = 100

// TokenPair bundles a short-lived access token and a rotating refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RegisterInput struct {
	Username string
	Password string
	Role     string
	Email    string
}

// Validate reports the first missing or oversized field.
func (in RegisterInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Username) == "":
		return common.WithMessage(common.ErrorValidation, "username is required")
	case utf8.RuneCountInString(in.Username) > MaxUsernameLength:
		return common.WithMessage(common.ErrorValidation, "username must be at most %d characters", MaxUsernameLength)
	case in.Password == "":
		return common.WithMessage(common.ErrorValidation, "password is required")
	case strings.TrimSpace(in.Role) == "":
		return common.WithMessage(common.ErrorValidation, "role is required")
	case strings.TrimSpace(in.Email) == "":
		return common.WithMessage(common.ErrorValidation, "email is required")
	}
	return nil
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(digest, password string) bool
	VerifyDummy(password string) bool
}

type AccessTokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// AuthService is the single entry point for register, login and refresh.
type AuthService struct {
	db          dbx.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	issuer      AccessTokenIssuer
	refresh     *RefreshTokenManager
	log         logging.Logger
}

func NewAuthService(db dbx.DB, m repomanager.RepositoryManager, hasher PasswordHasher,
	issuer AccessTokenIssuer, refresh *RefreshTokenManager, log logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
		refresh:     refresh,
		log:         log.With("module", "auth"),
	}
}

// Register creates a user. An existing username yields ErrorAlreadyExists
// and nothing is written.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByLogin(ctx, in.Username)
	switch {
	case err == nil:
		return nil, common.ErrorAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := repo.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		UserName:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown users and
// wrong passwords both yield ErrInvalidCredentials after one hash check.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	access, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.refresh.IssueAndPersist(ctx, repo, user)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshTokens validates presented for userID and rotates it inside one
// transaction. Any validation failure yields ErrInvalidRefreshToken before
// an access token is built.
func (s *AuthService) RefreshTokens(ctx context.Context, userID, presented string) (*TokenPair, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, common.ErrInvalidRefreshToken
	}

	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := s.refresh.Validate(ctx, repo, userID, presented)
		if err != nil {
			return err
		}

		access, err := s.issuer.Issue(user)
		if err != nil {
			return err
		}
		refresh, err := s.refresh.Rotate(ctx, repo, user, presented)
		if err != nil {
			return err
		}

		pair = &TokenPair{AccessToken: access, RefreshToken: refresh}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}
