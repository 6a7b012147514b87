package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/dmitrijs2005/workboard/internal/server/repositories/users"
)

// RefreshTokenSize is the number of random bytes behind a refresh token.
const RefreshTokenSize = 32

// RefreshTokenManager issues, validates and rotates the single refresh
// token each user may hold. Callers pass a users.Repository bound to the
// transaction the operation belongs to.
type RefreshTokenManager struct {
	validity time.Duration
	now      func() time.Time
}

func NewRefreshTokenManager(validity time.Duration) *RefreshTokenManager {
	return &RefreshTokenManager{validity: validity, now: time.Now}
}

// Generate returns base64 of RefreshTokenSize bytes from crypto/rand.
func (m *RefreshTokenManager) Generate() (string, error) {
	tok, err := common.MakeRandBase64String(RefreshTokenSize)
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return tok, nil
}

// IssueAndPersist replaces whatever refresh token the user holds.
func (m *RefreshTokenManager) IssueAndPersist(ctx context.Context, repo users.Repository, user *models.User) (string, error) {
	tok, err := m.Generate()
	if err != nil {
		return "", err
	}
	expiry := m.now().Add(m.validity)
	if err := repo.SetRefreshToken(ctx, user.ID, tok, expiry); err != nil {
		return "", err
	}
	user.RefreshToken, user.RefreshTokenExpiry = &tok, &expiry
	return tok, nil
}

// Validate loads the user (locking the row) and checks presented against
// the stored token and expiry. Every failure is ErrInvalidRefreshToken.
func (m *RefreshTokenManager) Validate(ctx context.Context, repo users.Repository, userID, presented string) (*models.User, error) {
	user, err := repo.GetUserByIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, err
	}

	if user.RefreshToken == nil || presented == "" {
		return nil, common.ErrInvalidRefreshToken
	}
	if subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(presented)) != 1 {
		return nil, common.ErrInvalidRefreshToken
	}
	if !user.HasValidRefreshToken(m.now()) {
		return nil, common.ErrInvalidRefreshToken
	}
	return user, nil
}

// Rotate swaps the validated token for a fresh one. It fails with
// ErrInvalidRefreshToken if another request rotated it first.
func (m *RefreshTokenManager) Rotate(ctx context.Context, repo users.Repository, user *models.User, old string) (string, error) {
	tok, err := m.Generate()
	if err != nil {
		return "", err
	}
	expiry := m.now().Add(m.validity)
	if err := repo.RotateRefreshToken(ctx, user.ID, old, tok, expiry); err != nil {
		return "", err
	}
	user.RefreshToken, user.RefreshTokenExpiry = &tok, &expiry
	return tok, nil
}
