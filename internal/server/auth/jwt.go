// Package auth issues and verifies the server's credentials: argon2id
// password digests and HS512 access tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimName           = common.ClaimName
	ClaimNameIdentifier = common.ClaimNameIdentifier
	ClaimRole           = common.ClaimRole
)

// Claims carries the identity of an access token's bearer. Subject holds
// the username as well.
type Claims struct {
	jwt.RegisteredClaims
	Name   string `json:"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"`
	UserID string `json:"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"`
	Role   string `json:"http://schemas.microsoft.com/ws/2008/06/identity/claims/role"`
}

func (c *Claims) IsAdmin() bool {
	return c.Role == common.RoleAdmin
}

// TokenIssuer signs and verifies access tokens with a shared HMAC secret.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenIssuer(secret []byte, issuer, audience string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, issuer: issuer, audience: audience, ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) Issue(user *models.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("issue token: %w", common.ErrorUnauthorized)
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserName,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Name:   user.UserName,
		UserID: user.ID,
		Role:   user.Role,
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Parse checks signature, algorithm, issuer, audience and expiry.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
