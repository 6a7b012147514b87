package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte(strings.Repeat("k", 64))

func alice() *models.User {
	return &models.User{ID: "3f1c2a9e-8c55-4c8e-9a57-0b8f0a2f6c11", UserName: "alice", Role: "User"}
}

func TestIssueAndParse_Success(t *testing.T) {
	t.Parallel()

	iss := NewTokenIssuer(secret, "workboard", "clients", 3*time.Minute)

	tok, err := iss.Issue(alice())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.UserID != alice().ID || claims.Name != "alice" || claims.Subject != "alice" || claims.Role != "User" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.IsAdmin() {
		t.Fatalf("User must not be admin")
	}
	if claims.Issuer != "workboard" || len(claims.Audience) != 1 || claims.Audience[0] != "clients" {
		t.Fatalf("iss/aud mismatch: %+v", claims.RegisteredClaims)
	}
}

func TestIssue_ClaimLayout(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	iss := NewTokenIssuer(secret, "i", "a", 3*time.Minute)
	iss.now = func() time.Time { return now }

	tok, err := iss.Issue(&models.User{ID: "id-1", UserName: "bob", Role: common.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("not a JWS: %q", tok)
	}

	header := map[string]any{}
	raw, _ := base64.RawURLEncoding.DecodeString(parts[0])
	if err := json.Unmarshal(raw, &header); err != nil {
		t.Fatalf("header: %v", err)
	}
	if header["alg"] != "HS512" {
		t.Fatalf("alg = %v", header["alg"])
	}

	payload := map[string]any{}
	raw, _ = base64.RawURLEncoding.DecodeString(parts[1])
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	want := map[string]any{
		"sub":               "bob",
		ClaimName:           "bob",
		ClaimNameIdentifier: "id-1",
		ClaimRole:           "Admin",
		"iss":               "i",
		"exp":               float64(now.Add(3 * time.Minute).Unix()),
	}
	for k, v := range want {
		if payload[k] != v {
			t.Errorf("claim %s = %v, want %v", k, payload[k], v)
		}
	}
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	iss := NewTokenIssuer(secret, "i", "a", -1*time.Second)
	tok, err := iss.Issue(alice())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = iss.Parse(tok)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	good := NewTokenIssuer(secret, "i", "a", time.Minute)
	tok, err := good.Issue(alice())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "i", Audience: jwt.ClaimStrings{"a"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		UserID: "x",
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name   string
		parser *TokenIssuer
		token  string
	}{
		{"wrong secret", NewTokenIssuer([]byte(strings.Repeat("z", 64)), "i", "a", time.Minute), tok},
		{"wrong issuer", NewTokenIssuer(secret, "other", "a", time.Minute), tok},
		{"wrong audience", NewTokenIssuer(secret, "i", "other", time.Minute), tok},
		{"wrong algorithm", good, hs256},
		{"malformed", good, "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parser.Parse(tt.token)
			if !errors.Is(err, common.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestIssue_RejectsAbsentUser(t *testing.T) {
	t.Parallel()

	iss := NewTokenIssuer(secret, "i", "a", time.Minute)
	if _, err := iss.Issue(nil); err == nil {
		t.Fatal("expected error for nil user")
	}
	if _, err := iss.Issue(&models.User{}); err == nil {
		t.Fatal("expected error for user without id")
	}
}
