package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/cryptox"
	"golang.org/x/crypto/bcrypt"
)

const saltSize = 16

// PasswordHasher produces and checks salted argon2id digests. Verify also
// accepts bcrypt digests.
type PasswordHasher struct {
	params cryptox.Argon2Params
	// dummy is verified against when there is no stored digest so the
	// caller spends the same time either way.
	dummy string
}

func NewPasswordHasher(params cryptox.Argon2Params) *PasswordHasher {
	h := &PasswordHasher{params: params}
	salt := make([]byte, saltSize)
	h.dummy = cryptox.EncodeArgon2id(cryptox.DeriveKey([]byte("dummy"), salt, params), salt, params)
	return h
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := common.GenerateRandByteArray(saltSize)
	if salt == nil {
		return "", fmt.Errorf("generate salt: %w", common.ErrorInternal)
	}
	key := cryptox.DeriveKey([]byte(password), salt, h.params)
	return cryptox.EncodeArgon2id(key, salt, h.params), nil
}

// Verify reports whether password matches digest. A digest it cannot
// parse never matches.
func (h *PasswordHasher) Verify(digest, password string) bool {
	switch {
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	}

	key, salt, p, err := cryptox.DecodeArgon2id(digest)
	if err != nil {
		return false
	}
	other := cryptox.DeriveKey([]byte(password), salt, p)
	return subtle.ConstantTimeCompare(key, other) == 1
}

// VerifyDummy burns the cost of one Verify call and always fails.
func (h *PasswordHasher) VerifyDummy(password string) bool {
	h.Verify(h.dummy, password)
	return false
}
