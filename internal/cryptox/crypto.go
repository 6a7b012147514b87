// Package cryptox wraps the argon2id key derivation used for password
// digests and its PHC string encoding.
package cryptox

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedDigest = errors.New("malformed argon2id digest")

// Argon2Params are the tunable argon2id inputs. Memory is in KiB.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

// DefaultArgon2Params: 1 pass, 64 MiB, 4 lanes, 32-byte key.
var DefaultArgon2Params = Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32}

func DeriveKey(password []byte, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

var b64 = base64.RawStdEncoding

// EncodeArgon2id renders a digest as
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// with salt and key in unpadded standard base64.
func EncodeArgon2id(key, salt []byte, p Argon2Params) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads, b64.EncodeToString(salt), b64.EncodeToString(key))
}

// DecodeArgon2id parses a digest produced by EncodeArgon2id.
func DecodeArgon2id(digest string) (key, salt []byte, p Argon2Params, err error) {
	parts := strings.Split(digest, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, p, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, p, ErrMalformedDigest
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return nil, nil, p, ErrMalformedDigest
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return nil, nil, p, ErrMalformedDigest
	}

	if salt, err = b64.DecodeString(parts[4]); err != nil || len(salt) == 0 {
		return nil, nil, p, ErrMalformedDigest
	}
	if key, err = b64.DecodeString(parts[5]); err != nil || len(key) == 0 {
		return nil, nil, p, ErrMalformedDigest
	}
	p.KeyLen = uint32(len(key))
	return key, salt, p, nil
}
