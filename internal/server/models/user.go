package models

import "time"

// User is a registered account. RefreshToken and RefreshTokenExpiry are
// either both set or both nil.
type User struct {
	ID                 string     `json:"id"`
	UserName           string     `json:"username"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	Role               string     `json:"role"`
	RefreshToken       *string    `json:"-"`
	RefreshTokenExpiry *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"-"`
}

// HasValidRefreshToken reports whether the user holds a refresh token that
// has not expired at now.
func (u *User) HasValidRefreshToken(now time.Time) bool {
	return u.RefreshToken != nil && u.RefreshTokenExpiry != nil && u.RefreshTokenExpiry.After(now)
}
