// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

// User is an API account. Passwords are stored as bcrypt hashes; rows
// migrated from older installs may still hold a hex md5 digest.
type User struct {
	ID              int64   `json:"uid"`
	Name            string  `json:"name"`
	APIPasswordHash string  `json:"-"`
	TOTPSecret      *string `json:"-"` // Nullable; set during TOTP enrollment
	TOTPEnabled     bool    `json:"totp_enabled"`
	Created         int64   `json:"created"`
}

// RequiresOTP returns true if a one-time code must accompany the password.
func (u *User) RequiresOTP() bool {
	return u.TOTPEnabled && u.TOTPSecret != nil && *u.TOTPSecret != ""
}
