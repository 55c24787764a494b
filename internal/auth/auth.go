// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth verifies API credentials. Clients send "name:password"
// base64-encoded either as HTTP Basic auth or in the X-API-Auth header,
// plus a TOTP code in X-API-OTP when the account has a second factor.
package auth

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"metapress/internal/errors"
	"metapress/internal/models"
)

// Header names accepted in addition to Authorization.
const (
	HeaderAPIAuth = "X-API-Auth"
	HeaderAPIOTP  = "X-API-OTP"
)

// Credentials are the raw secrets presented with a request.
type Credentials struct {
	Name     string
	Password string
	OTP      string
}

// Principal identifies an authenticated caller.
type Principal struct {
	UserID int64  `json:"uid"`
	Name   string `json:"name"`
}

// FromRequest extracts credentials from Basic auth or X-API-Auth. The
// second return is false when neither header carries a usable pair.
func FromRequest(r *http.Request) (Credentials, bool) {
	c := Credentials{OTP: strings.TrimSpace(r.Header.Get(HeaderAPIOTP))}

	if name, pass, ok := r.BasicAuth(); ok {
		c.Name, c.Password = name, pass
		return c, name != ""
	}

	raw := strings.TrimSpace(r.Header.Get(HeaderAPIAuth))
	if raw == "" {
		return c, false
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return c, false
	}
	name, pass, ok := strings.Cut(string(decoded), ":")
	if !ok || name == "" {
		return c, false
	}
	c.Name, c.Password = name, pass
	return c, true
}

// UserFinder looks up API users by name. A missing user is (nil, nil).
type UserFinder interface {
	FindByName(ctx context.Context, name string) (*models.User, error)
}

// Authenticator checks credentials against stored users.
type Authenticator struct {
	users UserFinder
}

// New creates an Authenticator.
func New(users UserFinder) *Authenticator {
	return &Authenticator{users: users}
}

// dummyHash keeps the response time of unknown names close to that of a
// wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("metapress"), bcrypt.DefaultCost)

// Authenticate returns the principal for valid credentials. Invalid
// credentials give an Unauthorized error; a failed lookup gives a Storage
// error.
func (a *Authenticator) Authenticate(ctx context.Context, c Credentials) (*Principal, error) {
	u, err := a.users.FindByName(ctx, c.Name)
	if err != nil {
		slog.ErrorContext(ctx, "storage failure", "op", "find api user", "error", err)
		return nil, errors.Storage("find api user", 0, err)
	}
	if u == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(c.Password))
		return nil, errors.Unauthorized("invalid credentials")
	}
	if !CheckPassword(u.APIPasswordHash, c.Password) {
		return nil, errors.Unauthorized("invalid credentials")
	}
	if u.RequiresOTP() {
		if c.OTP == "" {
			return nil, errors.Unauthorized("one-time code required")
		}
		if !totp.Validate(c.OTP, *u.TOTPSecret) {
			return nil, errors.Unauthorized("invalid one-time code")
		}
	}
	return &Principal{UserID: u.ID, Name: u.Name}, nil
}

// HashPassword returns a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with a stored hash. Hashes starting
// with "$2" are bcrypt; anything else is a legacy hex md5 digest.
func CheckPassword(hash, password string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	sum := md5.Sum([]byte(password))
	want := strings.ToLower(strings.TrimSpace(hash))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(want)) == 1
}

// IsLegacyHash reports whether a stored hash should be upgraded to bcrypt.
func IsLegacyHash(hash string) bool {
	return !strings.HasPrefix(hash, "$2")
}

// GenerateTOTP creates a new TOTP key for an account.
func GenerateTOTP(issuer, account string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
}

// EnrollmentQR renders the key's otpauth URL as a PNG QR code.
func EnrollmentQR(key *otp.Key, size int) ([]byte, error) {
	return qrcode.Encode(key.URL(), qrcode.Medium, size)
}
