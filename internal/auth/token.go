// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrNoSecret     = errors.New("jwt secret not configured")
)

const DefaultTTL = 24 * time.Hour

// Claims is the payload carried by a token.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// Valid reports whether a token expiring at expiry is still usable at now.
func Valid(now, expiry time.Time) bool {
	return now.Before(expiry)
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for userID valid for the issuer's TTL.
func (i *Issuer) Issue(userID string) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	exp := i.now().Add(i.ttl).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks the signature and then the expiry. The library's own time
// checks are disabled so Valid is the only expiry rule.
func (i *Issuer) Verify(raw string) (Claims, error) {
	if len(i.secret) == 0 {
		return Claims{}, ErrNoSecret
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	claimed, _ := mc["id"].(string)
	parsed, err := uuid.Parse(claimed)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	id := parsed.String()
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, ErrInvalidToken
	}
	c := Claims{UserID: id, ExpiresAt: exp.Time}
	if !Valid(i.now(), c.ExpiresAt) {
		return Claims{}, ErrTokenExpired
	}
	return c, nil
}
