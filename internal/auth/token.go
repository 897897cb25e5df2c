// Package auth signs and verifies the bearer tokens used by staff and by
// clients on the portal.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
	RoleClient = "client"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Subject uint
	Role    string
	Expires time.Time
}

type Issuer struct {
	secret    []byte
	staffTTL  time.Duration
	portalTTL time.Duration
	now       func() time.Time
}

func NewIssuer(secret string, staffTTL, portalTTL time.Duration) *Issuer {
	return &Issuer{
		secret:    []byte(secret),
		staffTTL:  staffTTL,
		portalTTL: portalTTL,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for iat and exp.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Staff(userID uint, role string) (string, error) {
	return i.sign(userID, role, i.staffTTL)
}

// Portal mints the client's portal token; it is delivered with the
// onboarding invite.
func (i *Issuer) Portal(clientID uint) (string, time.Time, error) {
	exp := i.now().Add(i.portalTTL)
	tok, err := i.sign(clientID, RoleClient, i.portalTTL)
	return tok, exp, err
}

func (i *Issuer) sign(sub uint, role string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) Parse(raw string) (Claims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, ok1 := mc["sub"].(float64)
	role, ok2 := mc["role"].(string)
	if !ok1 || !ok2 || sub <= 0 {
		return Claims{}, fmt.Errorf("%w: bad payload", ErrInvalidToken)
	}

	out := Claims{Subject: uint(sub), Role: role}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.Expires = exp.Time
	}
	return out, nil
}
