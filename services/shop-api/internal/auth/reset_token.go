package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// ResetClaims identifies the account a password reset link was issued for.
type ResetClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type ResetTokens struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (r *ResetTokens) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *ResetTokens) Generate(userID, email string) (string, time.Time, error) {
	now := r.now()
	expires := now.Add(r.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: email,
	})

	s, err := token.SignedString(r.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expires, nil
}

// Parse verifies signature and expiry and returns the claims.
func (r *ResetTokens) Parse(tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return r.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
