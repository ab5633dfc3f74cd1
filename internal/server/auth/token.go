package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenSettings is the immutable configuration of a TokenService. Now may be
// nil, in which case time.Now is used.
type TokenSettings struct {
	Secret     []byte
	DefaultTTL time.Duration
	Issuer     string
	Now        func() time.Time
}

// TokenService issues and validates HS256 bearer tokens whose subject is a
// username. It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	secret     []byte
	defaultTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewTokenService(s TokenSettings) (*TokenService, error) {
	if len(s.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if s.DefaultTTL <= 0 {
		return nil, fmt.Errorf("invalid default token ttl: %s", s.DefaultTTL)
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		secret:     append([]byte(nil), s.Secret...),
		defaultTTL: s.DefaultTTL,
		issuer:     s.Issuer,
		now:        now,
	}, nil
}

// Issue signs a token for subject valid for ttl; ttl <= 0 means the default.
func (t *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = t.defaultTTL
	}
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(t.secret)
}

// Validate returns the subject of a well-formed, correctly signed, unexpired
// token. Expiry yields common.ErrTokenExpired; every other failure yields
// common.ErrBadSignature.
func (t *TokenService) Validate(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrBadSignature
	}
	if !token.Valid || claims.Subject == "" {
		return "", common.ErrBadSignature
	}

	return claims.Subject, nil
}
