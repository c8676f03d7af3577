// Package auth signs and verifies the service's JSON Web Tokens.
//
// Two token classes exist, access and refresh, each signed with its own
// HS256 secret so that a token of one class never verifies as the other.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Class selects the secret and default lifetime of a token.
type Class int

const (
	Access Class = iota
	Refresh
)

func (c Class) String() string {
	switch c {
	case Access:
		return "access"
	case Refresh:
		return "refresh"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Payload is the identity carried by both token classes.
type Payload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Claims are the registered JWT claims plus the payload.
type Claims struct {
	jwt.RegisteredClaims
	Payload
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Signer struct {
	secrets map[Class][]byte
	ttls    map[Class]time.Duration
	now     func() time.Time
}

// NewSigner validates cfg. Secrets must be non-empty and distinct.
func NewSigner(cfg Config) (*Signer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &Signer{
		secrets: map[Class][]byte{
			Access:  []byte(cfg.AccessSecret),
			Refresh: []byte(cfg.RefreshSecret),
		},
		ttls: map[Class]time.Duration{
			Access:  cfg.AccessTTL,
			Refresh: cfg.RefreshTTL,
		},
		now: time.Now,
	}, nil
}

// WithClock returns a copy of s that reads time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// TTL is the configured lifetime of class.
func (s *Signer) TTL(class Class) time.Duration {
	return s.ttls[class]
}

// Sign issues a token of the given class that expires ttl from now.
// Every token carries a random jti, so two tokens for the same payload
// minted within the same second still differ.
func (s *Signer) Sign(p Payload, class Class, ttl time.Duration) (string, error) {
	secret, ok := s.secrets[class]
	if !ok {
		return "", fmt.Errorf("unknown token class %s", class)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Payload: p,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Issue signs p with the configured lifetime of class.
func (s *Signer) Issue(p Payload, class Class) (string, error) {
	return s.Sign(p, class, s.TTL(class))
}

// Verify checks signature and expiry of token against the secret of class.
// It returns common.ErrTokenExpired only for a correctly signed token whose
// lifetime has passed and common.ErrInvalidToken for everything else.
func (s *Signer) Verify(token string, class Class) (*Payload, error) {
	secret, ok := s.secrets[class]
	if !ok || token == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !parsed.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return &Payload{UserID: claims.UserID, Email: claims.Email}, nil
}
