package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"

	"github.com/edvin/wppanel/internal/crypto"
	"github.com/edvin/wppanel/internal/model"
	"github.com/edvin/wppanel/internal/platform"
)

// ErrInvalidCredentials is returned by Login for a bad username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialVerifier checks an admin username and password.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) bool
}

// StaticVerifier compares against a plaintext username and password.
type StaticVerifier struct {
	Username string
	Password string
}

func (v StaticVerifier) Verify(_ context.Context, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.Password)) == 1
	return userOK && passOK && v.Password != ""
}

// HashVerifier compares against an argon2id password hash.
type HashVerifier struct {
	Username string
	Hash     string
}

func (v HashVerifier) Verify(_ context.Context, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.Username)) == 1
	return crypto.VerifyPassword(password, v.Hash) && userOK
}

// NewCredentialVerifier prefers a password hash over a plaintext password.
func NewCredentialVerifier(username, password, hash string) CredentialVerifier {
	if hash != "" {
		return HashVerifier{Username: username, Hash: hash}
	}
	return StaticVerifier{Username: username, Password: password}
}

// AuthConfig configures token signing.
type AuthConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Token is an issued session token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService issues and validates HS256 session tokens. Revoked token
// IDs are remembered in memory until the token would have expired.
type AuthService struct {
	verifier CredentialVerifier
	secret   []byte
	issuer   string
	ttl      time.Duration
	revoked  *cache.Cache
	now      func() time.Time
}

func NewAuthService(verifier CredentialVerifier, cfg AuthConfig) *AuthService {
	return &AuthService{
		verifier: verifier,
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		ttl:      cfg.TTL,
		revoked:  cache.New(cfg.TTL, 10*time.Minute),
		now:      time.Now,
	}
}

// Login verifies the admin credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Token, error) {
	if !s.verifier.Verify(ctx, username, password) {
		return nil, ErrInvalidCredentials
	}
	return s.IssueToken(username)
}

// IssueToken signs a token for subject.
func (s *AuthService) IssueToken(subject string) (*Token, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := model.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        platform.NewID(),
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: exp}, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *AuthService) ValidateToken(tokenStr string) (*model.Claims, error) {
	claims := &model.Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, errors.New("invalid token")
	}
	if _, revoked := s.revoked.Get(claims.ID); revoked {
		return nil, errors.New("token revoked")
	}
	return claims, nil
}

// Revoke invalidates the token with the given claims until it expires.
func (s *AuthService) Revoke(claims *model.Claims) {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	remaining := claims.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return
	}
	s.revoked.Set(claims.ID, struct{}{}, remaining)
}
