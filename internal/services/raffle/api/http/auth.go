package http

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/School-of-Solana/program-thelotux/internal/platform/errors"
	"github.com/School-of-Solana/program-thelotux/internal/platform/requestctx"
)

// Env variable names for bearer token verification.
const (
	EnvAuthIssuer    = "THELOTUX_AUTH_ISSUER"
	EnvAuthAudience  = "THELOTUX_AUTH_AUDIENCE"
	EnvAuthPublicKey = "THELOTUX_AUTH_PUBLIC_KEY"
)

// authEnv holds raw env values before post-parse validation.
type authEnv struct {
	Issuer    string `env:"THELOTUX_AUTH_ISSUER"`
	Audience  string `env:"THELOTUX_AUTH_AUDIENCE"`
	PublicKey string `env:"THELOTUX_AUTH_PUBLIC_KEY"`
}

// AuthConfig defines how bearer tokens are verified.
type AuthConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// LoadAuthConfigFromEnv reads bearer token verification configuration.
func LoadAuthConfigFromEnv(now func() time.Time) (AuthConfig, error) {
	var raw authEnv
	if err := env.Parse(&raw); err != nil {
		return AuthConfig{}, fmt.Errorf("parse auth env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return AuthConfig{}, fmt.Errorf("%s is required", EnvAuthIssuer)
	}
	if audience == "" {
		return AuthConfig{}, fmt.Errorf("%s is required", EnvAuthAudience)
	}
	if publicKey == "" {
		return AuthConfig{}, fmt.Errorf("%s is required", EnvAuthPublicKey)
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return AuthConfig{}, fmt.Errorf("decode auth public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return AuthConfig{}, fmt.Errorf("auth public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return AuthConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// requireAuth verifies the bearer token on every request and stores the
// token subject as the caller identity for handlers.
func requireAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, err)
				return
			}
			caller, err := authenticateToken(token, cfg)
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithCaller(r.Context(), caller)))
		})
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apperrors.New(apperrors.CodeAuthTokenInvalid, "authorization header is required")
	}
	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apperrors.New(apperrors.CodeAuthTokenInvalid, "authorization header must carry a bearer token")
	}
	return token, nil
}

// authenticateToken verifies a bearer token and returns the caller identity
// carried in the subject claim.
func authenticateToken(token string, cfg AuthConfig) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperrors.New(apperrors.CodeAuthTokenInvalid, "bearer token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return "", errors.New("token verifier is not configured")
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return "", apperrors.WithMetadata(
			apperrors.CodeAuthTokenInvalid,
			"token issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return "", apperrors.WithMetadata(
			apperrors.CodeAuthTokenInvalid,
			"token audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}
	if parsed.ExpiresAt == nil {
		return "", apperrors.New(apperrors.CodeAuthTokenInvalid, "token exp is required")
	}

	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return "", apperrors.New(apperrors.CodeAuthTokenExpired, "token is expired")
	}
	if parsed.NotBefore != nil {
		nbf := parsed.NotBefore.Time.UTC()
		if now.Before(nbf) {
			return "", apperrors.New(apperrors.CodeAuthTokenInvalid, "token not active yet")
		}
	}

	subject := strings.TrimSpace(parsed.Subject)
	if subject == "" {
		return "", apperrors.New(apperrors.CodeAuthTokenInvalid, "token subject is required")
	}
	return subject, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeAuthTokenInvalid, "token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeAuthTokenInvalid, "token alg is invalid")
	}
	return apperrors.New(apperrors.CodeAuthTokenInvalid, "token is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
