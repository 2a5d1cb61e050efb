// Package identity проверка внешних ID-токенов и собственные токены сессии.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const DefaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

var (
	ErrInvalidToken = errors.New("invalid id token")
	ErrExpiredToken = errors.New("expired id token")
)

// FirebaseVerifier проверяет ID-токены Firebase по публичным ключам Google
type FirebaseVerifier struct {
	projectID string
	keys      jwk.Set
	skew      time.Duration
}

// NewFirebaseVerifier ключи загружаются сразу и затем обновляются в фоне, пока жив ctx
func NewFirebaseVerifier(ctx context.Context, projectID, jwksURL string) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, errors.New("firebase project id is required")
	}
	if jwksURL == "" {
		jwksURL = DefaultJWKSURL
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("register jwks: %w", err)
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	return NewFirebaseVerifierWithKeys(projectID, jwk.NewCachedSet(cache, jwksURL)), nil
}

// NewFirebaseVerifierWithKeys верификатор с заранее известным набором ключей
func NewFirebaseVerifierWithKeys(projectID string, keys jwk.Set) *FirebaseVerifier {
	return &FirebaseVerifier{
		projectID: projectID,
		keys:      keys,
		skew:      30 * time.Second,
	}
}

// Verify возвращает uid пользователя (subject токена)
func (v *FirebaseVerifier) Verify(_ context.Context, idToken string) (string, error) {
	if idToken == "" {
		return "", ErrInvalidToken
	}

	token, err := jwt.Parse([]byte(idToken),
		jwt.WithKeySet(v.keys, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithAcceptableSkew(v.skew),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return "", fmt.Errorf("%w: %w", ErrExpiredToken, err)
		}
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if token.Subject() == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return token.Subject(), nil
}
