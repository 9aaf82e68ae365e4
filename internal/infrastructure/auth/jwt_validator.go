// Package auth validates bearer tokens issued by the external auth service.
// Token issuance (login, refresh) is not this service's concern; only offline
// validation against the issuer's JWKS happens here.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWT validation errors.
var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidClaims   = errors.New("invalid claims")
	ErrMissingSubject  = errors.New("missing subject claim")
	ErrMissingUsername = errors.New("missing username claim")
	ErrTokenExpired    = errors.New("token expired")
	ErrInvalidIssuer   = errors.New("invalid issuer")
	ErrInvalidAudience = errors.New("invalid audience")
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

// Claims are the validated token claims messaging cares about.
type Claims struct {
	// Subject is the stable user id from the auth provider.
	Subject string

	// Username is the preferred_username claim; every messaging call is
	// scoped to it.
	Username string

	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Validator validates bearer tokens.
type Validator interface {
	// Validate validates the token and returns its claims.
	Validate(ctx context.Context, tokenString string) (*Claims, error)

	// Close stops background JWKS refresh.
	Close() error
}

// ValidatorConfig contains configuration for the JWKS validator.
type ValidatorConfig struct {
	// JWKSURL is the issuer's key set endpoint.
	JWKSURL string

	// Issuer is the expected iss claim.
	Issuer string

	// Audience is the expected aud claim; empty disables the check.
	Audience string

	Leeway          time.Duration // clock skew tolerance
	RefreshInterval time.Duration // JWKS refresh interval
	Logger          *slog.Logger
}

// Default configuration values.
const (
	DefaultLeeway          = 30 * time.Second
	DefaultRefreshInterval = 1 * time.Hour
)

// jwksValidator implements Validator using a cached JWKS for offline validation.
type jwksValidator struct {
	jwks   keyfunc.Keyfunc
	config ValidatorConfig
	logger *slog.Logger
	cancel context.CancelFunc
}

// NewValidator creates a JWT validator with background JWKS refresh.
func NewValidator(config ValidatorConfig) (Validator, error) {
	if config.JWKSURL == "" {
		return nil, fmt.Errorf("%w: JWKSURL is required", ErrJWKSFetchFailed)
	}

	if config.Leeway == 0 {
		config.Leeway = DefaultLeeway
	}
	if config.RefreshInterval == 0 {
		config.RefreshInterval = DefaultRefreshInterval
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initializing JWT validator",
		slog.String("jwks_url", config.JWKSURL),
		slog.Duration("refresh_interval", config.RefreshInterval),
	)

	ctx, cancel := context.WithCancel(context.Background())

	storageOpts := jwkset.HTTPClientStorageOptions{
		Ctx:             ctx,
		RefreshInterval: config.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("failed to refresh JWKS", slog.Any("error", err))
		},
	}

	storage, err := jwkset.NewStorageFromHTTP(config.JWKSURL, storageOpts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	jwks, err := keyfunc.New(keyfunc.Options{
		Ctx:     ctx,
		Storage: storage,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	return &jwksValidator{
		jwks:   jwks,
		config: config,
		logger: logger,
		cancel: cancel,
	}, nil
}

// Validate validates the token and returns its claims.
func (v *jwksValidator) Validate(_ context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithLeeway(v.config.Leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if v.config.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.config.Audience))
	}

	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		if errors.Is(err, jwt.ErrTokenMalformed) || errors.Is(err, jwt.ErrTokenUnverifiable) ||
			errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		if errors.Is(err, jwt.ErrTokenInvalidIssuer) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidIssuer, err)
		}
		if errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAudience, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return extractClaims(claims)
}

// extractClaims extracts Claims from raw JWT claims.
func extractClaims(claims jwt.MapClaims) (*Claims, error) {
	c := &Claims{}

	c.Subject, _ = claims["sub"].(string)
	if c.Subject == "" {
		return nil, ErrMissingSubject
	}

	c.Username, _ = claims["preferred_username"].(string)
	if c.Username == "" {
		// some issuers put the username in "username"
		c.Username, _ = claims["username"].(string)
	}
	if c.Username == "" {
		return nil, ErrMissingUsername
	}

	if iat, ok := claims["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := claims["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return c, nil
}

// Close stops background JWKS refresh.
func (v *jwksValidator) Close() error {
	v.logger.Info("closing JWT validator")
	if v.cancel != nil {
		v.cancel()
	}
	return nil
}
