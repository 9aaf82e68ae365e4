package middleware

import (
	"context"
	"errors"

	"github.com/dialog-app/dialog/internal/infrastructure/auth"
)

// ValidatorAdapter adapts auth.Validator to the middleware.TokenValidator
// interface.
type ValidatorAdapter struct {
	validator auth.Validator
}

// NewValidatorAdapter creates an adapter around a JWKS validator.
//
// Usage:
//
//	validator, _ := auth.NewValidator(config)
//	authConfig := middleware.AuthConfig{
//	    TokenValidator: middleware.NewValidatorAdapter(validator),
//	}
func NewValidatorAdapter(validator auth.Validator) *ValidatorAdapter {
	if validator == nil {
		panic("token validator is required")
	}
	return &ValidatorAdapter{validator: validator}
}

// ValidateToken validates a token and returns middleware.TokenClaims.
func (a *ValidatorAdapter) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := a.validator.Validate(ctx, token)
	if err != nil {
		return nil, a.mapError(err)
	}

	return &TokenClaims{
		UserID:    claims.Subject,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// mapError maps auth errors to middleware errors.
func (a *ValidatorAdapter) mapError(err error) error {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrMissingSubject),
		errors.Is(err, auth.ErrMissingUsername),
		errors.Is(err, auth.ErrInvalidIssuer),
		errors.Is(err, auth.ErrInvalidAudience):
		return ErrInvalidToken
	default:
		return errors.Join(ErrInvalidToken, err)
	}
}

// Close closes the underlying validator.
func (a *ValidatorAdapter) Close() error {
	return a.validator.Close()
}
