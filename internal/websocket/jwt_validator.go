package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// ErrWorkspaceNotFound is returned when workspace resolution fails
var ErrWorkspaceNotFound = errors.New("workspace not found")

// WorkspaceResolver resolves an authenticated subject to its workspace,
// provisioning one on first contact.
type WorkspaceResolver interface {
	ResolveWorkspace(subject string) (workspaceID int32, err error)
}

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct{}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator validates Auth0 JWT tokens for WebSocket connections.
// Browsers cannot set the Authorization header on an upgrade request, so the
// token arrives as a query parameter and is validated here instead of by the
// HTTP middleware stack.
type Auth0JWTValidator struct {
	validator *validator.Validator
	resolver  WorkspaceResolver
}

// NewAuth0JWTValidator creates a new Auth0JWTValidator
func NewAuth0JWTValidator(domain, audience string, resolver WorkspaceResolver) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{
		validator: jwtValidator,
		resolver:  resolver,
	}, nil
}

// ValidateToken validates a JWT token and returns the associated workspace ID
func (v *Auth0JWTValidator) ValidateToken(token string) (workspaceID int32, err error) {
	ctx := context.Background()

	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	subject := validatedClaims.RegisteredClaims.Subject

	wsID, err := v.resolver.ResolveWorkspace(subject)
	if err != nil {
		return 0, ErrWorkspaceNotFound
	}

	return wsID, nil
}
