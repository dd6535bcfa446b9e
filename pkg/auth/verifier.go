package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// New creates the verifier selected by cfg.Provider. The none provider
// returns a nil Verifier, leaving every request anonymous. The oidc provider
// fetches the issuer's discovery document.
func New(ctx context.Context, cfg *Config) (Verifier, error) {
	switch cfg.Provider {
	case ProviderNone:
		return nil, nil
	case ProviderHMAC:
		return NewHMAC([]byte(cfg.Secret), cfg.Issuer), nil
	case ProviderOIDC:
		return NewOIDC(ctx, cfg.Issuer, cfg.ClientID)
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}

// Claims are the token claims mapped onto an Identity. Role is accepted for
// tokens that carry a single role.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) identity(subject string) *Identity {
	roles := append([]string{}, c.Roles...)
	if c.Role != "" {
		roles = append(roles, c.Role)
	}
	return &Identity{Subject: subject, Email: c.Email, Roles: roles}
}

type hmacVerifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

// NewHMAC verifies HS256 tokens signed with secret. A non-empty issuer must
// match the iss claim.
func NewHMAC(secret []byte, issuer string) Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &hmacVerifier{secret: secret, opts: opts}
}

func (v *hmacVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return claims.identity(claims.Subject), nil
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDC verifies ID tokens issued by issuer for clientID.
func NewOIDC(ctx context.Context, issuer, clientID string) (Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery %s: %w", issuer, err)
	}
	return &oidcVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %w", ErrUnauthorized, err)
	}
	return claims.identity(idToken.Subject), nil
}
