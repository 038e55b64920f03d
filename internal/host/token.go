package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
)

// TokenIssuer is the "iss" claim on tokens minted by IssueToken.
const TokenIssuer = "remit"

type tokenKey struct{}

// WithToken returns a context carrying a bearer token for TokenAuthorizer.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// Token returns the bearer token attached to ctx, or "".
func Token(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// TokenAuthorizer authorizes an identity when the call carries an HS256 JWT
// signed with the shared secret, issued by TokenIssuer, unexpired, and whose
// subject equals the identity.
type TokenAuthorizer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenAuthorizer creates a TokenAuthorizer. The secret must be non-empty.
func NewTokenAuthorizer(secret []byte) (*TokenAuthorizer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token authorizer: secret is empty")
	}
	return &TokenAuthorizer{secret: secret, now: time.Now}, nil
}

// RequireAuth implements Authorizer.
func (a *TokenAuthorizer) RequireAuth(ctx context.Context, id remit.Address) error {
	raw := Token(ctx)
	if raw == "" {
		return fmt.Errorf("%w: no token presented for %s", ErrUnauthorized, id)
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject != string(id) {
		return fmt.Errorf("%w: token subject %q may not act as %s", ErrUnauthorized, claims.Subject, id)
	}
	return nil
}

// IssueToken mints an HS256 token allowing its bearer to act as id for ttl.
func IssueToken(secret []byte, id remit.Address, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("issue token: secret is empty")
	}
	if err := id.Validate(); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("issue token: ttl must be positive, got %s", ttl)
	}

	claims := jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Subject:   string(id),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}
