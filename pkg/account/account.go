// Package account resolves the stable identifier of the signed-in account.
// Synced stores use it only to namespace their data.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrSignedOut means no account could be determined.
	ErrSignedOut = errors.New("account: not signed in")
	// ErrBadAuthorization means the Authorization header is malformed.
	ErrBadAuthorization = errors.New("account: bad authorization header")
)

// Config carries the account settings read from configuration.
type Config struct {
	// ID is a fixed account id, used as-is when set.
	ID string
	// Token is a bearer JWT whose subject names the account.
	Token string
	// Secret verifies HS256 tokens.
	Secret string
	// JWKSURL verifies RS256 tokens against a remote key set.
	JWKSURL  string
	Audience string
	Issuer   string
}

// Verifies reports whether tokens can be checked with these settings.
func (c Config) Verifies() bool {
	return c.Secret != "" || c.JWKSURL != ""
}

// Verifier checks bearer tokens and returns their subject.
type Verifier struct {
	jwks     *keyfunc.JWKS
	secret   []byte
	audience string
	issuer   string
	parser   *jwt.Parser
	now      func() time.Time
}

// NewVerifier builds a verifier for HS256 when a secret is configured,
// otherwise for RS256 against the JWKS URL.
func NewVerifier(cfg Config) (*Verifier, error) {
	v := &Verifier{audience: cfg.Audience, issuer: cfg.Issuer, now: time.Now}
	switch {
	case cfg.Secret != "":
		v.secret = []byte(cfg.Secret)
		v.parser = jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.WithError(err).Warn("refresh jwks")
			},
		})
		if err != nil {
			return nil, fmt.Errorf("account: fetch jwks: %w", err)
		}
		v.jwks = jwks
		v.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}), jwt.WithoutClaimsValidation())
	default:
		return nil, errors.New("account: a secret or jwks url is required to verify tokens")
	}
	return v, nil
}

// Close stops background key refresh.
func (v *Verifier) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Subject verifies token and returns its "sub" claim.
func (v *Verifier) Subject(token string) (string, error) {
	if token == "" {
		return "", ErrSignedOut
	}
	parsed, err := v.parser.Parse(token, v.key)
	if err != nil {
		return "", fmt.Errorf("account: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("account: invalid claims")
	}

	// Allow a minute of clock skew.
	now := v.now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, false) {
		return "", errors.New("account: token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return "", errors.New("account: token not valid yet")
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return "", errors.New("account: invalid audience")
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return "", errors.New("account: invalid issuer")
	}

	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return "", errors.New("account: missing sub")
	}
	return sub, nil
}

func (v *Verifier) key(t *jwt.Token) (interface{}, error) {
	if v.secret != nil {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	}
	return v.jwks.Keyfunc(t)
}

// FromBearerHeader verifies the token in an Authorization header value.
func (v *Verifier) FromBearerHeader(h string) (string, error) {
	token, err := BearerToken(h)
	if err != nil {
		return "", err
	}
	return v.Subject(token)
}

// BearerToken extracts the token from "Bearer <token>".
func BearerToken(h string) (string, error) {
	h = strings.TrimSpace(h)
	if h == "" {
		return "", ErrSignedOut
	}
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", ErrBadAuthorization
	}
	token := strings.TrimSpace(h[len(prefix):])
	if strings.Count(token, ".") != 2 {
		return "", ErrBadAuthorization
	}
	return token, nil
}

// Resolve determines the account for a non-interactive session: a configured
// id wins, otherwise the configured token is verified.
func Resolve(_ context.Context, cfg Config) (string, error) {
	if id := strings.TrimSpace(cfg.ID); id != "" {
		return id, nil
	}
	if cfg.Token == "" {
		return "", ErrSignedOut
	}
	v, err := NewVerifier(cfg)
	if err != nil {
		return "", err
	}
	defer v.Close()
	return v.Subject(cfg.Token)
}

// Issue signs an HS256 token for subject. It exists for self-hosted setups
// that share a secret between the server and its clients.
func Issue(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" || subject == "" {
		return "", errors.New("account: secret and subject are required")
	}
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
