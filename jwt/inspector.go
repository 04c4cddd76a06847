package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod names the algorithm used to verify access tokens.
type SigningMethod string

const (
	// MethodNone skips signature verification.
	MethodNone SigningMethod = ""
	// MethodHS256 verifies with a shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 verifies with an Ed25519 public key.
	MethodEd25519 SigningMethod = "ed25519"
)

// Token types found in the "type" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	// ErrMalformedToken is returned when a token cannot be decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrUnexpectedType is returned when a token carries a type claim other
	// than "access".
	ErrUnexpectedType = errors.New("unexpected token type")
)

// Config controls how an Inspector reads tokens.
type Config struct {
	SigningMethod SigningMethod
	// VerifyKey is the HS256 secret or the Ed25519 public key (raw or PEM).
	VerifyKey []byte
	Leeway    time.Duration
}

// Claims is the subset of the backend's access-token claims the console uses.
type Claims struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Inspector decodes access tokens. It is safe for concurrent use.
type Inspector struct {
	config    Config
	verifyKey interface{}
}

// NewInspector validates cfg and returns an Inspector.
func NewInspector(cfg Config) (*Inspector, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	in := &Inspector{config: cfg}
	switch cfg.SigningMethod {
	case MethodNone:
	case MethodHS256:
		if len(cfg.VerifyKey) == 0 {
			return nil, errors.New("hs256 requires verify key")
		}
		in.verifyKey = cfg.VerifyKey
	case MethodEd25519:
		key, err := parseEdPublicKey(cfg.VerifyKey)
		if err != nil {
			return nil, err
		}
		in.verifyKey = key
	default:
		return nil, errors.New("unsupported signing method")
	}
	return in, nil
}

// Verifies reports whether signatures are checked.
func (i *Inspector) Verifies() bool {
	return i.verifyKey != nil
}

// Inspect decodes tokenStr. Expired tokens are returned with their claims and
// no error: expiry is what callers want to learn.
func (i *Inspector) Inspect(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	if i.verifyKey == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	} else {
		options := []jwt.ParserOption{
			jwt.WithValidMethods([]string{i.method().Alg()}),
			jwt.WithoutClaimsValidation(),
		}
		parser := jwt.NewParser(options...)
		_, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != i.method().Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
			}
			return i.verifyKey, nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	if claims.Type != "" && claims.Type != TypeAccess {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedType, claims.Type)
	}
	return claims, nil
}

// ExpiresWithin reports whether tokenStr expires before now+window, allowing
// for the configured leeway. Tokens without an exp claim never expire; tokens
// that cannot be decoded are reported as expiring.
func (i *Inspector) ExpiresWithin(tokenStr string, window time.Duration, now time.Time) bool {
	claims, err := i.Inspect(tokenStr)
	if err != nil {
		return true
	}
	exp := claims.Expiry()
	if exp.IsZero() {
		return false
	}
	return !now.Add(window).Before(exp.Add(i.config.Leeway))
}

func (i *Inspector) method() jwt.SigningMethod {
	switch i.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
