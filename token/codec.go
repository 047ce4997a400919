package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrEmpty is returned when the token string is blank
	ErrEmpty = errors.New("token is empty")

	// ErrMalformed is returned when the token is not three valid base64url segments
	ErrMalformed = errors.New("token is malformed")

	// ErrBadSignature is returned on signature mismatch or an unexpected algorithm
	ErrBadSignature = errors.New("token signature is invalid")

	// ErrExpired is returned when the token is past its expiry
	ErrExpired = errors.New("token expired")

	// ErrInvalidPrincipal is returned when a token is requested for an empty subject
	ErrInvalidPrincipal = errors.New("invalid principal")
)

// signingMethod is the only algorithm the codec issues or accepts
var signingMethod = jwt.SigningMethodHS512

// Codec issues and verifies HMAC-signed identity tokens.
// It holds only immutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
	parser *jwt.Parser
}

// Option customizes a Codec
type Option func(*Codec)

// WithClock overrides the time source used for issuing and validating tokens
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a Codec bound to the shared signing secret and token lifetime
func NewCodec(secret []byte, ttl time.Duration, logger *zap.Logger, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token signing secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	// claims carry whole seconds; a fractional ttl would truncate exp
	if ttl%jwt.TimePrecision != 0 {
		return nil, fmt.Errorf("token ttl must be a whole number of seconds, got %s", ttl)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	c := &Codec{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)

	return c, nil
}

// TTL returns the configured token lifetime
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue builds and signs a token for the given subject
func (c *Codec) Issue(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrInvalidPrincipal
	}

	issuedAt := c.now().Truncate(jwt.TimePrecision)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and returns its subject.
// Expiry is evaluated against the clock on every call.
func (c *Codec) Decode(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", ErrEmpty
	}

	claims := &jwt.RegisteredClaims{}
	_, err := c.parser.ParseWithClaims(tokenString, claims, c.keyFunc)
	if err != nil {
		return "", classify(err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	return claims.Subject, nil
}

// IsValid reports whether the token decodes successfully.
// Every failure kind collapses to false; the kind is only logged.
func (c *Codec) IsValid(tokenString string) (valid bool) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("token validation panicked", zap.Any("panic", p))
			valid = false
		}
	}()

	if _, err := c.Decode(tokenString); err != nil {
		switch {
		case errors.Is(err, ErrExpired):
			c.logger.Debug("token rejected", zap.String("reason", "expired"))
		case errors.Is(err, ErrEmpty):
			c.logger.Debug("token rejected", zap.String("reason", "empty"))
		case errors.Is(err, ErrBadSignature):
			c.logger.Warn("token rejected", zap.String("reason", "bad_signature"), zap.Error(err))
		default:
			c.logger.Warn("token rejected", zap.String("reason", "malformed"), zap.Error(err))
		}
		return false
	}
	return true
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}

// classify maps parser errors onto the codec's sentinel errors
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
