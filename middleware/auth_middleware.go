package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/upb/studio-auth/internal/observability"
	"github.com/upb/studio-auth/services"
	"github.com/upb/studio-auth/utils"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// TokenCodec validates and decodes session tokens
type TokenCodec interface {
	IsValid(token string) bool
	Decode(token string) (string, error)
}

// PrincipalResolver loads the principal for a token subject
type PrincipalResolver interface {
	Resolve(ctx context.Context, identity string) (*services.Principal, error)
}

// AuthReason says how a request's authentication attempt ended
type AuthReason string

const (
	ReasonNoCredentials       AuthReason = "no_credentials"
	ReasonInvalidToken        AuthReason = "invalid_token"
	ReasonDecodeFailed        AuthReason = "decode_failed"
	ReasonPrincipalUnresolved AuthReason = "principal_unresolved"
	ReasonAuthenticated       AuthReason = "authenticated"
)

// AuthOutcome is the result of Authenticate. Principal is set only when
// Reason is ReasonAuthenticated.
type AuthOutcome struct {
	Principal *services.Principal
	Reason    AuthReason
	Err       error
	Panicked  bool
}

// Authenticated reports whether a principal was established
func (o AuthOutcome) Authenticated() bool {
	return o.Reason == ReasonAuthenticated && o.Principal != nil
}

// AuthMiddleware establishes the request principal from a bearer token
type AuthMiddleware struct {
	codec    TokenCodec
	resolver PrincipalResolver
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(codec TokenCodec, resolver PrincipalResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		codec:    codec,
		resolver: resolver,
		logger:   logger,
	}
}

// Authenticate extracts, validates and decodes the bearer token of r and
// resolves its subject. It never panics and never writes a response.
func (m *AuthMiddleware) Authenticate(r *http.Request) (outcome AuthOutcome) {
	reason := ReasonNoCredentials
	defer func() {
		if p := recover(); p != nil {
			outcome = AuthOutcome{Reason: reason, Err: fmt.Errorf("panic: %v", p), Panicked: true}
		}
	}()

	token, ok := extractBearerToken(r)
	if !ok {
		return AuthOutcome{Reason: ReasonNoCredentials}
	}

	reason = ReasonInvalidToken
	if !m.codec.IsValid(token) {
		return AuthOutcome{Reason: ReasonInvalidToken}
	}

	reason = ReasonDecodeFailed
	subject, err := m.codec.Decode(token)
	if err != nil {
		return AuthOutcome{Reason: ReasonDecodeFailed, Err: err}
	}

	reason = ReasonPrincipalUnresolved
	principal, err := m.resolver.Resolve(r.Context(), subject)
	if err != nil {
		return AuthOutcome{Reason: ReasonPrincipalUnresolved, Err: err}
	}
	if principal == nil {
		return AuthOutcome{Reason: ReasonPrincipalUnresolved, Err: services.ErrUserNotFound}
	}

	return AuthOutcome{Principal: principal, Reason: ReasonAuthenticated}
}

// Intercept runs Authenticate once per request, stores the principal on the
// request context when authentication succeeded and always calls next.
func (m *AuthMiddleware) Intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, done := CurrentPrincipal(r.Context()); done {
			next.ServeHTTP(w, r)
			return
		}

		outcome := m.Authenticate(r)
		m.logOutcome(r, outcome)

		if outcome.Authenticated() {
			r = r.WithContext(WithPrincipal(r.Context(), outcome.Principal))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests that carry no principal with 401.
// Mount it after Intercept.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentPrincipal(r.Context()); !ok {
			m.logger.Debug("rejecting unauthenticated request",
				append(observability.RequestFields(r.Context()), zap.String("path", r.URL.Path))...)
			_ = utils.WriteUnauthorized(w, "Full authentication is required to access this resource")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) logOutcome(r *http.Request, outcome AuthOutcome) {
	fields := append(observability.RequestFields(r.Context()),
		zap.String("reason", string(outcome.Reason)),
		zap.String("path", r.URL.Path),
	)
	if outcome.Err != nil {
		fields = append(fields, zap.Error(outcome.Err))
	}

	switch {
	case outcome.Panicked:
		m.logger.Error("authentication aborted", fields...)
	case outcome.Authenticated():
		m.logger.Debug("request authenticated", append(fields, zap.Int64("user_id", outcome.Principal.ID))...)
	case outcome.Reason == ReasonNoCredentials:
		m.logger.Debug("anonymous request", fields...)
	default:
		m.logger.Warn("cannot set user authentication", fields...)
	}
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>"
// header. The scheme is case-sensitive and the token may not start with whitespace.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	token := header[len(bearerPrefix):]
	if token == "" {
		return "", false
	}
	if first, _ := utf8.DecodeRuneInString(token); unicode.IsSpace(first) {
		return "", false
	}
	return token, true
}
