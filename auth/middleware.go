package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/cobrun/quote-engine/errors"
	"github.com/cobrun/quote-engine/logging"
)

// ServiceTokenHeader carries the shared token used by internal callers.
const ServiceTokenHeader = "X-Service-Token"

type contextKey string

const (
	claimsContextKey       contextKey = "claims"
	serviceTokenContextKey contextKey = "service_token"
)

// Middleware authenticates requests with either a valid service token or
// a Bearer JWT. A nil jwtManager disables authentication entirely, which
// is how local development runs.
func Middleware(jwtManager *JWTManager, serviceToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if jwtManager == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if serviceToken != "" {
				if svcToken := r.Header.Get(ServiceTokenHeader); svcToken != "" {
					if subtle.ConstantTimeCompare([]byte(svcToken), []byte(serviceToken)) == 1 {
						ctx := context.WithValue(r.Context(), serviceTokenContextKey, true)
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
					apperrors.WriteError(w, apperrors.Unauthorized("invalid service token"), "")
					return
				}
			}

			tokenString, ok := bearerToken(r)
			if !ok {
				apperrors.WriteError(w, apperrors.Unauthorized("missing or malformed authorization header"), "")
				return
			}

			claims, err := jwtManager.ValidateToken(tokenString)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					apperrors.WriteError(w, apperrors.Unauthorized("token expired"), "")
				} else {
					apperrors.WriteError(w, apperrors.Unauthorized("invalid token"), "")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

// RequireRole lets through service calls and users holding any of roles.
// It is a no-op when authentication is disabled.
func RequireRole(enabled bool, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsServiceCall(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}

			claims := GetClaims(r.Context())
			if claims == nil {
				apperrors.WriteError(w, apperrors.Unauthorized(""), "")
				return
			}

			for _, role := range roles {
				if claims.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			apperrors.WriteError(w, apperrors.Forbidden("insufficient permissions"), "")
		})
	}
}

// IsServiceCall checks if the request was authenticated via service token.
func IsServiceCall(ctx context.Context) bool {
	val, ok := ctx.Value(serviceTokenContextKey).(bool)
	return ok && val
}

// GetClaims retrieves claims from context.
func GetClaims(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey).(*Claims)
	return claims
}

// WithClaims adds claims to the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// Actor describes the authenticated caller for audit events.
func Actor(ctx context.Context) *logging.AuditActor {
	if IsServiceCall(ctx) {
		return &logging.AuditActor{Type: "service"}
	}
	if claims := GetClaims(ctx); claims != nil {
		actorType := claims.UserType
		if actorType == "" {
			actorType = "user"
		}
		return &logging.AuditActor{Type: actorType, ID: claims.UserID}
	}
	return &logging.AuditActor{Type: "anonymous"}
}
