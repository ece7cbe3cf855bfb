package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"focuslink/pkg/auth"
	pkgerrors "focuslink/pkg/errors"
)

// Authenticate validates the bearer token, applies the per-user rate limit
// and stores the caller in the request context.
func Authenticate(validator *auth.JWTValidator, limiter *auth.KeyedLimiter, errs *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing or malformed authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(tokenMessage(err)))
				return
			}

			if limiter != nil && !limiter.Allow(claims.Subject) {
				retry := int(limiter.RetryAfter().Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				errs.Handle(w, r, pkgerrors.NewRateLimitError("Rate limit exceeded"))
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.Subject,
				Email:  claims.Email,
				Name:   claims.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "Invalid token signature"
	case errors.Is(err, auth.ErrInvalidClaims):
		return "Invalid token claims"
	default:
		return "Invalid token"
	}
}
