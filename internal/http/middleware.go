package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kennedy-ak/hitech-store/internal/domain"
	"github.com/kennedy-ak/hitech-store/internal/service"
)

const cartTokenCookie = "cart_token"

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerMiddleware resolves who the request acts for. A valid bearer
// session wins; otherwise the anonymous cart token cookie is used and
// lazily issued on first contact.
func OwnerMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := domain.Owner{}

			if token := bearerToken(r); token != "" {
				if userID, err := auth.Authenticate(r.Context(), token); err == nil {
					owner.UserID = userID
				}
			}

			if !owner.Authenticated() {
				cookie, err := r.Cookie(cartTokenCookie)
				if err != nil || cookie.Value == "" {
					token := uuid.NewString()
					http.SetCookie(w, &http.Cookie{
						Name:     cartTokenCookie,
						Value:    token,
						Path:     "/",
						HttpOnly: true,
						MaxAge:   int((90 * 24 * time.Hour).Seconds()),
					})
					owner.CartToken = token
				} else {
					owner.CartToken = cookie.Value
				}
			}

			ctx := context.WithValue(r.Context(), "owner", owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests whose owner is not an authenticated user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := getOwnerFromContext(r.Context())
		if !owner.Authenticated() {
			respondError(w, http.StatusUnauthorized, "unauthorized", "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func getOwnerFromContext(ctx context.Context) domain.Owner {
	if owner, ok := ctx.Value("owner").(domain.Owner); ok {
		return owner
	}
	return domain.Owner{}
}

func getUserIDFromContext(ctx context.Context) int64 {
	return getOwnerFromContext(ctx).UserID
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value("request_id").(string); ok {
		return requestID
	}
	return ""
}
