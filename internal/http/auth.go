package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kakeibo/internal/cache"
	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

type contextKey string

const userContextKey contextKey = "user"

// UserResolver resolves a bearer token to an account.
type UserResolver interface {
	GetUserByToken(ctx context.Context, token string) (core.User, error)
}

type authenticator struct {
	resolver UserResolver
	tokens   *cache.LRUCache[core.User]
}

func newAuthenticator(resolver UserResolver, ttl time.Duration) *authenticator {
	return &authenticator{
		resolver: resolver,
		tokens:   cache.NewLRUCache[core.User](1000, ttl),
	}
}

// middleware resolves the request's token, if any, and stores the user
// in the context. Requests without a valid token proceed anonymously;
// each handler decides whether that yields empty data or a 401.
func (a *authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		if u, found := a.tokens.Get(token); found {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
			return
		}

		u, err := a.resolver.GetUserByToken(r.Context(), token)
		if errors.Is(err, storage.ErrNotFound) {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Token lookup failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		a.tokens.Set(token, u)
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

// extractToken reads the session cookie or the Authorization header.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie("session"); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func withUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// userFrom returns the authenticated user, if any. The zero user (ID 0)
// means anonymous; read handlers render empty data for it.
func userFrom(ctx context.Context) core.User {
	if u, ok := ctx.Value(userContextKey).(core.User); ok {
		return u
	}
	return core.User{}
}
