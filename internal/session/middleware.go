package session

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// CookieName is the session cookie.
const CookieName = "navigator_session"

type contextKey struct{}

// WithID returns a context carrying the session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session id set by Middleware.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Middleware resolves the session cookie, starting a new session when the
// cookie is missing or expired, and stores the id in the request context.
func Middleware(store *Store, secure bool, log zerolog.Logger) func(http.Handler) http.Handler {
	log = log.With().Str("component", "session_middleware").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
				live, err := store.Touch(ctx, c.Value)
				if err != nil {
					log.Error().Err(err).Msg("Failed to refresh session")
					http.Error(w, "session storage unavailable", http.StatusServiceUnavailable)
					return
				}
				if live {
					setCookie(w, c.Value, store, secure)
					next.ServeHTTP(w, r.WithContext(WithID(ctx, c.Value)))
					return
				}
			}

			id, err := store.Create(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Failed to create session")
				http.Error(w, "session storage unavailable", http.StatusServiceUnavailable)
				return
			}
			setCookie(w, id, store, secure)
			next.ServeHTTP(w, r.WithContext(WithID(ctx, id)))
		})
	}
}

func setCookie(w http.ResponseWriter, id string, store *Store, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(store.TTL().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
