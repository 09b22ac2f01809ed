package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AdamBeresnev/arena-manager/internal/config"
	"github.com/AdamBeresnev/arena-manager/internal/session"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
)

// Keys stored in the scs session.
const (
	SessionUserIDKey  = "userID"
	SessionArenaIDKey = "arenaID"
)

// SessionResolver turns a logged-in user into a session with arena and role.
type SessionResolver interface {
	ResolveSession(ctx context.Context, userID, preferredArena uuid.UUID) (session.Context, error)
}

func InitAuth(cfg *config.Config) {
	goth.UseProviders(
		discord.New(cfg.DiscordKey, cfg.DiscordSecret, cfg.DiscordCallbackURL, discord.ScopeIdentify, discord.ScopeEmail),
		google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.GoogleCallbackURL, "email", "profile"),
	)
}

// LoadSession builds the session context for every request. Anonymous
// requests carry an empty session and are rejected later by RequireAuth.
func LoadSession(sessionManager *scs.SessionManager, resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, err := uuid.Parse(sessionManager.GetString(ctx, SessionUserIDKey))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			// A bad arena id just falls back to the first membership
			arenaID, _ := uuid.Parse(sessionManager.GetString(ctx, SessionArenaIDKey))

			sess, err := resolver.ResolveSession(ctx, userID, arenaID)
			if err != nil {
				slog.Error("Failed to resolve session", "user_id", userID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithContext(ctx, sess)))
		})
	}
}

// LoadSessionReadOnly loads the scs session without buffering the response,
// for handlers that hijack the connection such as websocket upgrades.
// Changes made to the session are not saved.
func LoadSessionReadOnly(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if cookie, err := r.Cookie(sessionManager.Cookie.Name); err == nil {
				token = cookie.Value
			}

			ctx, err := sessionManager.Load(r.Context(), token)
			if err != nil {
				slog.Error("Failed to load session", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth sends anonymous API calls a 401 and browsers to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFrom(r.Context()).Authenticated() {
			if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/ws/") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFrom returns the request session, or an empty one for anonymous requests.
func SessionFrom(ctx context.Context) session.Context {
	sess, _ := session.FromContext(ctx)
	return sess
}
