package middleware

import (
	"context"
	"go-food-ordering/models"
	"go-food-ordering/services"
	"go-food-ordering/utils"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// TokenCookie is the name of the session cookie
const TokenCookie = "token"

// UserResolver turns a session token into the user it belongs to
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (*models.User, error)
}

// Auth holds the authorization checks applied to routes
type Auth struct {
	Users UserResolver
}

// NewAuth creates the middleware set
func NewAuth(users UserResolver) *Auth {
	return &Auth{Users: users}
}

// Authenticated requires a valid token that resolves to an existing user and
// attaches that user to the request context
func (a *Auth) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			utils.RespondError(w, http.StatusUnauthorized, "Access denied. Token is missing.")
			return
		}
		user, err := a.Users.ResolveUser(r.Context(), token)
		if err != nil {
			if services.KindOf(err) == services.KindUpstream {
				utils.RespondError(w, http.StatusInternalServerError, "Internal server error.")
				return
			}
			utils.RespondError(w, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		// Attach user information to the request context
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly ensures that the user has admin privileges. It must run after
// Authenticated.
func (a *Auth) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Access denied. Token is missing.")
			return
		}
		if user.Role != models.RoleAdmin {
			utils.RespondError(w, http.StatusForbidden, "Access Denied! Admins only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenFromRequest reads the bearer header, then the session cookie. Other
// Authorization schemes are ignored. On a WebSocket upgrade the token query
// parameter is accepted as well.
func TokenFromRequest(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

// UserFromContext returns the user attached by Authenticated
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// CallerFromContext returns the authenticated caller
func CallerFromContext(ctx context.Context) (services.Caller, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return services.Caller{}, false
	}
	return services.Caller{ID: user.ID, Role: user.Role}, true
}
