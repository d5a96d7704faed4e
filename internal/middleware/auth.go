package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"depot-backend/internal/auth"
	"depot-backend/internal/cache"
	"depot-backend/internal/models"
	"depot-backend/pkg/utils"
)

type contextKey string

const (
	userKey    contextKey = "user"
	sessionKey contextKey = "session"
)

// SessionCookie carries the token for browser page requests
const SessionCookie = "depot_session"

// UserLookup loads the current state of a user; role and active flag are
// always read from here, never from the token.
type UserLookup interface {
	Get(ctx context.Context, id int) (*models.User, error)
}

// Session describes the token a request was authenticated with
type Session struct {
	TokenID   string
	ExpiresAt time.Time
}

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	users      UserLookup
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, users: users}
}

// Authenticate admits any active, logged-in user
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireArea admits users whose role can open area. Safe methods need read
// access, everything else needs write access.
func (m *AuthMiddleware) RequireArea(area string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ok := m.authenticate(w, r)
			if !ok {
				return
			}
			user, _ := UserFromContext(r.Context())

			allowed := auth.CanRead(user.Role, area)
			if !isReadOnly(r.Method) {
				allowed = auth.CanWrite(user.Role, area)
			}
			if !allowed {
				deny(w, r, http.StatusForbidden, "Forbidden: Insufficient permissions", "/dashboard")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits only the listed roles
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ok := m.authenticate(w, r)
			if !ok {
				return
			}
			user, _ := UserFromContext(r.Context())

			for _, role := range allowedRoles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, r, http.StatusForbidden, "Forbidden: Insufficient permissions", "/dashboard")
		})
	}
}

// RequireAdmin is a middleware that ensures the user has admin role
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(models.RoleAdmin)(next)
}

// authenticate validates the token, reloads the user and stores both in the
// request context. On failure it has already written the response.
func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	token := tokenFromRequest(r)
	if token == "" {
		deny(w, r, http.StatusUnauthorized, "Authorization header required", "/login")
		return r, false
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		deny(w, r, http.StatusUnauthorized, "Invalid or expired token", "/login")
		return r, false
	}
	if cache.IsRevoked(r.Context(), claims.ID) {
		deny(w, r, http.StatusUnauthorized, "Session has been logged out", "/login")
		return r, false
	}

	user, err := m.users.Get(r.Context(), claims.UserID)
	if err != nil || user.DeletedAt != nil {
		deny(w, r, http.StatusUnauthorized, "User not found", "/login")
		return r, false
	}
	if !user.IsActive {
		deny(w, r, http.StatusForbidden, "Account suspended. Please contact administrator.", "/login?error=suspended")
		return r, false
	}

	noteUser(r.Context(), user)

	ctx := context.WithValue(r.Context(), userKey, user)
	session := &Session{TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	ctx = context.WithValue(ctx, sessionKey, session)
	return r.WithContext(ctx), true
}

// tokenFromRequest reads "Bearer <token>", then the session cookie. The
// websocket endpoint passes ?token= because browsers cannot set headers there.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if strings.HasPrefix(r.URL.Path, "/ws/") {
		return r.URL.Query().Get("token")
	}
	return ""
}

// deny answers browsers with a redirect and API clients with a JSON error
func deny(w http.ResponseWriter, r *http.Request, status int, message, redirect string) {
	if wantsHTML(r) {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}
	utils.Error(w, status, message)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// UserFromContext returns the authenticated user
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// SessionFromContext returns the token id and expiry of the current request
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return 0, false
	}
	return user.ID, true
}

// GetRoleFromContext extracts role from request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.Role, true
}

// WithUser returns ctx carrying user. Used by tests and background jobs.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
