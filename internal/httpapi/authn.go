package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"vendra.org/internal/auth"
	"vendra.org/internal/rbac"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Signup (POST /v1/accounts) is public; role escalation inside it still
// checks the actor when a token happens to be present.
var publicPaths = []string{
	"/v1/auth/login",
	"/v1/accounts",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.signer == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			// Best-effort identity on public paths: a valid token still
			// attaches the actor so handlers can honor elevated callers.
			if token, err := extractBearerToken(r.Header.Get(authHeader)); err == nil {
				if claims, err := a.signer.Verify(token); err == nil {
					actor := rbac.ActorContext{
						ActorID:   claims.Subject,
						RoleLevel: rbac.RoleLevel(claims.RoleLevel),
					}
					r = r.WithContext(rbac.ContextWithActor(r.Context(), actor))
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="vendra"`)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.signer.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="vendra", error="invalid_token"`)
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		actor := rbac.ActorContext{
			ActorID:   claims.Subject,
			RoleLevel: rbac.RoleLevel(claims.RoleLevel),
		}
		next.ServeHTTP(w, r.WithContext(rbac.ContextWithActor(r.Context(), actor)))
	})
}

// actorFor returns the authenticated actor or writes a 401 and reports false.
func actorFor(w http.ResponseWriter, r *http.Request) (rbac.ActorContext, bool) {
	actor, ok := rbac.ActorFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", `Bearer realm="vendra"`)
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return rbac.ActorContext{}, false
	}
	return actor, true
}

// RequireRole guards a handler behind a minimum role level.
func RequireRole(min rbac.RoleLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := rbac.ActorFromContext(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="vendra"`)
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if !rbac.HasMinimumRole(actor.RoleLevel, min) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="vendra", error="insufficient_scope"`)
				writeError(w, r, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
