package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "viewer"

// TokenFromRequest pulls the bearer token from the Authorization header,
// falling back to the token query parameter. The fallback exists for the
// websocket endpoint: browsers cannot set headers on a websocket dial.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// RequireViewer admits only requests carrying a valid token and records
// the viewer identity for downstream handlers.
func (s *Service) RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}

		viewer, err := s.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, viewer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ViewerFromContext returns the authenticated viewer, or nil outside
// RequireViewer.
func ViewerFromContext(ctx context.Context) *Identity {
	viewer, _ := ctx.Value(identityKey).(*Identity)
	return viewer
}

// UserIDFromContext is a convenience for handlers that only need the
// owner id.
func UserIDFromContext(ctx context.Context) string {
	if viewer := ViewerFromContext(ctx); viewer != nil {
		return viewer.UserID
	}
	return ""
}
