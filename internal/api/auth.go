package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"waitlist-service/internal/pkg/httputil"
	"waitlist-service/internal/pkg/logger"
)

// secretMatches compara em tempo constante. Aceita o valor cru ou "Bearer <secret>".
func secretMatches(presented, secret string) bool {
	presented = strings.TrimSpace(presented)
	if token, ok := strings.CutPrefix(presented, "Bearer "); ok {
		presented = strings.TrimSpace(token)
	}
	if presented == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
}

func (h *Handlers) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.AdminSecret == "" {
			logger.Error("admin route called but ADMIN_SECRET is not configured", "path", r.URL.Path)
			httputil.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !secretMatches(r.Header.Get("Authorization"), h.AdminSecret) {
			logger.Warn("admin auth failed", "path", r.URL.Path, "ip", r.RemoteAddr)
			httputil.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
