package api

import (
	"errors"
	"net/http"

	"waitlist-service/internal/deploy"
	"waitlist-service/internal/pkg/httputil"
	"waitlist-service/internal/pkg/logger"
)

// DeployHook dispara o deploy configurado quando ?key= confere com DEPLOY_SECRET
// e responde 202 sem esperar o comando.
//
//	POST /api/deploy-hook?key=...
func (h *Handlers) DeployHook(w http.ResponseWriter, r *http.Request) {
	if h.DeploySecret == "" || h.Deployer == nil || !h.Deployer.Configured() {
		logger.Error("deploy hook called but not configured")
		httputil.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !secretMatches(r.URL.Query().Get("key"), h.DeploySecret) {
		logger.Warn("deploy hook auth failed", "ip", r.RemoteAddr)
		httputil.Unauthorized(w)
		return
	}

	switch err := h.Deployer.Start(r.Context()); {
	case errors.Is(err, deploy.ErrBusy):
		httputil.Error(w, http.StatusConflict, "Deploy already running")
		return
	case err != nil:
		logger.Error("deploy hook failed to start", "error", err)
		httputil.InternalError(w, err, h.dev())
		return
	}

	// o resultado sai no log e em /api/status (deploy.last).
	httputil.JSON(w, http.StatusAccepted, map[string]string{"message": "Deploy started"})
}
