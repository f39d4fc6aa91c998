package api

import (
	"errors"
	"net/http"

	"waitlist-service/internal/pkg/httputil"
	"waitlist-service/internal/pkg/logger"
	"waitlist-service/internal/waitlist"
)

const (
	msgDuplicate   = "Email already registered"
	msgUnavailable = "Database unavailable, please try again later"
)

// writeError traduz erros do domínio para status + envelope JSON.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var verr *waitlist.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.BadRequest(w, verr.Message)
	case errors.Is(err, waitlist.ErrDuplicate):
		httputil.Error(w, http.StatusConflict, msgDuplicate)
	case errors.Is(err, waitlist.ErrUnavailable):
		logger.Warn("store unavailable", "error", err)
		resp := httputil.ErrorResponse{Error: msgUnavailable}
		if h.dev() {
			resp.Details = err.Error()
		}
		httputil.JSON(w, http.StatusServiceUnavailable, resp)
	default:
		httputil.InternalError(w, err, h.dev())
	}
}
