package api

import (
	"net/http"

	"waitlist-service/internal/pkg/httputil"
	"waitlist-service/internal/waitlist"
	"waitlist-service/middleware/ratelimit"
)

// Submit inscreve um email: POST /api/waitlist.
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	var sub waitlist.Submission
	if !httputil.Decode(w, r, &sub) {
		return
	}
	sub.IPAddress = ratelimit.ClientIP(r, false)
	sub.UserAgent = r.UserAgent()

	if _, err := h.Service.Submit(r.Context(), sub); err != nil {
		h.writeError(w, err)
		return
	}
	httputil.Created(w, map[string]string{"message": "Successfully added to waitlist"})
}

// ListEmails lista as inscrições, mais novas primeiro: GET /api/admin/emails.
func (h *Handlers) ListEmails(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.OK(w, recs)
}

// Export grava o CSV das inscrições no S3: POST /api/admin/export.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	if h.Exporter == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "Export not configured")
		return
	}
	if err := h.Service.Ping(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}

	recs, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.Exporter.Export(r.Context(), recs, h.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"key": res.Key, "bucket": res.Bucket, "count": res.Count})
}
