package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"waitlist-service/internal/pkg/logger"
)

// MaxBodyBytes é o limite de corpo aceito por Decode.
const MaxBodyBytes = 1 << 20

// ErrorResponse é o envelope de erro de toda a API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("json encode failed", "error", err)
	}
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

// InternalError responde 500. O erro real vai sempre para o log; em `details`
// só aparece com exposeDetails (development).
func InternalError(w http.ResponseWriter, err error, exposeDetails bool) {
	logger.Error("internal error", "error", err)
	resp := ErrorResponse{Error: "Internal server error"}
	if exposeDetails && err != nil {
		resp.Details = err.Error()
	}
	JSON(w, http.StatusInternalServerError, resp)
}

// Decode lê o corpo JSON em dst. Corpo vazio deixa dst intacto, e a validação
// dos campos aponta o que falta. Em caso de falha já respondeu (400 ou 413)
// e devolve false.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		BadRequest(w, "Invalid JSON body")
		return false
	}
	return true
}
