package waitlist

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("email already registered")
	ErrNotFound     = errors.New("record not found")
	ErrUnavailable  = errors.New("store unavailable")
)

// ValidationError descreve o primeiro campo inválido; a mensagem vai direto
// para o corpo da resposta 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
