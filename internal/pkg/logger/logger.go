// Package logger é o log estruturado (JSON) do processo, com redação de PII
// opcional. As chamadas passam pares chave/valor:
//
//	logger.Info("signup stored", "email", rec.Email, "id", rec.ID)
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

type Level = slog.Level

const (
	DEBUG = slog.LevelDebug
	INFO  = slog.LevelInfo
	WARN  = slog.LevelWarn
	ERROR = slog.LevelError
)

var (
	level     slog.LevelVar
	redactPII atomic.Bool
	mu        sync.Mutex
	current   atomic.Pointer[slog.Logger]
)

func init() {
	redactPII.Store(true)
	SetOutput(os.Stderr)
}

// SetOutput troca o destino do log (os testes usam um buffer).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       &level,
		ReplaceAttr: replaceAttr,
	})
	current.Store(slog.New(h))
}

func SetLevel(l Level) { level.Set(l) }

// ParseLevel aceita debug, info, warn e error; qualquer outro valor vira INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func SetRedactPII(r bool) { redactPII.Store(r) }

// Slog expõe o *slog.Logger para bibliotecas que pedem um (ex.: log do chi).
func Slog() *slog.Logger { return current.Load() }

func Debug(msg string, fields ...any) { current.Load().Debug(msg, fields...) }
func Info(msg string, fields ...any)  { current.Load().Info(msg, fields...) }
func Warn(msg string, fields ...any)  { current.Load().Warn(msg, fields...) }
func Error(msg string, fields ...any) { current.Load().Error(msg, fields...) }

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if !redactPII.Load() {
		return a
	}
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, redactValue(a.Key, a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && err != nil {
			return slog.String(a.Key, redactValue(a.Key, err.Error()))
		}
	}
	return a
}
