package domain

import (
	"errors"
	"time"
)

// Policy é a regra de janela fixa: no máximo Max requisições por chave a cada Window.
type Policy struct {
	Max    int
	Window time.Duration
}

// DefaultPolicy é o limite do formulário: 5 envios por hora por cliente.
var DefaultPolicy = Policy{Max: 5, Window: time.Hour}

var ErrInvalidPolicy = errors.New("rate limit policy requires max > 0 and window > 0")

func (p Policy) Validate() error {
	if p.Max <= 0 || p.Window <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// Window é o estado de uma chave: quantas requisições foram aceitas e quando
// a janela corrente começou. O valor zero representa uma chave nunca vista.
type Window struct {
	Count int
	Start time.Time
}

// Apply aplica a regra sobre w (mutando o estado) e devolve a decisão:
//
//   - chave nova: {Count: 1, Start: now}, permite
//   - dentro da janela: nega se Count >= Max, senão incrementa e permite
//   - janela vencida: reinicia em {Count: 1, Start: now}, permite
//
// Uma requisição negada não incrementa o contador.
func (p Policy) Apply(w *Window, now time.Time) Decision {
	if w.Count == 0 || p.Expired(*w, now) {
		w.Count = 1
		w.Start = now
		return p.Decision(true, *w, now)
	}
	if w.Count >= p.Max {
		return p.Decision(false, *w, now)
	}
	w.Count++
	return p.Decision(true, *w, now)
}

// Expired diz se a janela iniciada em w.Start já terminou em now.
func (p Policy) Expired(w Window, now time.Time) bool {
	return now.Sub(w.Start) >= p.Window
}

// Decision monta a decisão a partir do estado já atualizado.
// Exportado para o store Redis, que aplica a regra no servidor e só traduz o resultado.
func (p Policy) Decision(allowed bool, w Window, now time.Time) Decision {
	reset := w.Start.Add(p.Window)
	d := Decision{
		Allowed:   allowed,
		Limit:     p.Max,
		Remaining: p.Max - w.Count,
		ResetAt:   reset,
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !allowed {
		d.RetryAfter = reset.Sub(now)
	}
	return d
}
