package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

type Key string

// Decision é o resultado de consultar o limiter para uma chave.
type Decision struct {
	Allowed bool

	// Limit e Remaining alimentam os headers X-RateLimit-*.
	// Remaining nunca é negativo.
	Limit     int
	Remaining int

	// ResetAt é quando a janela corrente termina. Zero para limiters sem janela.
	ResetAt time.Time

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// LimiterStore registra uma requisição da chave no instante now e devolve a decisão.
//
// Cada chamada conta como uma tentativa: a implementação guarda o estado por
// chave (memória, Redis, token bucket) e deve ser segura para uso concorrente.
type LimiterStore interface {
	Take(ctx context.Context, key Key, now time.Time) (Decision, error)
}
