package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de decisão do rate limit.
//
// Method/Path são strings genéricas; cuidado com cardinalidade ao gravar Key
// (um endereço por cliente) em Redis.
type StatsEvent struct {
	Key     Key
	Allowed bool

	Method string
	Path   string

	At time.Time
}

// Counters acumula decisões permitidas e negadas.
type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// Add devolve uma cópia com mais uma decisão contabilizada.
func (c Counters) Add(allowed bool) Counters {
	if allowed {
		c.Allowed++
	} else {
		c.Denied++
	}
	return c
}

// StatsStore é a estratégia de persistência para estatísticas do rate limit.
//
// O middleware trata erro como best-effort (não derruba a requisição).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

// StatsReader expõe os contadores para o endpoint de status.
// As chaves de Routes são "<METHOD> <path>".
type StatsReader interface {
	Totals(ctx context.Context) (Counters, error)
	Routes(ctx context.Context) (map[string]Counters, error)
}
