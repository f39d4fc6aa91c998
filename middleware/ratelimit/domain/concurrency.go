package domain

import "context"

// SlotPool representa um recurso com capacidade finita (ex: requisições simultâneas
// tocando o banco).
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar.
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	Usage() SlotUsage
}

// SlotUsage é uma foto da ocupação do pool, exibida em /api/status.
type SlotUsage struct {
	InUse    int `json:"inUse"`
	Capacity int `json:"capacity"`
}
