// Package domain define contratos e tipos de domínio para rate limit e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A regra de janela fixa (Policy.Apply) vive aqui para ser compartilhada
// entre o store em memória e o script do Redis, e testada sem infraestrutura.
package domain
