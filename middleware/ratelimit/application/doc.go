// Package application decide, a partir de um domain.Store, se a requisição
// segue ou recebe 429, e aplica a política fail-open/fail-closed quando o
// store falha. ConcurrencyService faz o mesmo para as vagas de execução.
//
// Não conhece net/http: o middleware traduz Decision em status e headers.
package application
