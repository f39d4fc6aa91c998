// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (janela fixa, decisão, vagas, estatísticas), sem net/http
//   - application: casos de uso (decisão allow/deny com fail-open/closed, acquire/timeout)
//   - infra: implementações concretas (janela em memória ou Redis, token bucket, semáforo, stats)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo no serviço de waitlist:
//
//  1. Extrai a chave do cliente (header/XFF/RemoteAddr)
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 com Retry-After (rate limit) ou 503 (concorrência), sempre em JSON
//  4. Se permitido, chama o próximo handler
//
// A configuração vem de internal/config (RATE_LIMIT_*, ADMIN_RATE_*, CONCURRENCY_*).
package ratelimit
