// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
//   - WindowStore: janela fixa por chave em memória, com limite de chaves e janitor
//   - RedisWindowStore: mesma regra executada atomicamente no Redis (script Lua)
//   - TokenBucketStore: token bucket por chave usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para limite de concorrência
//   - MemoryStatsStore / RedisStatsStore: contadores de allow/deny
package infra
