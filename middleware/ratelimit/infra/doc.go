// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - RedisStore: contador de janela fixa compartilhado via Redis (INCR atômico)
//   - MemoryStore: contador de janela fixa em memória para instância única
//   - ChanPool: semáforo simples para limite de concorrência
package infra
