// Package ratelimit fornece adapters HTTP (net/http) para rate limit de
// janela fixa por classe e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny por janela fixa, acquire/timeout) sem net/http
//   - infra: implementações concretas (contador Redis ou memória, semáforo), detalhes de infraestrutura
//   - ratelimit (este pacote): middlewares HTTP + classificação da identidade + tradução para status/headers
//
// Fluxo por requisição:
//
//  1. Classifica a identidade (principal autenticado, senão IP/header/XFF)
//  2. Chama a camada application para decidir contra a cota da classe da rota
//  3. Se bloqueado, responde 429 com Retry-After e headers X-RateLimit-*
//  4. Se permitido, seta os headers de cota e chama o próximo handler
//  5. Se o store estiver fora do ar, libera sem headers (fail open) e loga aviso
//
// Cada rota amarra sua classe ("default", "authenticated", "chat") no
// registro; adicionar uma classe nova é só configuração.
package ratelimit
