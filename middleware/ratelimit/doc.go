// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa em memória/Redis, semáforo, estatísticas)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo no gateway:
//
//  1. Extrai a chave do cliente (header/XFF/IP)
//  2. Chama a camada application para contar o pedido na janela do segundo atual
//  3. Se bloqueado, responde 429 {"error":"rate_limited"} ou 503 {"error":"overloaded"}
//  4. Se permitido, chama o próximo handler sem tocar no pedido nem na resposta
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como RATE_LIMIT, RATE_BACKEND, CONCURRENCY_MAX e CONCURRENCY_TIMEOUT.
package ratelimit
