// Package api expõe o orquestrador por HTTP (chi).
//
// Rotas:
//
//	POST /api/ai/transform   {content, styles} -> {"result": {...}} ou {"result": null, "skipped": true}
//	GET  /api/ai/ping        transform de teste com "summary"
//	GET  /api/ai/health      probe do upstream (200 UP, 503 caso contrário)
//	GET  /api/ai/styles      estilos registrados
//	GET  /api/ratelimit/stats contadores do rate limit (se habilitado em memória)
//	GET  /healthz
package api
