// Package generation fala com a API externa de geração de texto (formato chat
// completions) e classifica cada falha em exatamente duas classes:
//
//   - cota esgotada (HTTP 429): ErrQuotaExceeded / *QuotaError
//   - qualquer outra falha (status não-2xx, corpo inválido, sem choices, rede,
//     timeout): *TransientError
//
// Esta camada nunca faz retry. Quem chama decide o que cada classe significa
// (ver Classify).
package generation
