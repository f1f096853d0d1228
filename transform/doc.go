// Package transform expande um pedido (conteúdo + lista de estilos) em uma
// chamada de geração por estilo e monta o resultado.
//
// Política de falhas:
//
//   - chave desconhecida: ignorada, sem campo no resultado
//   - falha transitória: o campo do estilo fica null e o lote continua
//   - cota esgotada: o lote inteiro é abortado e nada é devolvido
//
// "Nada" é o sinal de skip (ok == false), diferente de um mapa vazio, que
// nunca é devolvido.
package transform
