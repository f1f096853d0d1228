// Package styles mantém o catálogo de estilos de geração.
//
// Cada estilo associa uma chave (ex: "summary") ao prompt de sistema enviado ao
// modelo, ao nome do campo no resultado e a uma regra de pós-processamento do
// texto gerado. O catálogo é imutável depois de criado; estilos novos entram
// como dados (Default, With ou LoadFile), sem mudar os pontos de chamada.
package styles
