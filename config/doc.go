// Package config lê a configuração do gateway a partir do ambiente.
//
// Um arquivo .env no diretório atual é carregado antes (opcional); variáveis
// já definidas no ambiente têm precedência sobre ele.
package config
