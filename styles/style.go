package styles

import (
	"fmt"
	"regexp"
	"strings"
)

// Postprocess transforma a saída crua do modelo antes de entrar no resultado.
type Postprocess func(text string) string

// Nomes das regras de pós-processamento aceitas em arquivos YAML.
const (
	RuleNone      = "none"
	RuleJoinLines = "join_lines"
)

// LineSeparator substitui cada quebra de linha na regra join_lines.
const LineSeparator = " / "

var lineBreaks = regexp.MustCompile(`\r?\n`)

// JoinLines colapsa todas as quebras de linha em LineSeparator.
func JoinLines(text string) string {
	return lineBreaks.ReplaceAllString(text, LineSeparator)
}

// Rule devolve a regra registrada com o nome informado.
func Rule(name string) (Postprocess, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RuleNone:
		return nil, nil
	case RuleJoinLines:
		return JoinLines, nil
	default:
		return nil, fmt.Errorf("unknown postprocess rule %q", name)
	}
}

// Style é um registro imutável do catálogo.
type Style struct {
	Key          string
	SystemPrompt string
	OutputField  string
	Postprocess  Postprocess
}

// Apply aplica o pós-processamento do estilo (identidade quando não há regra).
func (s Style) Apply(text string) string {
	if s.Postprocess == nil {
		return text
	}
	return s.Postprocess(text)
}

// NormalizeKey é a forma canônica de uma chave: sem espaços nas pontas e minúscula.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
