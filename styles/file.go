package styles

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileStyle struct {
	Key         string `yaml:"key"`
	Prompt      string `yaml:"prompt"`
	OutputField string `yaml:"output_field"`
	Postprocess string `yaml:"postprocess"`
}

type file struct {
	Styles []fileStyle `yaml:"styles"`
}

// LoadFile lê estilos adicionais de um arquivo YAML:
//
//	styles:
//	  - key: tanka
//	    prompt: "..."
//	    output_field: tanka
//	    postprocess: join_lines
func LoadFile(path string) ([]Style, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caminho vem da configuração do operador
	if err != nil {
		return nil, fmt.Errorf("styles: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodifica o mesmo formato de LoadFile.
func Parse(data []byte) ([]Style, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("styles: parse: %w", err)
	}

	out := make([]Style, 0, len(f.Styles))
	for i, fs := range f.Styles {
		rule, err := Rule(fs.Postprocess)
		if err != nil {
			return nil, fmt.Errorf("styles: entry %d (%q): %w", i, fs.Key, err)
		}
		out = append(out, Style{
			Key:          fs.Key,
			SystemPrompt: fs.Prompt,
			OutputField:  fs.OutputField,
			Postprocess:  rule,
		})
	}
	return out, nil
}
