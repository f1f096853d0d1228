package transform

import "encoding/json"

// Result mapeia campo de saída -> texto gerado. Um ponteiro nil é serializado
// como null e marca o estilo que falhou.
type Result map[string]*string

// JSON serializa o resultado para quem guarda a saída como texto.
// O skip (nil) vira "null".
func (r Result) JSON() (string, error) {
	if r == nil {
		return "null", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Text devolve o texto do campo e se ele foi gerado com sucesso.
func (r Result) Text(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}
