package generation

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded identifica (via errors.Is) a falha de cota esgotada.
var ErrQuotaExceeded = errors.New("generation: quota exceeded")

// QuotaError é devolvido quando o upstream responde 429.
type QuotaError struct {
	StatusCode int
	Body       string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("generation: quota exceeded (status %d)", e.StatusCode)
}

func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExceeded }

// TransientError cobre toda falha de uma única chamada que não seja cota.
type TransientError struct {
	Op         string // etapa que falhou: pace, marshal, request, do, read, status, decode, sdk
	StatusCode int    // 0 quando não houve resposta HTTP
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation: %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation: %s failed: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Failure é a classificação de uma chamada de geração.
type Failure int

const (
	FailureNone Failure = iota
	FailureQuota
	FailureTransient
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureQuota:
		return "quota"
	default:
		return "transient"
	}
}

// Classify reduz um erro de Chat a uma Failure. Erros desconhecidos contam como
// transitórios.
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return FailureQuota
	}
	return FailureTransient
}
