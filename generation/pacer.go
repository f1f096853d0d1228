package generation

import (
	"context"

	"golang.org/x/time/rate"
)

type pacedChatter struct {
	inner Chatter
	lim   *rate.Limiter
}

// Paced espaça as chamadas de saída com um token bucket (x/time/rate) para não
// queimar a cota do upstream em rajadas. rps <= 0 devolve inner sem alteração.
//
// A espera respeita o ctx; se ele terminar antes, a chamada falha como
// transitória e o upstream não é contatado.
func Paced(inner Chatter, rps float64, burst int) Chatter {
	if rps <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &pacedChatter{inner: inner, lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (p *pacedChatter) Chat(ctx context.Context, systemPrompt, userContent string) (string, error) {
	if err := p.lim.Wait(ctx); err != nil {
		return "", &TransientError{Op: "pace", Err: err}
	}
	return p.inner.Chat(ctx, systemPrompt, userContent)
}
