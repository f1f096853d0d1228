package generation

import (
	"context"
	"errors"
)

type Status string

const (
	StatusUp            Status = "UP"
	StatusQuotaExceeded Status = "QUOTA_EXCEEDED"
	StatusDown          Status = "DOWN"
)

// Health é o resultado de Probe.
type Health struct {
	Status Status `json:"openai"`
	Reason string `json:"reason,omitempty"`
}

func (h Health) Up() bool { return h.Status == StatusUp }

// Probe faz uma chamada mínima ao upstream para saber se ele responde.
// Consome cota como qualquer outra chamada.
func Probe(ctx context.Context, ch Chatter) Health {
	_, err := ch.Chat(ctx, "Reply with OK.", "OK")
	switch Classify(err) {
	case FailureNone:
		return Health{Status: StatusUp}
	case FailureQuota:
		return Health{Status: StatusQuotaExceeded, Reason: "quota exceeded"}
	}

	var te *TransientError
	if errors.As(err, &te) {
		return Health{Status: StatusDown, Reason: te.Op}
	}
	return Health{Status: StatusDown, Reason: "error"}
}
