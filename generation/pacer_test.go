package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingChatter struct {
	calls int
	out   string
	err   error
}

func (c *countingChatter) Chat(context.Context, string, string) (string, error) {
	c.calls++
	return c.out, c.err
}

func TestPaced_ZeroRPSReturnsInner(t *testing.T) {
	inner := &countingChatter{}
	assert.Same(t, inner, Paced(inner, 0, 1))
}

func TestPaced_DelegatesWhenTokenAvailable(t *testing.T) {
	inner := &countingChatter{out: "x"}
	ch := Paced(inner, 100, 1)

	out, err := ch.Chat(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
	assert.Equal(t, 1, inner.calls)
}

func TestPaced_CancelledWaitIsTransientAndSkipsUpstream(t *testing.T) {
	inner := &countingChatter{out: "x"}
	ch := Paced(inner, 0.001, 1)

	_, err := ch.Chat(context.Background(), "s", "u")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = ch.Chat(ctx, "s", "u")
	require.Error(t, err)

	var te *TransientError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "pace", te.Op)
	assert.Equal(t, 1, inner.calls)
}
