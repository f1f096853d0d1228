package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(Config{APIKey: "sk-test", URL: url, Model: "test-model", Timeout: timeout})
	require.NoError(t, err)
	return c
}

func replyWith(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestChat_SendsEscapedPayload(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth, ctype, method string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		auth = r.Header.Get("Authorization")
		ctype = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("payload is not valid JSON: %v (%s)", err, body)
		}
		replyWith("ok")(w, r)
	}))
	defer srv.Close()

	sys := `Say "hi"` + "\n" + `\ and go`
	user := "content:\n" + `line with "quotes"` + "\r\n\ttab"

	out, err := newTestClient(t, srv.URL, time.Second).Chat(context.Background(), sys, user)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "application/json", ctype)
	assert.Equal(t, "test-model", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, sys, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, user, got.Messages[1].Content)
}

func TestChat_ReturnsFirstChoiceVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"  first\nline  "}},{"message":{"content":"second"}}]}`)
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv.URL, time.Second).Chat(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "  first\nline  ", out)
}

func TestChat_429IsQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":"insufficient_quota"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Chat(context.Background(), "s", "u")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	assert.Equal(t, FailureQuota, Classify(err))

	var qe *QuotaError
	require.True(t, errors.As(err, &qe))
	assert.Contains(t, qe.Body, "insufficient_quota")
}

func TestChat_TransientFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		op      string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			op: "status",
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			op: "status",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"choices": [`)
			},
			op: "decode",
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"choices": []}`)
			},
			op: "decode",
		},
		{
			name: "absent choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"id": "x"}`)
			},
			op: "decode",
		},
		{
			name: "null content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"choices": [{"message": {"content": null}}]}`)
			},
			op: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient(t, srv.URL, time.Second).Chat(context.Background(), "s", "u")
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrQuotaExceeded))
			assert.Equal(t, FailureTransient, Classify(err))

			var te *TransientError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.op, te.Op)
		})
	}
}

func TestChat_TimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient(t, srv.URL, 50*time.Millisecond).Chat(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Equal(t, FailureTransient, Classify(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestChat_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url, time.Second).Chat(context.Background(), "s", "u")
	require.Error(t, err)

	var te *TransientError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "do", te.Op)
}

func TestChat_NoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, time.Second).Chat(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, FailureNone, Classify(nil))
	assert.Equal(t, FailureQuota, Classify(&QuotaError{StatusCode: 429}))
	assert.Equal(t, FailureQuota, Classify(errors.Join(errors.New("ctx"), ErrQuotaExceeded)))
	assert.Equal(t, FailureTransient, Classify(&TransientError{Op: "do", Err: errors.New("x")}))
	assert.Equal(t, FailureTransient, Classify(errors.New("anything else")))
}

func TestTruncate_KeepsRuneBoundary(t *testing.T) {
	s := "日本語のエラー" // 3 bytes por caractere

	got := truncate(s, 4)
	assert.Equal(t, "日...", got)
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, "日本...", truncate(s, 6))
	assert.Equal(t, s, truncate(s, len(s)))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
