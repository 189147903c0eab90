package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRetry returns a retry decorator that records waits instead of
// sleeping.
func newTestRetry(mock *MockProvider, attempts int) (*RetryProvider, *[]time.Duration) {
	var waits []time.Duration
	p := WithRetry(mock, RetryConfig{
		MaxAttempts: attempts,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     time.Second,
		Multiplier:  2,
	}).(*RetryProvider)
	p.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return p, &waits
}

var errDown = &ErrProviderUnavailable{Err: errors.New("down")}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		replies   []MockResponse
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{"first attempt", []MockResponse{MockText("ok")}, 3, 1, false},
		{"transient then success", []MockResponse{{Err: errDown}, MockText("ok")}, 3, 2, false},
		{"all attempts fail", []MockResponse{{Err: errDown}, {Err: errDown}, {Err: errDown}}, 3, 3, true},
		{"single attempt", []MockResponse{{Err: errDown}, MockText("ok")}, 1, 1, true},
		{"rejected key", []MockResponse{{Err: &ErrUnauthorized{Err: errors.New("401")}}, MockText("ok")}, 3, 1, true},
		{"truncated", []MockResponse{{Err: &ErrMaxTokensExceeded{}}, MockText("ok")}, 3, 1, true},
		{
			"invalid retried once",
			[]MockResponse{
				{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}},
				{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}},
				MockText("ok"),
			},
			5, 2, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.replies...)
			p, _ := newTestRetry(mock, tt.attempts)

			resp, err := p.Generate(context.Background(), Request{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ok", resp.Text())
			}
			assert.Equal(t, tt.wantCalls, mock.CallCount())
		})
	}
}

func TestRetry_BackoffGrowsAndCaps(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: errDown},
		MockResponse{Err: errDown},
		MockResponse{Err: errDown},
		MockResponse{Err: errDown},
		MockResponse{Err: errDown},
	)
	p, waits := newTestRetry(mock, 5)
	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, *waits, 4)
	bounds := []time.Duration{100, 200, 400, 800}
	for i, w := range *waits {
		base := bounds[i] * time.Millisecond
		assert.InDelta(t, float64(base), float64(w), float64(base)*0.21, "wait %d", i)
	}
}

func TestRetry_HonoursRetryAfter(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 3 * time.Second, Err: errors.New("429")}},
		MockText("ok"),
	)
	p, waits := newTestRetry(mock, 3)
	_, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second}, *waits)
}

func TestRetry_CancelledWhileWaiting(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: errDown}, MockText("ok"))
	p := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, MaxWait: time.Hour, Multiplier: 2})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for mock.CallCount() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()
	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestWithRetry_FillsDefaults(t *testing.T) {
	p := WithRetry(NewMockProvider(), RetryConfig{MaxAttempts: 2}).(*RetryProvider)
	def := DefaultConfig().Retry
	assert.Equal(t, def.InitialWait, p.config.InitialWait)
	assert.Equal(t, def.MaxWait, p.config.MaxWait)
	assert.Equal(t, def.Multiplier, p.config.Multiplier)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, retryNever, classify(context.Canceled))
	assert.Equal(t, retryNever, classify(&ErrUnauthorized{}))
	assert.Equal(t, retryOnce, classify(&ErrInvalidResponse{Err: errors.New("x")}))
	assert.Equal(t, retryAlways, classify(&ErrRateLimit{}))
	assert.Equal(t, retryAlways, classify(errors.New("connection reset")))
}

func TestErrorForStatus(t *testing.T) {
	base := errors.New("boom")
	var rl *ErrRateLimit
	assert.ErrorAs(t, errorForStatus(429, base), &rl)
	assert.True(t, IsUnauthorized(errorForStatus(401, base)))
	assert.True(t, IsUnauthorized(errorForStatus(403, base)))
	var un *ErrProviderUnavailable
	assert.ErrorAs(t, errorForStatus(503, base), &un)
	assert.ErrorIs(t, errorForStatus(500, base), base)
}
