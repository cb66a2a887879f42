package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fixedSynth always draws the same value.
type fixedSynth float64

func (f fixedSynth) Float64() float64 { return float64(f) }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"nil", nil, FailureNone},
		{"http status", &ErrHTTP{StatusCode: 503, Status: "503 Service Unavailable"}, FailureUpstream},
		{"wrapped http status", fmt.Errorf("yahoo quote: %w", &ErrHTTP{StatusCode: 404}), FailureUpstream},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), FailureTransport},
		{"cancelled", context.Canceled, FailureTransport},
		{"url error", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}, FailureTransport},
		{"unknown ticker", fmt.Errorf("%w: FOO.NS", ErrTickerNotFound), FailureUpstream},
		{"parse", errors.New("parse yahoo quote: invalid character"), FailureUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestTransportReason(t *testing.T) {
	assert.Equal(t, "request timed out", transportReason(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.Equal(t, "request cancelled", transportReason(context.Canceled))
	assert.Equal(t, "connection refused",
		transportReason(&url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}))
}

func TestBetween(t *testing.T) {
	assert.Equal(t, 100.0, between(fixedSynth(0), 100, 1100))
	assert.Equal(t, 600.0, between(fixedSynth(0.5), 100, 1100))
	assert.InDelta(t, -2.5, between(fixedSynth(0), -2.5, 2.5), 1e-9)
}

func TestNewSynthesizerRange(t *testing.T) {
	s := NewSynthesizer()
	for i := 0; i < 100; i++ {
		v := s.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}
