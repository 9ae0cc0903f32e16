package reference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func TestGenerateShape(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"booking", PrefixBooking},
		{"payment", PrefixPayment},
		{"transfer", PrefixTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := Generate(tt.prefix)
			assert.True(t, strings.HasPrefix(ref, tt.prefix))
			random := strings.TrimPrefix(ref, tt.prefix)
			assert.Len(t, random, 10)
			for _, r := range random {
				assert.Contains(t, Alphabet, string(r))
			}
		})
	}
}

func TestGenerateVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[Payment()] = true
	}
	// 100 draws from a 36^10 space colliding would mean a broken generator.
	assert.Len(t, seen, 100)
}

func TestWithRetryFirstAttempt(t *testing.T) {
	calls := 0
	ref, err := WithRetry(PrefixBooking, func(ref string) (bool, error) {
		calls++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, strings.HasPrefix(ref, PrefixBooking))
}

func TestWithRetryExhaustion(t *testing.T) {
	calls := 0
	_, err := WithRetry(PrefixPayment, func(ref string) (bool, error) {
		calls++
		return false, nil
	})
	require.Error(t, err)
	assert.Equal(t, maxRetries, calls)

	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "REFERENCE_EXHAUSTION", appErr.Code)
}

func TestWithRetryPropagatesError(t *testing.T) {
	calls := 0
	_, err := WithRetry(PrefixTransfer, func(ref string) (bool, error) {
		calls++
		return false, assert.AnError
	})
	assert.Equal(t, assert.AnError, err)
	assert.Equal(t, 1, calls)
}
