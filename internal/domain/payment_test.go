package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{"pending to processing", PaymentStatusPending, PaymentStatusProcessing, true},
		{"pending straight to completed", PaymentStatusPending, PaymentStatusCompleted, true},
		{"pending to failed", PaymentStatusPending, PaymentStatusFailed, true},
		{"pending to expired", PaymentStatusPending, PaymentStatusExpired, true},
		{"pending to refunded", PaymentStatusPending, PaymentStatusRefunded, false},
		{"processing to completed", PaymentStatusProcessing, PaymentStatusCompleted, true},
		{"processing to failed", PaymentStatusProcessing, PaymentStatusFailed, true},
		{"processing to expired", PaymentStatusProcessing, PaymentStatusExpired, true},
		{"processing back to pending", PaymentStatusProcessing, PaymentStatusPending, false},
		{"completed to refunded", PaymentStatusCompleted, PaymentStatusRefunded, true},
		{"completed to failed", PaymentStatusCompleted, PaymentStatusFailed, false},
		{"failed is terminal", PaymentStatusFailed, PaymentStatusProcessing, false},
		{"expired is terminal", PaymentStatusExpired, PaymentStatusCompleted, false},
		{"refunded is terminal", PaymentStatusRefunded, PaymentStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPaymentTerminal(t *testing.T) {
	terminal := []PaymentStatus{PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusExpired}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), string(s))
	}
	assert.False(t, PaymentStatusPending.Terminal())
	assert.False(t, PaymentStatusProcessing.Terminal())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrTransientGateway("stripe", assert.AnError)))
	assert.False(t, IsTransient(ErrGatewayProtocol("stripe", "bad response")))
	assert.False(t, IsTransient(assert.AnError))
	assert.False(t, IsTransient(nil))
}
