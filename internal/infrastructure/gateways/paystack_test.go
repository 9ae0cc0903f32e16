package gateways

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

const paystackWebhookBody = `{"event":"charge.success","data":{"id":42,"reference":"PAYABCDEF1234","status":"success","amount":225000,"currency":"NGN"}}`

func signPaystack(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackParseWebhook(t *testing.T) {
	a := NewPaystackAdapter("sk_test", time.Second)

	headers := http.Header{}
	headers.Set("X-Paystack-Signature", signPaystack("sk_test", paystackWebhookBody))

	event, err := a.ParseWebhook(headers, []byte(paystackWebhookBody))
	require.NoError(t, err)
	assert.Equal(t, "charge.success:PAYABCDEF1234", event.EventID)
	assert.Equal(t, "PAYABCDEF1234", event.GatewayReference)
	assert.Equal(t, domain.GatewayStatusSuccess, event.Status)
	assert.Equal(t, int64(225000), event.AmountMinor)
	assert.Equal(t, "NGN", event.Currency)
}

func TestPaystackParseWebhookBadSignature(t *testing.T) {
	a := NewPaystackAdapter("sk_test", time.Second)

	headers := http.Header{}
	headers.Set("X-Paystack-Signature", signPaystack("another_secret", paystackWebhookBody))

	_, err := a.ParseWebhook(headers, []byte(paystackWebhookBody))
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_SIGNATURE", appErr.Code)
}

func TestPaystackParseWebhookMissingSignature(t *testing.T) {
	a := NewPaystackAdapter("sk_test", time.Second)
	_, err := a.ParseWebhook(http.Header{}, []byte(paystackWebhookBody))
	assert.Error(t, err)
}

func TestPaystackStatusMapping(t *testing.T) {
	assert.Equal(t, domain.GatewayStatusSuccess, paystackStatus("success"))
	assert.Equal(t, domain.GatewayStatusFailed, paystackStatus("failed"))
	assert.Equal(t, domain.GatewayStatusFailed, paystackStatus("abandoned"))
	assert.Equal(t, domain.GatewayStatusPending, paystackStatus("ongoing"))
}
