package reference

import (
	"crypto/rand"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

const (
	PrefixBooking  = "BK"
	PrefixPayment  = "PAY"
	PrefixTransfer = "TRF"

	Alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	randomLen  = 10
	maxRetries = 5
)

// Generate mints an opaque reference: the domain prefix followed by 10
// characters drawn from [A-Z0-9] via crypto/rand.
func Generate(prefix string) string {
	buf := make([]byte, randomLen)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return prefix + string(buf)
}

func Booking() string  { return Generate(PrefixBooking) }
func Payment() string  { return Generate(PrefixPayment) }
func Transfer() string { return Generate(PrefixTransfer) }

// WithRetry calls fn with fresh references until one sticks. fn reports
// (false, nil) on a uniqueness collision, which triggers another attempt;
// after maxRetries collisions the generator gives up.
func WithRetry(prefix string, fn func(ref string) (bool, error)) (string, error) {
	for i := 0; i < maxRetries; i++ {
		ref := Generate(prefix)
		ok, err := fn(ref)
		if err != nil {
			return "", err
		}
		if ok {
			return ref, nil
		}
	}
	return "", domain.ErrReferenceExhaustion(prefix)
}
