package fingerprint

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Compute hashes a request payload so an idempotency key reused with a
// different payload can be detected.
func Compute(req interface{}) string {
	data, _ := json.Marshal(req)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}
