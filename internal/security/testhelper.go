package security

import "time"

// NewTestTokenProvider returns an HS256 provider with a fixed secret and a 7-day TTL.
// For unit tests only.
func NewTestTokenProvider() *TokenProvider {
	p, err := NewHMACTokenProvider([]byte("test-secret"), "test-issuer", "test-audience", 7*24*time.Hour)
	if err != nil {
		panic(err)
	}
	return p
}
