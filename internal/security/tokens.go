package security

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired or signed by someone else.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoSigningKey is returned when neither a secret nor a key pair is configured.
	ErrNoSigningKey = errors.New("no signing key configured")
)

// SessionClaims are the claims carried by a session token. Subject is the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// UserID returns the subject claim.
func (c *SessionClaims) UserID() string { return c.Subject }

// TokenProvider issues and validates stateless session tokens. There is no revocation:
// a token is honored until it expires.
type TokenProvider struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	issuer    string
	audience  string
	ttl       time.Duration
	now       func() time.Time
}

// NewHMACTokenProvider returns a provider that signs with HS256 and secret.
func NewHMACTokenProvider(secret []byte, issuer, audience string, ttl time.Duration) (*TokenProvider, error) {
	if len(secret) == 0 {
		return nil, ErrNoSigningKey
	}
	return &TokenProvider{
		method:    jwt.SigningMethodHS256,
		signKey:   secret,
		verifyKey: secret,
		issuer:    issuer,
		audience:  audience,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// NewKeyTokenProvider returns a provider that signs with RS256 or ES256 depending on the key type.
// publicKey must be the public half of privateKey.
func NewKeyTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, ttl time.Duration) (*TokenProvider, error) {
	if privateKey == nil || publicKey == nil {
		return nil, ErrNoSigningKey
	}
	var method jwt.SigningMethod
	switch KeyAlg(privateKey.Public()) {
	case "RS256":
		method = jwt.SigningMethodRS256
	case "ES256":
		method = jwt.SigningMethodES256
	default:
		return nil, ErrInvalidKey
	}
	if !samePublicKey(privateKey, publicKey) {
		return nil, fmt.Errorf("%w: public key does not match private key", ErrInvalidKey)
	}
	return &TokenProvider{
		method:    method,
		signKey:   privateKey,
		verifyKey: publicKey,
		issuer:    issuer,
		audience:  audience,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// NewTokenProvider picks the key pair when both PEMs are set, otherwise the HS256 secret.
func NewTokenProvider(secret, privatePEM, publicPEM, issuer, audience string, ttl time.Duration) (*TokenProvider, error) {
	if privatePEM != "" && publicPEM != "" {
		signer, err := ParsePrivateKey(privatePEM)
		if err != nil {
			return nil, err
		}
		pub, err := ParsePublicKey(publicPEM)
		if err != nil {
			return nil, err
		}
		return NewKeyTokenProvider(signer, pub, issuer, audience, ttl)
	}
	return NewHMACTokenProvider([]byte(secret), issuer, audience, ttl)
}

// TTL returns the session lifetime.
func (p *TokenProvider) TTL() time.Duration { return p.ttl }

// Alg returns the JWS algorithm name.
func (p *TokenProvider) Alg() string { return p.method.Alg() }

// Issue signs a session token for userID with role. Returns the token and its expiry.
func (p *TokenProvider) Issue(userID, role string) (string, time.Time, error) {
	now := p.now().UTC()
	expiresAt := now.Add(p.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}
	token, err := jwt.NewWithClaims(p.method, claims).SignedString(p.signKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate checks signature, algorithm, expiry, issuer and audience and returns the claims.
func (p *TokenProvider) Validate(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return p.verifyKey, nil },
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
