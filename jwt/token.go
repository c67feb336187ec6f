package jwt

import (
	"bytes"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var pemPrefix = []byte("-----BEGIN")

// ParseOptions tightens token validation beyond signature, exp and iat checks.
type ParseOptions struct {
	Issuer   string
	Audience string
	KeyID    string
	Leeway   time.Duration
}

// CreateJWT signs claims with key under alg and returns the compact token.
func CreateJWT(claims *Claims, key KeyPair, alg Algorithm) (string, error) {
	return CreateJWTWithKeyID(claims, key, alg, "")
}

// CreateJWTWithKeyID is CreateJWT with a "kid" header when keyID is not empty.
func CreateJWTWithKeyID(claims *Claims, key KeyPair, alg Algorithm, keyID string) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("%w: nil claims", ErrInvalidClaims)
	}
	if claims.ExpiresAt.IsZero() {
		return "", fmt.Errorf("%w: missing expiry", ErrInvalidClaims)
	}

	method, err := alg.signingMethod()
	if err != nil {
		return "", err
	}
	signKey, err := signingKey(key, alg)
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(method, claims.registered())
	if keyID != "" {
		token.Header["kid"] = keyID
	}

	signed, err := token.SignedString(signKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyMismatch, err)
	}
	return signed, nil
}

// ParseJWT verifies tokenStr against key and alg and returns its claims. Expiry and
// issued-at are required.
func ParseJWT(tokenStr string, key KeyPair, alg Algorithm, opts ParseOptions) (*Claims, error) {
	if _, err := alg.signingMethod(); err != nil {
		return nil, err
	}
	verifyKey, err := verificationKey(key, alg)
	if err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg.String()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if opts.Leeway > 0 {
		options = append(options, jwt.WithLeeway(opts.Leeway))
	}
	if opts.Issuer != "" {
		options = append(options, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		options = append(options, jwt.WithAudience(opts.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != alg.String() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		if opts.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			if kid != opts.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return verifyKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	rc, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, jwt.ErrTokenInvalidClaims)
	}
	return claimsFromRegistered(rc), nil
}

// CheckSigningKey reports whether key can sign tokens for alg. RSA algorithms require an
// RSA private key; any other key type fails with ErrKeyMismatch.
func CheckSigningKey(key KeyPair, alg Algorithm) error {
	_, err := signingKey(key, alg)
	return err
}

func signingKey(key KeyPair, alg Algorithm) (interface{}, error) {
	switch alg.Spec().Kind {
	case KindSymmetric:
		if len(key.PrivateKey) == 0 {
			return nil, fmt.Errorf("%w: empty shared secret for %s", ErrKeyMismatch, alg)
		}
		if bytes.HasPrefix(key.PrivateKey, pemPrefix) {
			return nil, fmt.Errorf("%w: pem key supplied for %s", ErrKeyMismatch, alg)
		}
		return key.PrivateKey, nil
	case KindAsymmetric:
		priv, err := jwt.ParseRSAPrivateKeyFromPEM(key.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s requires an RSA private key: %v", ErrKeyMismatch, alg, err)
		}
		return priv, nil
	default:
		return nil, unimplemented(alg)
	}
}

func verificationKey(key KeyPair, alg Algorithm) (interface{}, error) {
	if alg.Spec().Kind != KindAsymmetric {
		return signingKey(key, alg)
	}
	if key.HasPublicKey() {
		pub, err := jwt.ParseRSAPublicKeyFromPEM(key.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s requires an RSA public key: %v", ErrKeyMismatch, alg, err)
		}
		return pub, nil
	}
	priv, err := signingKey(key, alg)
	if err != nil {
		return nil, err
	}
	return &priv.(*rsa.PrivateKey).PublicKey, nil
}
