package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/buraq-dev/keycore/mac"
	"github.com/buraq-dev/keycore/rsakey"
)

// Algorithm identifies a JWT signing algorithm.
type Algorithm uint8

const (
	HS256 Algorithm = iota + 1
	HS384
	HS512
	RS256
	RS384
	RS512
	PS256
	PS384
	PS512
	ES256
	ES384
	EdDSA
)

var algorithmNames = map[Algorithm]string{
	HS256: "HS256",
	HS384: "HS384",
	HS512: "HS512",
	RS256: "RS256",
	RS384: "RS384",
	RS512: "RS512",
	PS256: "PS256",
	PS384: "PS384",
	PS512: "PS512",
	ES256: "ES256",
	ES384: "ES384",
	EdDSA: "EdDSA",
}

// Algorithms returns every recognized identifier, including the unimplemented ones.
func Algorithms() []Algorithm {
	return []Algorithm{HS256, HS384, HS512, RS256, RS384, RS512, PS256, PS384, PS512, ES256, ES384, EdDSA}
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Algorithm(%d)", uint8(a))
}

// ParseAlgorithm maps a header-style identifier ("HS256", "EdDSA", ...) to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	for a, name := range algorithmNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if _, ok := algorithmNames[a]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedAlgorithm, uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// KeyKind is the key-generation strategy of an algorithm.
type KeyKind uint8

const (
	KindUnimplemented KeyKind = iota
	KindSymmetric
	KindAsymmetric
)

func (k KeyKind) String() string {
	switch k {
	case KindSymmetric:
		return "symmetric"
	case KindAsymmetric:
		return "asymmetric"
	default:
		return "unimplemented"
	}
}

// AlgorithmSpec describes how keys for an algorithm are produced.
// Hash is set for symmetric algorithms, RSABits for asymmetric ones.
type AlgorithmSpec struct {
	Kind    KeyKind
	Hash    mac.HashFunction
	RSABits rsakey.Bits
}

// Spec returns the key-generation strategy for a.
func (a Algorithm) Spec() AlgorithmSpec {
	switch a {
	case HS256, HS384:
		return AlgorithmSpec{Kind: KindSymmetric, Hash: mac.SHA256}
	case HS512:
		return AlgorithmSpec{Kind: KindSymmetric, Hash: mac.SHA512}
	case RS256, PS256:
		return AlgorithmSpec{Kind: KindAsymmetric, RSABits: rsakey.Bits2048}
	case RS384, PS384:
		return AlgorithmSpec{Kind: KindAsymmetric, RSABits: rsakey.Bits3072}
	case RS512, PS512:
		return AlgorithmSpec{Kind: KindAsymmetric, RSABits: rsakey.Bits4096}
	default:
		return AlgorithmSpec{Kind: KindUnimplemented}
	}
}

func (a Algorithm) IsSymmetric() bool {
	return a.Spec().Kind == KindSymmetric
}

func (a Algorithm) signingMethod() (jwt.SigningMethod, error) {
	switch a {
	case HS256:
		return jwt.SigningMethodHS256, nil
	case HS384:
		return jwt.SigningMethodHS384, nil
	case HS512:
		return jwt.SigningMethodHS512, nil
	case RS256:
		return jwt.SigningMethodRS256, nil
	case RS384:
		return jwt.SigningMethodRS384, nil
	case RS512:
		return jwt.SigningMethodRS512, nil
	case PS256:
		return jwt.SigningMethodPS256, nil
	case PS384:
		return jwt.SigningMethodPS384, nil
	case PS512:
		return jwt.SigningMethodPS512, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, a)
	}
}
