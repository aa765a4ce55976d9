package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs JWT claims and exposes what verification of its tokens needs.
type Signer interface {
	// Sign creates a signed JWT from claims.
	Sign(claims jwt.MapClaims) (string, error)

	// VerificationKey returns the key that verifies a parsed token, rejecting
	// tokens signed with an unexpected method.
	VerificationKey(token *jwt.Token) (any, error)

	// Method returns the JWT signing method in use.
	Method() jwt.SigningMethod
}

// HMACSigner implements Signer using symmetric HMAC-SHA256.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner creates an HMAC signer over the given shared secret.
func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

func (h *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "[Sign] failed to sign token with HMAC")
	}
	return signed, nil
}

func (h *HMACSigner) VerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACSigner) Method() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}

// KeyPairSigner implements Signer using an RSA or ECDSA key pair.
type KeyPairSigner struct {
	keyPair *KeyPair
}

// NewKeyPairSigner creates an asymmetric signer from the given key pair.
func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{keyPair: keyPair}
}

func (k *KeyPairSigner) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(k.keyPair.SigningMethod(), claims)
	if k.keyPair.KeyID != "" {
		token.Header["kid"] = k.keyPair.KeyID
	}

	signed, err := token.SignedString(k.keyPair.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "[Sign] failed to sign token with key pair")
	}
	return signed, nil
}

func (k *KeyPairSigner) VerificationKey(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		return k.keyPair.PublicKey, nil
	default:
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

func (k *KeyPairSigner) Method() jwt.SigningMethod {
	return k.keyPair.SigningMethod()
}
