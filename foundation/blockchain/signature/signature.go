// Package signature provides support for signing and verifying maintenance
// records with a process lifetime RSA key pair.
package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// KeyBits is the size of the RSA key generated for the signer.
const KeyBits = 2048

// Signer holds the key pair used to sign payloads. The private key is
// generated once on construction and never leaves the signer.
type Signer struct {
	privateKey *rsa.PrivateKey
}

// New constructs a signer with a freshly generated key pair.
func New() (*Signer, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return &Signer{privateKey: privateKey}, nil
}

// Sign hashes the payload with SHA-256 and signs the digest with the
// private key using PKCS #1 v1.5.
func (s *Signer) Sign(payload []byte) ([]byte, error) {
	hash := sha256.Sum256(payload)

	sig, err := rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return nil, fmt.Errorf("signing payload: %w", err)
	}

	return sig, nil
}

// PublicKey returns a copy of the public key for verification.
func (s *Signer) PublicKey() *rsa.PublicKey {
	pk := s.privateKey.PublicKey
	return &pk
}

// PublicKeyPEM returns the public key as a PEM encoded PKIX block.
func (s *Signer) PublicKeyPEM() (string, error) {
	return PublicKeyToPEM(s.PublicKey())
}

// =============================================================================

// Verify reports whether sig is a valid signature of payload by the private
// key that belongs to publicKey. Any failure, including a malformed signature
// or a missing key, reports false.
func Verify(payload []byte, sig []byte, publicKey *rsa.PublicKey) bool {
	if publicKey == nil || publicKey.N == nil || len(sig) == 0 {
		return false
	}

	hash := sha256.Sum256(payload)

	return rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, hash[:], sig) == nil
}

// SignatureString returns the signature as a 0x prefixed hex string.
func SignatureString(sig []byte) string {
	return hexutil.Encode(sig)
}

// ToSignatureBytes converts a 0x prefixed hex string back into the
// signature bytes.
func ToSignatureBytes(sigStr string) ([]byte, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, fmt.Errorf("decoding signature: %w", err)
	}

	return sig, nil
}

// PublicKeyToPEM converts the public key to a PEM encoded PKIX block.
func PublicKeyToPEM(publicKey *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}

	block := pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	}

	return string(pem.EncodeToMemory(&block)), nil
}

// ParsePublicKeyPEM converts a PEM encoded PKIX block into an RSA public key.
func ParsePublicKeyPEM(data string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(data))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	publicKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not RSA", key)
	}

	return publicKey, nil
}
