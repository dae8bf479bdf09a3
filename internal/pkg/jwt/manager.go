// internal/pkg/jwt/manager.go
package jwt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"
)

// Config locates the signing key pair. Inline PEM values take precedence
// over file paths so containers can inject keys through the environment.
// The public key is derived from the private key when neither is set.
type Config struct {
	PrivPEM  string
	PrivPath string
	PubPEM   string
	PubPath  string
	Issuer   string
	Audience string
	TTL      time.Duration
	KID      string
}

// Manager signs dashboard session tokens and verifies them.
type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

var errKeyMismatch = errors.New("public key does not match private key")

func NewManager(cfg Config) (*Manager, error) {
	privPEM, err := readPEM(cfg.PrivPEM, cfg.PrivPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	if privPEM == nil {
		return nil, errors.New("no private key configured")
	}
	priv, err := parsePrivateKey(privPEM)
	if err != nil {
		return nil, err
	}

	pub := &priv.PublicKey
	pubPEM, err := readPEM(cfg.PubPEM, cfg.PubPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	if pubPEM != nil {
		configured, err := parsePublicKey(pubPEM)
		if err != nil {
			return nil, err
		}
		if !configured.Equal(pub) {
			return nil, errKeyMismatch
		}
	}

	return &Manager{
		Generator: NewGenerator(priv, cfg.Issuer, cfg.Audience, cfg.KID, cfg.TTL),
		Verifier:  NewVerifier(pub, cfg.Issuer, cfg.Audience),
	}, nil
}

// readPEM returns nil when neither source is configured.
func readPEM(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func decode(data []byte, types ...string) (*pem.Block, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	for _, t := range types {
		if block.Type == t {
			return block, nil
		}
	}
	return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
}

// parsePrivateKey accepts PKCS1 and PKCS8 encodings.
func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, err := decode(data, "RSA PRIVATE KEY", "PRIVATE KEY")
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if block.Type == "RSA PRIVATE KEY" {
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS8 private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", key)
	}
	return rsaKey, nil
}

// parsePublicKey accepts PKCS1 and PKIX encodings.
func parsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, err := decode(data, "RSA PUBLIC KEY", "PUBLIC KEY")
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	if block.Type == "RSA PUBLIC KEY" {
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKIX public key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, want RSA", key)
	}
	return rsaKey, nil
}
