// Package wallet implements the ports.WalletProvider interface for a
// single trading wallet supplied through the environment. The private key
// is held encrypted and only decrypted right before signing an order.
package wallet

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"solTraderBot/internal/ports"
)

// EnvProvider implements ports.WalletProvider.
type EnvProvider struct {
	publicKey           string
	encryptedPrivateKey string
	encryptionKey       []byte
	logger              ports.Logger
}

// Config holds configuration for the environment-backed wallet.
type Config struct {
	PublicKey           string
	EncryptedPrivateKey string // base64(nonce || ciphertext), sealed with ChaCha20-Poly1305
	EncryptionKeyHex    string // 32-byte key, hex encoded
	Logger              ports.Logger
}

// New creates a new environment-backed wallet provider.
func New(cfg Config) (*EnvProvider, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for wallet provider")
	}

	// An unset key is tolerated here so the bot can run with trading
	// disabled; any buy or sell attempt will fail its precondition.
	var key []byte
	if cfg.EncryptionKeyHex != "" {
		var err error
		key, err = hex.DecodeString(cfg.EncryptionKeyHex)
		if err != nil {
			return nil, fmt.Errorf("wallet encryption key is not valid hex: %w", ports.ErrConfigurationError)
		}
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("wallet encryption key must be %d bytes, got %d: %w",
				chacha20poly1305.KeySize, len(key), ports.ErrConfigurationError)
		}
	}

	return &EnvProvider{
		publicKey:           cfg.PublicKey,
		encryptedPrivateKey: cfg.EncryptedPrivateKey,
		encryptionKey:       key,
		logger:              cfg.Logger,
	}, nil
}

// GetWalletDetails retrieves the wallet for trading. A missing key is a
// precondition failure for the calling buy or sell attempt only.
func (p *EnvProvider) GetWalletDetails(ctx context.Context) (*ports.WalletDetails, error) {
	if p.publicKey == "" || p.encryptedPrivateKey == "" {
		return nil, ports.ErrWalletUnavailable
	}
	return &ports.WalletDetails{
		PublicKey:           p.publicKey,
		EncryptedPrivateKey: p.encryptedPrivateKey,
	}, nil
}

// DecryptPrivateKey opens the sealed private key.
func (p *EnvProvider) DecryptPrivateKey(encrypted string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("encrypted key is not valid base64: %w", ports.ErrKeyDecryption)
	}

	aead, err := chacha20poly1305.New(p.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to construct cipher: %w", ports.ErrKeyDecryption)
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("encrypted key shorter than nonce: %w", ports.ErrKeyDecryption)
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed key: %w", ports.ErrKeyDecryption)
	}
	return string(plaintext), nil
}
