package ports

import "context"

// WalletDetails holds the trading wallet's public key and the encrypted
// form of its private key. The private key is only decrypted immediately
// before signing an order.
type WalletDetails struct {
	PublicKey           string
	EncryptedPrivateKey string
}

// WalletProvider defines the interface for wallet custody. Key storage and
// the encryption scheme are opaque to the trade lifecycle core.
type WalletProvider interface {
	// GetWalletDetails retrieves the wallet for trading.
	// A missing wallet or key is a precondition failure for the single
	// buy or sell attempt, never a process crash.
	GetWalletDetails(ctx context.Context) (*WalletDetails, error)
	// DecryptPrivateKey produces a usable signing key from its encrypted form.
	DecryptPrivateKey(encrypted string) (string, error)
}
