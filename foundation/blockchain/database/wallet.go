package database

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/noobcash/blockchain/foundation/blockchain/signature"
)

// Wallet holds the key pair a node signs its transactions with.
type Wallet struct {
	privateKey *ecdsa.PrivateKey
	PublicKey  string `json:"public_key"`
}

// NewWallet generates a brand new key pair.
func NewWallet() (Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return Wallet{}, fmt.Errorf("generating key: %w", err)
	}

	return NewWalletFromKey(privateKey), nil
}

// LoadWallet reads a hex encoded private key from the specified file.
func LoadWallet(path string) (Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return Wallet{}, fmt.Errorf("loading key %q: %w", path, err)
	}

	return NewWalletFromKey(privateKey), nil
}

// NewWalletFromKey constructs a wallet around an existing private key.
func NewWalletFromKey(privateKey *ecdsa.PrivateKey) Wallet {
	return Wallet{
		privateKey: privateKey,
		PublicKey:  signature.PublicKeyString(privateKey.PublicKey),
	}
}

// Save writes the private key to the specified file.
func (w Wallet) Save(path string) error {
	return crypto.SaveECDSA(path, w.privateKey)
}

// NewTransaction builds and signs a transaction spending the provided
// unspent outputs.
func (w Wallet) NewTransaction(receiver string, amount uint64, unspent []TxOutput) (SignedTx, error) {
	tx := NewTx(w.PublicKey, receiver, amount, unspent)
	return tx.Sign(w.privateKey)
}
