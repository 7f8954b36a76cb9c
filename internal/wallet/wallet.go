// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet is a named Solana keypair.
type Wallet struct {
	Name       string
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey
}

// NewWallet создаёт кошелёк из base58-encoded приватного ключа.
func NewWallet(name, privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	privateKey := solana.PrivateKey(privateKeyBytes)
	return &Wallet{
		Name:       name,
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
	}, nil
}

// Generate creates a wallet with a fresh keypair.
func Generate(name string) *Wallet {
	w := solana.NewWallet()
	return &Wallet{Name: name, PrivateKey: w.PrivateKey, PublicKey: w.PublicKey()}
}

func (w *Wallet) String() string {
	return w.PublicKey.String()
}

// Book maps wallet names to wallets.
type Book map[string]*Wallet

// LoadBook reads a CSV file with columns [Name, PrivateKeyBase58]. A missing
// file yields an empty book.
func LoadBook(path string) (Book, error) {
	book := make(Book)
	if path == "" {
		return book, nil
	}
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return book, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	for i, record := range records {
		if i == 0 && len(record) == 2 && record[0] == "name" {
			continue
		}
		if len(record) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", i+1, len(record))
		}
		w, err := NewWallet(record[0], record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d (%s): %w", i+1, record[0], err)
		}
		book[w.Name] = w
	}
	return book, nil
}

// Save writes the book to path, sorted by name.
func (b Book) Save(path string) error {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create wallet file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"name", "private_key"}); err != nil {
		return err
	}
	for _, name := range names {
		if err := writer.Write([]string{name, b[name].PrivateKey.String()}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Resolve returns the public key of the wallet called value, or value parsed as
// a base58 public key.
func (b Book) Resolve(value string) (solana.PublicKey, error) {
	if w, ok := b[value]; ok {
		return w.PublicKey, nil
	}
	k, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%q is neither a wallet name nor a public key", value)
	}
	return k, nil
}
