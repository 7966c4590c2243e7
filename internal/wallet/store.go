// Package wallet is the tool's wallet: an encrypted local signing key, the
// provider that pairs it with the active chain client, and the connection
// session shown to the user.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tickertool/ticker-tool/internal/constants"
	"github.com/tickertool/ticker-tool/internal/securefile"
)

var ErrWalletNotFound = errors.New("wallet not found")

type Key struct {
	Version    int    `json:"version"`
	AddressHex string `json:"address"`
	PrivKeyHex string `json:"priv_key_hex"`

	CreatedAt string `json:"created_at,omitempty"` // RFC3339
}

func (k *Key) Address() common.Address {
	return common.HexToAddress(k.AddressHex)
}

func (k *Key) privateKey() (*ecdsa.PrivateKey, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(k.PrivKeyHex, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("to ecdsa: %w", err)
	}
	return priv, nil
}

type Store struct {
	Path string
	Opt  securefile.Options
}

// NewStore opens the key store at path, or at the resolved state path when
// path is empty.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		p, err := securefile.ResolvePath(constants.AppName, constants.WalletFile)
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{
		Path: path,
		Opt: securefile.Options{
			FilePerm:      constants.FilePerm,
			DirectoryPerm: constants.DirectoryPerm,
			AAD:           []byte(constants.WalletAAD),
		},
	}, nil
}

func (s *Store) Exists() bool {
	return securefile.Exists(s.Path)
}

// Load decrypts the stored key. A missing file is ErrWalletNotFound.
func (s *Store) Load(password []byte) (*Key, error) {
	k, err := securefile.ReadEncryptedJSON[Key](s.Path, password, s.Opt)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("load wallet %s: %w", s.Path, err)
	}
	return &k, nil
}

// Ensure loads the stored key or creates and persists a new one if missing.
func (s *Store) Ensure(password []byte) (*Key, error) {
	k, err := s.Load(password)
	if err == nil {
		return k, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	nk, err := NewRandomKey()
	if err != nil {
		return nil, err
	}
	if err := securefile.WriteEncryptedJSON(s.Path, *nk, password, s.Opt); err != nil {
		return nil, err
	}
	return nk, nil
}

// Import replaces the stored key with privHex.
func (s *Store) Import(password []byte, privHex string) (*Key, error) {
	k, err := KeyFromHex(privHex)
	if err != nil {
		return nil, err
	}
	if err := securefile.WriteEncryptedJSON(s.Path, *k, password, s.Opt); err != nil {
		return nil, err
	}
	return k, nil
}

func KeyFromHex(privHex string) (*Key, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return keyFromECDSA(priv), nil
}

func NewRandomKey() (*Key, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return keyFromECDSA(priv), nil
}

func keyFromECDSA(priv *ecdsa.PrivateKey) *Key {
	return &Key{
		Version:    1,
		AddressHex: crypto.PubkeyToAddress(priv.PublicKey).Hex(),
		PrivKeyHex: fmt.Sprintf("%x", crypto.FromECDSA(priv)),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}
