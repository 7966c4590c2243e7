// Package securefile reads and writes local state files: plain JSON and
// password-sealed JSON (Argon2id KDF + XChaCha20-Poly1305), always through an
// atomic rename.
package securefile

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidPasswordOrCorrupt is returned when decryption fails.
var ErrInvalidPasswordOrCorrupt = errors.New("invalid password or corrupted file")

// Envelope is the on-disk form of a sealed file.
type Envelope struct {
	Version int `json:"version"`

	ArgonTime    uint32 `json:"argon_time"`
	ArgonMemory  uint32 `json:"argon_memory_kib"`
	ArgonThreads uint8  `json:"argon_threads"`
	ArgonKeyLen  uint32 `json:"argon_key_len"`

	SaltB64  string `json:"salt_b64"`
	NonceB64 string `json:"nonce_b64"`
	CTB64    string `json:"ct_b64"`
}

var DefaultKDF = Envelope{
	Version:      1,
	ArgonTime:    2,
	ArgonMemory:  64 * 1024,
	ArgonThreads: 1,
	ArgonKeyLen:  32,
}

// Options controls sealing. Zero values fall back to defaults.
type Options struct {
	KDF           Envelope
	FilePerm      os.FileMode
	DirectoryPerm os.FileMode

	// AAD must be identical on read and write.
	AAD []byte
}

func (o Options) withDefaults() Options {
	if o.KDF.Version == 0 {
		o.KDF = DefaultKDF
	}
	if o.FilePerm == 0 {
		o.FilePerm = 0o600
	}
	if o.DirectoryPerm == 0 {
		o.DirectoryPerm = 0o700
	}
	return o
}

// WriteEncryptedJSON marshals v, seals it with password and writes it atomically.
func WriteEncryptedJSON[T any](path string, v T, password []byte, opt Options) error {
	o := opt.withDefaults()
	if o.KDF.Version != 1 {
		return fmt.Errorf("unsupported kdf version: %d", o.KDF.Version)
	}

	plain, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("rand salt: %w", err)
	}
	key := argon2.IDKey(password, salt, o.KDF.ArgonTime, o.KDF.ArgonMemory, o.KDF.ArgonThreads, o.KDF.ArgonKeyLen)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("aead: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("rand nonce: %w", err)
	}

	env := o.KDF
	env.SaltB64 = base64.StdEncoding.EncodeToString(salt)
	env.NonceB64 = base64.StdEncoding.EncodeToString(nonce)
	env.CTB64 = base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, plain, o.AAD))

	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), o.DirectoryPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	return AtomicWriteFile(path, b, o.FilePerm)
}

// ReadEncryptedJSON opens a sealed file. A missing file keeps os.ErrNotExist in the chain.
func ReadEncryptedJSON[T any](path string, password []byte, opt Options) (T, error) {
	var zero T
	o := opt.withDefaults()

	b, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("read file: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return zero, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return zero, fmt.Errorf("unsupported file version: %d", env.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(env.SaltB64)
	if err != nil {
		return zero, fmt.Errorf("decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.NonceB64)
	if err != nil {
		return zero, fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(env.CTB64)
	if err != nil {
		return zero, fmt.Errorf("decode ciphertext: %w", err)
	}

	key := argon2.IDKey(password, salt, env.ArgonTime, env.ArgonMemory, env.ArgonThreads, env.ArgonKeyLen)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return zero, fmt.Errorf("aead: %w", err)
	}
	plain, err := aead.Open(nil, nonce, ct, o.AAD)
	if err != nil {
		return zero, ErrInvalidPasswordOrCorrupt
	}

	var out T
	if err := json.Unmarshal(plain, &out); err != nil {
		return zero, fmt.Errorf("unmarshal json: %w", err)
	}
	return out, nil
}

// WriteJSON writes v as indented JSON through AtomicWriteFile.
func WriteJSON(path string, v any, perm, dirPerm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return AtomicWriteFile(path, b, perm)
}

func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
