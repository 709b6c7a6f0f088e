// Package password derives and verifies stored password credentials.
//
// A credential is "hex(salt):hex(key)" where key = scrypt(password, salt).
// Derivation is deliberately slow, so the number of concurrent derivations is
// bounded by a weighted semaphore shared by Hash and Verify.
package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/semaphore"
)

// ErrMalformedCredential is returned when a stored credential is not "salt:key".
var ErrMalformedCredential = errors.New("password: malformed stored credential")

// Params are the scrypt cost factors.
type Params struct {
	N          int // CPU/memory cost, power of two
	R          int
	P          int
	SaltLength int
	KeyLength  int
}

// DefaultParams: N=2^14, r=8 uses 16 MiB per derivation.
var DefaultParams = Params{
	N:          1 << 14,
	R:          8,
	P:          1,
	SaltLength: 16,
	KeyLength:  64,
}

// Hasher hashes and verifies passwords.
type Hasher struct {
	params Params
	slots  *semaphore.Weighted
}

// NewHasher builds a Hasher. concurrency <= 0 means GOMAXPROCS.
func NewHasher(p Params, concurrency int) *Hasher {
	if p.N == 0 {
		p = DefaultParams
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Hasher{params: p, slots: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns a fresh credential for password with a random salt.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: read salt: %w", err)
	}
	key, err := h.derive(ctx, password, salt, h.params.KeyLength)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify reports whether password matches credential.
// The key comparison is constant time.
func (h *Hasher) Verify(ctx context.Context, password, credential string) (bool, error) {
	salt, want, err := decode(credential)
	if err != nil {
		return false, err
	}
	got, err := h.derive(ctx, password, salt, len(want))
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (h *Hasher) derive(ctx context.Context, password string, salt []byte, keyLen int) ([]byte, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("password: wait for hashing slot: %w", err)
	}
	defer h.slots.Release(1)

	key, err := scrypt.Key([]byte(password), salt, h.params.N, h.params.R, h.params.P, keyLen)
	if err != nil {
		return nil, fmt.Errorf("password: derive key: %w", err)
	}
	return key, nil
}

func decode(credential string) (salt, key []byte, err error) {
	saltHex, keyHex, ok := strings.Cut(credential, ":")
	if !ok || saltHex == "" || keyHex == "" || strings.Contains(keyHex, ":") {
		return nil, nil, ErrMalformedCredential
	}
	if salt, err = hex.DecodeString(saltHex); err != nil {
		return nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedCredential, err)
	}
	if key, err = hex.DecodeString(keyHex); err != nil {
		return nil, nil, fmt.Errorf("%w: key: %v", ErrMalformedCredential, err)
	}
	return salt, key, nil
}
