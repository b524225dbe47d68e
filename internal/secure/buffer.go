// Package secure holds resolved secret values in memguard enclaves so they
// stay encrypted in memory between resolution and child process launch.
// Call memguard.Purge() on exit for final cleanup.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer stores one secret value encrypted at rest in memory. The enclave
// encrypts with XSalsa20-Poly1305 and attempts to mlock the backing pages.
type Buffer struct {
	// enclave is nil for the empty value; memguard rejects zero-length
	// buffers, and an empty secret is still a legal secret.
	enclave *memguard.Enclave

	mu        sync.RWMutex
	destroyed bool
}

// NewBufferFromString seals a secret string into a protected buffer. The
// input string itself cannot be wiped (Go strings are immutable); sealing
// still limits how long the plaintext stays reachable.
func NewBufferFromString(value string) *Buffer {
	if value == "" {
		return &Buffer{}
	}
	return &Buffer{enclave: memguard.NewEnclave([]byte(value))}
}

// Open decrypts the buffer and returns the plaintext. The second return is
// false if the buffer was destroyed.
func (b *Buffer) Open() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return "", false
	}
	if b.enclave == nil {
		return "", true
	}
	locked, err := b.enclave.Open()
	if err != nil {
		return "", false
	}
	defer locked.Destroy()
	return locked.String(), true
}

// Destroy makes the buffer unusable. Idempotent. The enclave ciphertext is
// left for the garbage collector; memguard.Purge() handles final wiping.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}
