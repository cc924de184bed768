package keyring

import (
	"context"
	"sync"

	"github.com/awnumar/memguard"
	"github.com/yanun0323/errors"

	"main/internal/signing"
	"main/pkg/exception"
)

// Memory is the in-memory key provider. Key material lives in memguard
// enclaves so it stays encrypted at rest in process memory and is wiped on
// delete. Mutations are serialized by the provider; reads run concurrently.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]*memguard.Enclave
}

var _ signing.KeyProvider = (*Memory)(nil)

// NewMemory creates an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string]*memguard.Enclave)}
}

// GetKey returns a copy of the key with the given id. The caller owns the
// copy and should zero it after use.
func (m *Memory) GetKey(_ context.Context, id string) (signing.Key, error) {
	if id == "" {
		return signing.Key{}, exception.ErrEmptyKeyID
	}

	m.mu.RLock()
	enclave, ok := m.keys[id]
	m.mu.RUnlock()
	if !ok {
		return signing.Key{}, exception.ErrKeyNotFound
	}

	buf, err := enclave.Open()
	if err != nil {
		return signing.Key{}, errors.Wrap(exception.ErrProviderUnavailable, "open enclave")
	}
	defer buf.Destroy()

	return signing.KeyFromBytes(buf.Bytes())
}

// StoreKey saves key material under id, replacing any previous key. The
// passed key copy is consumed and wiped.
func (m *Memory) StoreKey(_ context.Context, id string, key signing.Key) error {
	if id == "" {
		return exception.ErrEmptyKeyID
	}

	// NewEnclave wipes its input, which is exactly what we want for the
	// by-value key copy.
	enclave := memguard.NewEnclave(key[:])

	m.mu.Lock()
	m.keys[id] = enclave
	m.mu.Unlock()
	return nil
}

// DeleteKey removes the key with the given id.
func (m *Memory) DeleteKey(_ context.Context, id string) error {
	if id == "" {
		return exception.ErrEmptyKeyID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[id]; !ok {
		return exception.ErrKeyNotFound
	}
	delete(m.keys, id)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}
