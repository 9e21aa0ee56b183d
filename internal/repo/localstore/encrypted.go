package localstore

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/hds-chat/pkg/crypto"
)

// EncryptedStore seals values before handing them to the wrapped store. Keys are
// stored in clear and bound to the ciphertext, so values cannot be swapped
// between keys.
type EncryptedStore struct {
	inner  Store
	sealer crypto.Sealer
}

var _ Store = (*EncryptedStore)(nil)

func Encrypted(inner Store, sealer crypto.Sealer) *EncryptedStore {
	return &EncryptedStore{inner: inner, sealer: sealer}
}

func (s *EncryptedStore) Get(ctx context.Context, key string) (string, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	plain, err := s.sealer.Open(key, sealed)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", key, err)
	}
	return plain, nil
}

func (s *EncryptedStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal(key, value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
