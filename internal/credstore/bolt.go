package credstore

import (
	"context"
	"fmt"

	"github.com/pscheid92/adminpulse/internal/platform/crypto"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketCredentials = []byte("credentials")
	keyAccess         = []byte("access_token")
	keyRefresh        = []byte("refresh_token")
)

// BoltStore persists the credential pair in a local bbolt file, so a login
// survives console restarts. The file is created with 0600 permissions.
type BoltStore struct {
	db     *bolt.DB
	crypto crypto.Service
}

// OpenBolt opens (or creates) the credential database at path.
func OpenBolt(path string, cryptoSvc crypto.Service) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCredentials)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create credentials bucket: %w", err)
	}

	return &BoltStore{db: db, crypto: cryptoSvc}, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) GetAccess(ctx context.Context) (string, error) {
	return s.get(ctx, keyAccess)
}

func (s *BoltStore) SetAccess(ctx context.Context, token string) error {
	return s.set(ctx, keyAccess, token)
}

func (s *BoltStore) GetRefresh(ctx context.Context) (string, error) {
	return s.get(ctx, keyRefresh)
}

func (s *BoltStore) SetRefresh(ctx context.Context, token string) error {
	return s.set(ctx, keyRefresh, token)
}

func (s *BoltStore) Clear(_ context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if err := b.Delete(keyAccess); err != nil {
			return err
		}
		return b.Delete(keyRefresh)
	})
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

func (s *BoltStore) get(_ context.Context, key []byte) (string, error) {
	var stored []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketCredentials).Get(key); v != nil {
			stored = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if stored == nil {
		return "", nil
	}

	token, err := s.crypto.Decrypt(string(stored))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	return token, nil
}

func (s *BoltStore) set(_ context.Context, key []byte, token string) error {
	if token == "" {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketCredentials).Delete(key)
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		return nil
	}

	sealed, err := s.crypto.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCredentials).Put(key, []byte(sealed))
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
