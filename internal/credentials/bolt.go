package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/boltdb/bolt"
)

const boltBucket = "credentials"

// BoltStore persists tokens in a single-file bolt database, which is what
// keeps a CLI session alive between invocations.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database at path. The parent directory is
// created with 0700 and the file with 0600.
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create credentials dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open credentials db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init credentials bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) AccessToken(context.Context) (string, error) {
	return s.get(AccessTokenKey)
}

func (s *BoltStore) RefreshToken(context.Context) (string, error) {
	return s.get(RefreshTokenKey)
}

func (s *BoltStore) SetTokens(_ context.Context, access, refresh string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(boltBucket))
		if err := b.Put([]byte(AccessTokenKey), []byte(access)); err != nil {
			return err
		}
		if refresh == "" {
			return nil
		}
		return b.Put([]byte(RefreshTokenKey), []byte(refresh))
	})
}

func (s *BoltStore) SetAccessToken(_ context.Context, access string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(AccessTokenKey), []byte(access))
	})
}

func (s *BoltStore) Clear(context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(boltBucket))
		if err := b.Delete([]byte(AccessTokenKey)); err != nil {
			return err
		}
		return b.Delete([]byte(RefreshTokenKey))
	})
}

func (s *BoltStore) get(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		// bolt values are only valid inside the transaction
		value = string(tx.Bucket([]byte(boltBucket)).Get([]byte(key)))
		return nil
	})
	return value, err
}
