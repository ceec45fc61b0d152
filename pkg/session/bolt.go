package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketSession = "session"

// BoltStore keeps the token in a bbolt database under one key.
type BoltStore struct {
	db  *bolt.DB
	key []byte
}

// OpenBoltStore opens (or creates) the database at path.
func OpenBoltStore(path, key string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSession))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}
	return &BoltStore{db: db, key: []byte(key)}, nil
}

// Close releases the database file lock.
func (b *BoltStore) Close() error {
	return b.db.Close()
}

// Load implements Store.
func (b *BoltStore) Load() (string, error) {
	var token string
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketSession)).Get(b.key)
		token = string(v)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return token, nil
}

// Save implements Store.
func (b *BoltStore) Save(token string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSession)).Put(b.key, []byte(token))
	})
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear implements Store.
func (b *BoltStore) Clear() error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSession)).Delete(b.key)
	})
	if err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
