package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sokoide/shopfront/pkg/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketName    = "shopfront"
	CredentialKey = "TOKEN"
)

// BoltCredentialStore keeps the credential in a local bbolt file so it
// survives restarts of the terminal client.
type BoltCredentialStore struct {
	db *bolt.DB
}

func OpenBoltCredentialStore(path string) (*BoltCredentialStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltCredentialStore{db: db}, nil
}

func (s *BoltCredentialStore) Load(ctx context.Context) (string, error) {
	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(BucketName)).Get([]byte(CredentialKey)); v != nil {
			token = string(v)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", domain.ErrNoCredential
	}
	return token, nil
}

func (s *BoltCredentialStore) Save(ctx context.Context, token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketName)).Put([]byte(CredentialKey), []byte(token))
	})
}

func (s *BoltCredentialStore) Delete(ctx context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketName)).Delete([]byte(CredentialKey))
	})
}

func (s *BoltCredentialStore) Close() error {
	return s.db.Close()
}
