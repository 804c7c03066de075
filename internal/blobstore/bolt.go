// Package blobstore keeps binary photos outside the entity tables. Records
// hold a domain.PhotoRef; the bytes live here under the ref's key.
package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrEmptyKey     = errors.New("blob key is empty")
)

var bucketName = []byte("photos")

// Blob is a stored binary payload with its content type
type Blob struct {
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"data"`
	StoredAt    time.Time `json:"stored_at"`
}

// Store persists binary payloads by key
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (*Blob, error)
	Delete(ctx context.Context, key string) error
}

// Key builds the storage key for an entity's photo
func Key(kind string, id uuid.UUID) string {
	return kind + "/" + id.String()
}

// VersionKey builds the key of one stored version of an entity's photo
func VersionKey(kind string, id, version uuid.UUID) string {
	return Key(kind, id) + "/" + version.String()
}

// BoltStore is a Store backed by a bbolt file
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bbolt file at path
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create blob store directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create photos bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(Blob{
		ContentType: contentType,
		Data:        data,
		StoredAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode blob: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), payload)
	})
	if err != nil {
		return fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return nil
}

func (s *BoltStore) Get(ctx context.Context, key string) (*Blob, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var blob *Blob
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(key))
		if raw == nil {
			return ErrBlobNotFound
		}
		// raw is only valid inside the transaction; Unmarshal copies it
		blob = &Blob{}
		return json.Unmarshal(raw, blob)
	})
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return blob, nil
}

// Delete removes key. Missing keys are not an error.
func (s *BoltStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
