package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/blobstore"
	"storefront/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	PhotoKindUser    = "users"
	PhotoKindProduct = "products"

	// DefaultMaxPhotoBytes caps uploaded photos at 1 MB
	DefaultMaxPhotoBytes int64 = 1000000
)

var (
	ErrPhotoTooLarge    = errors.New("photo should be less than 1mb")
	ErrUnsupportedPhoto = errors.New("photo must be an image")
	ErrPhotoNotFound    = errors.New("photo not found")
)

// PhotoUpload is the raw content of an uploaded photo
type PhotoUpload struct {
	Data []byte
}

// PhotoStore validates photos and keeps their bytes in the blob store
type PhotoStore struct {
	blobs    blobstore.Store
	maxBytes int64
}

// NewPhotoStore creates a PhotoStore; maxBytes <= 0 selects DefaultMaxPhotoBytes
func NewPhotoStore(blobs blobstore.Store, maxBytes int64) *PhotoStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPhotoBytes
	}
	return &PhotoStore{blobs: blobs, maxBytes: maxBytes}
}

// MaxBytes is the largest accepted photo
func (p *PhotoStore) MaxBytes() int64 {
	return p.maxBytes
}

// Check rejects oversized or non-image uploads and returns the sniffed content type
func (p *PhotoStore) Check(upload *PhotoUpload) (string, error) {
	if int64(len(upload.Data)) > p.maxBytes {
		return "", ErrPhotoTooLarge
	}

	contentType := mimetype.Detect(upload.Data).String()
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedPhoto
	}
	return contentType, nil
}

// Save stores the photo of entity id under a fresh key and returns the reference
// to keep on the record. The previous photo of id is left untouched.
func (p *PhotoStore) Save(ctx context.Context, kind string, id uuid.UUID, upload *PhotoUpload) (*domain.PhotoRef, error) {
	contentType, err := p.Check(upload)
	if err != nil {
		return nil, err
	}

	key := blobstore.VersionKey(kind, id, uuid.New())
	if err := p.blobs.Put(ctx, key, contentType, upload.Data); err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	return &domain.PhotoRef{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(upload.Data)),
	}, nil
}

// Load fetches the bytes behind ref
func (p *PhotoStore) Load(ctx context.Context, ref *domain.PhotoRef) (*blobstore.Blob, error) {
	if ref == nil {
		return nil, ErrPhotoNotFound
	}

	blob, err := p.blobs.Get(ctx, ref.Key)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to load photo: %w", err)
	}
	return blob, nil
}

// Remove deletes the bytes behind ref, if any
func (p *PhotoStore) Remove(ctx context.Context, ref *domain.PhotoRef) error {
	if ref == nil {
		return nil
	}
	return p.blobs.Delete(ctx, ref.Key)
}
