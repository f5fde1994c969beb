package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/dunamismax/imagevault/internal/domain"
	"github.com/dunamismax/imagevault/internal/id"
)

// MemoryImageStore keeps records in process memory. It enforces the same
// content-hash uniqueness the postgres store does, which makes it a faithful
// stand-in for tests and local development.
type MemoryImageStore struct {
	mu     sync.RWMutex
	byID   map[string]domain.StoredImage
	byHash map[string]string
}

func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{
		byID:   make(map[string]domain.StoredImage),
		byHash: make(map[string]string),
	}
}

func (s *MemoryImageStore) Put(_ context.Context, img domain.StoredImage) (domain.StoredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[img.ContentHash]; exists {
		return domain.StoredImage{}, fmt.Errorf("%w: hash %s", ErrConflict, img.ContentHash)
	}

	img.ImageID = id.New()
	s.byID[img.ImageID] = img
	s.byHash[img.ContentHash] = img.ImageID
	return img, nil
}

func (s *MemoryImageStore) FindByHash(_ context.Context, contentHash string) (domain.StoredImage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	imageID, ok := s.byHash[contentHash]
	if !ok {
		return domain.StoredImage{}, false, nil
	}
	img := s.byID[imageID]
	return img, true, nil
}

func (s *MemoryImageStore) FindByID(_ context.Context, imageID string) (domain.StoredImage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.byID[imageID]
	return img, ok, nil
}
