package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dunamismax/imagevault/internal/domain"
)

func TestMemoryImageStore_PutAssignsID(t *testing.T) {
	s := NewMemoryImageStore()
	ctx := context.Background()

	created, err := s.Put(ctx, testImage("hash-1"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if created.ImageID == "" {
		t.Fatal("expected an assigned image id")
	}

	other, err := s.Put(ctx, testImage("hash-2"))
	if err != nil {
		t.Fatalf("put second: %v", err)
	}
	if other.ImageID == created.ImageID {
		t.Fatal("expected distinct ids for distinct content")
	}
}

func TestMemoryImageStore_EnforcesHashUniqueness(t *testing.T) {
	s := NewMemoryImageStore()
	ctx := context.Background()

	if _, err := s.Put(ctx, testImage("same-hash")); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := s.Put(ctx, testImage("same-hash")); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMemoryImageStore_Lookups(t *testing.T) {
	s := NewMemoryImageStore()
	ctx := context.Background()

	created, err := s.Put(ctx, testImage("lookup-hash"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	byHash, found, err := s.FindByHash(ctx, "lookup-hash")
	if err != nil || !found {
		t.Fatalf("expected hit by hash, found=%v err=%v", found, err)
	}
	if byHash.ImageID != created.ImageID {
		t.Fatalf("expected id %s, got %s", created.ImageID, byHash.ImageID)
	}

	byID, found, err := s.FindByID(ctx, created.ImageID)
	if err != nil || !found {
		t.Fatalf("expected hit by id, found=%v err=%v", found, err)
	}
	if byID.ContentHash != "lookup-hash" {
		t.Fatalf("expected hash lookup-hash, got %s", byID.ContentHash)
	}

	if _, found, err := s.FindByHash(ctx, "absent"); err != nil || found {
		t.Fatalf("expected miss by hash, found=%v err=%v", found, err)
	}
	if _, found, err := s.FindByID(ctx, "absent"); err != nil || found {
		t.Fatalf("expected miss by id, found=%v err=%v", found, err)
	}
}

func testImage(hash string) domain.StoredImage {
	return domain.StoredImage{
		FileName:         "photo.png",
		Format:           domain.FormatPNG,
		Width:            10,
		Height:           10,
		ContentHash:      hash,
		EncryptedPayload: []byte{1, 2, 3},
		CreatedAt:        time.Now().UTC(),
	}
}
