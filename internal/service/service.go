// Package service sequences the ingestion pipeline and the retrieval path.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dunamismax/imagevault/internal/cryptobox"
	"github.com/dunamismax/imagevault/internal/domain"
	"github.com/dunamismax/imagevault/internal/hashing"
	"github.com/dunamismax/imagevault/internal/imaging"
	"github.com/dunamismax/imagevault/internal/store"
)

var ErrNotFound = errors.New("image not found")

// stage names the step of the ingestion sequence a failure happened in.
// Done and Failed are the terminal outcomes; every error Import returns is
// tagged with the stage it aborted from.
type stage string

const (
	stageValidating stage = "validate"
	stageDecoding   stage = "decode"
	stageHashing    stage = "hash"
	stageDeduping   stage = "dedup"
	stageEncrypting stage = "encrypt"
	stagePersisting stage = "persist"
)

type Service struct {
	images store.ImageStore
	codec  *cryptobox.Codec
	logger zerolog.Logger
	now    func() time.Time
}

func New(images store.ImageStore, codec *cryptobox.Codec, logger zerolog.Logger) *Service {
	return &Service{
		images: images,
		codec:  codec,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Import runs the full ingestion sequence: validate, resize to canonical
// bytes, hash, dedup lookup, encrypt, persist. A dedup hit short-circuits
// before encryption and returns the existing identifier. A persist conflict
// means a concurrent upload of identical content won the race; the winner's
// record is re-read and returned instead of surfacing the conflict.
func (s *Service) Import(ctx context.Context, req domain.UploadRequest) (domain.ImportResult, error) {
	if err := req.Validate(); err != nil {
		return domain.ImportResult{}, failed(stageValidating, err)
	}
	format, err := domain.ParseFormat(req.TargetFormat)
	if err != nil {
		return domain.ImportResult{}, failed(stageValidating, err)
	}

	select {
	case <-ctx.Done():
		return domain.ImportResult{}, failed(stageDecoding, ctx.Err())
	default:
	}

	canonical, width, height, err := imaging.Resize(req.RawImageBytes, req.TargetWidth, req.TargetHeight, req.KeepAspectRatio, format)
	if err != nil {
		return domain.ImportResult{}, failed(stageDecoding, err)
	}

	contentHash := hashing.Digest(canonical)

	existing, found, err := s.images.FindByHash(ctx, contentHash)
	if err != nil {
		return domain.ImportResult{}, failed(stageDeduping, err)
	}
	if found {
		s.logger.Info().
			Str("image_id", existing.ImageID).
			Str("content_hash", contentHash).
			Msg("duplicate content detected")
		return domain.ImportResult{ImageID: existing.ImageID, AlreadyExists: true}, nil
	}

	select {
	case <-ctx.Done():
		return domain.ImportResult{}, failed(stageEncrypting, ctx.Err())
	default:
	}

	record := domain.StoredImage{
		FileName:         req.OriginalName,
		Format:           format,
		Width:            width,
		Height:           height,
		ContentHash:      contentHash,
		EncryptedPayload: s.codec.Encrypt(canonical),
		CreatedAt:        s.now(),
		Owner:            req.CallerIdentity,
	}

	created, err := s.images.Put(ctx, record)
	if errors.Is(err, store.ErrConflict) {
		// A concurrent identical-content upload committed first; its row is
		// the canonical one.
		winner, found, err := s.images.FindByHash(ctx, contentHash)
		if err != nil {
			return domain.ImportResult{}, failed(stageDeduping, err)
		}
		if !found {
			return domain.ImportResult{}, failed(stageDeduping, fmt.Errorf("conflict reported for hash %s but no record found", contentHash))
		}
		return domain.ImportResult{ImageID: winner.ImageID, AlreadyExists: true}, nil
	}
	if err != nil {
		return domain.ImportResult{}, failed(stagePersisting, err)
	}

	s.logger.Info().
		Str("image_id", created.ImageID).
		Str("format", string(created.Format)).
		Int("width", created.Width).
		Int("height", created.Height).
		Msg("image stored")
	return domain.ImportResult{ImageID: created.ImageID, AlreadyExists: false}, nil
}

// GetBytes looks up a record and returns its decrypted canonical bytes
// along with the stored format.
func (s *Service) GetBytes(ctx context.Context, imageID string) ([]byte, domain.Format, error) {
	img, found, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return nil, "", err
	}
	if !found || len(img.EncryptedPayload) == 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, imageID)
	}

	plaintext, err := s.codec.Decrypt(img.EncryptedPayload)
	if err != nil {
		return nil, "", fmt.Errorf("decrypt image %s: %w", imageID, err)
	}
	return plaintext, img.Format, nil
}

// GetInfo returns record metadata. It never decrypts: the stored size is
// the ciphertext length and no plaintext is exposed.
func (s *Service) GetInfo(ctx context.Context, imageID string) (domain.ImageInfo, error) {
	img, found, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return domain.ImageInfo{}, err
	}
	if !found {
		return domain.ImageInfo{}, fmt.Errorf("%w: %s", ErrNotFound, imageID)
	}

	return domain.ImageInfo{
		OriginalFilename:  img.FileName,
		Format:            img.Format,
		CreatedAt:         img.CreatedAt,
		Width:             img.Width,
		Height:            img.Height,
		StoredSizeInBytes: len(img.EncryptedPayload),
		Owner:             img.Owner,
	}, nil
}

func failed(st stage, err error) error {
	return fmt.Errorf("%s stage: %w", st, err)
}
