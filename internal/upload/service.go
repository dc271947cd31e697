package upload

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"bkp-platform/internal/audit"
	"bkp-platform/internal/auth"

	"github.com/google/uuid"
)

// MaxPresignExpiry caps how long a presigned PUT URL stays valid.
const MaxPresignExpiry = time.Hour

var ErrInvalidInput = errors.New("upload: invalid input")

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Service runs the presign/confirm upload workflow. Identity arrives as an
// explicit argument; ownership checks happen through the identity-scoped
// repository lookups.
type Service struct {
	files Repository
	store ObjectStore
	audit *audit.Service
	clock func() time.Time
}

func NewService(files Repository, store ObjectStore, auditSvc *audit.Service) *Service {
	return &Service{files: files, store: store, audit: auditSvc, clock: time.Now}
}

type PresignInput struct {
	Filename    string
	ContentType string
	Prefix      string
	ExpiresIn   time.Duration
}

type PresignResult struct {
	UploadURL string    `json:"upload_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Presign creates a PENDING file record and returns a presigned PUT URL the
// client uploads to directly.
func (s *Service) Presign(ctx context.Context, identity auth.Identity, in PresignInput) (PresignResult, error) {
	if in.Filename == "" || len(in.Filename) > 255 {
		return PresignResult{}, ErrInvalidInput
	}
	if in.ContentType == "" || len(in.ContentType) > 255 {
		return PresignResult{}, ErrInvalidInput
	}
	if in.ExpiresIn <= 0 {
		in.ExpiresIn = MaxPresignExpiry
	}
	if in.ExpiresIn > MaxPresignExpiry {
		return PresignResult{}, ErrInvalidInput
	}

	now := s.clock()
	key, filename := s.buildKey(identity.ID, in.Filename, in.Prefix, now)

	url, err := s.store.PresignPut(ctx, key, in.ContentType, in.ExpiresIn)
	if err != nil {
		return PresignResult{}, err
	}

	f := &File{
		ID:               uuid.NewString(),
		UserID:           identity.ID,
		Key:              key,
		Filename:         filename,
		OriginalFilename: in.Filename,
		ContentType:      in.ContentType,
		Status:           StatusPending,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
	if err := s.files.Create(ctx, f); err != nil {
		return PresignResult{}, err
	}

	s.audit.Record(ctx, "upload.presign", map[string]any{"key": key, "content_type": in.ContentType})

	return PresignResult{
		UploadURL: url,
		Key:       key,
		ExpiresAt: now.Add(in.ExpiresIn).UTC(),
	}, nil
}

type ConfirmResult struct {
	Key              string `json:"key"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
	URL              string `json:"url"`
	Status           Status `json:"status"`
}

// Confirm verifies the object landed in storage and flips the record to
// UPLOADED. Only the owning user can confirm a key.
func (s *Service) Confirm(ctx context.Context, identity auth.Identity, key string) (ConfirmResult, error) {
	if key == "" {
		return ConfirmResult{}, ErrInvalidInput
	}

	f, err := s.files.FindByKeyForUser(ctx, key, identity.ID)
	if err != nil {
		return ConfirmResult{}, err
	}

	stat, err := s.store.Head(ctx, key)
	if err != nil {
		return ConfirmResult{}, ErrNotUploaded
	}

	if err := s.files.MarkUploaded(ctx, f.ID, stat.Size); err != nil {
		return ConfirmResult{}, err
	}

	s.audit.Record(ctx, "upload.confirm", map[string]any{"key": key, "size": stat.Size})

	return ConfirmResult{
		Key:              f.Key,
		Filename:         f.Filename,
		OriginalFilename: f.OriginalFilename,
		ContentType:      f.ContentType,
		Size:             stat.Size,
		URL:              s.store.PublicURL(f.Key),
		Status:           StatusUploaded,
	}, nil
}

// buildKey produces a collision-resistant object key scoped to the user:
// {prefix/}userID/{unixMillis}-{shortID}-{sanitizedFilename}
func (s *Service) buildKey(userID, originalFilename, prefix string, now time.Time) (key, filename string) {
	sanitized := unsafeKeyChars.ReplaceAllString(originalFilename, "_")
	filename = fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:5], sanitized)
	key = fmt.Sprintf("%s/%s", userID, filename)
	if prefix != "" {
		key = fmt.Sprintf("%s/%s", unsafeKeyChars.ReplaceAllString(prefix, "_"), key)
	}
	return key, filename
}
