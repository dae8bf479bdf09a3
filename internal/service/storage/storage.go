// internal/service/storage/storage.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"regexp"
	"strings"
	"time"

	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxUploadSize = 5 << 20
	MaxDimension  = 1600
)

var allowedTypes = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/webp": -1,
}

// ObjectStore persists bytes under key and returns a public URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Moderator rejects images that should not be published.
type Moderator interface {
	Check(ctx context.Context, data []byte) error
}

// Service validates, moderates, downscales and stores images.
type Service struct {
	store     ObjectStore
	moderator Moderator
	logger    *zap.Logger
}

// NewService builds the upload pipeline; moderator may be nil.
func NewService(store ObjectStore, moderator Moderator, logger *zap.Logger) *Service {
	return &Service{store: store, moderator: moderator, logger: logger}
}

// UploadImage stores an image under folder and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, folder, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", xerrors.Required("file", "File")
	}
	if len(data) > MaxUploadSize {
		return "", xerrors.Invalid("file", "File exceeds the 5MB limit")
	}

	contentType := http.DetectContentType(data)
	format, ok := allowedTypes[contentType]
	if !ok {
		return "", xerrors.Invalid("file", "Only JPEG, PNG and WebP images are allowed")
	}

	if s.moderator != nil {
		if err := s.moderator.Check(ctx, data); err != nil {
			return "", err
		}
	}

	if format >= 0 {
		resized, err := downscale(data, format)
		if err != nil {
			s.logger.Warn("image resize skipped", zap.String("filename", filename), zap.Error(err))
		} else {
			data = resized
		}
	}

	key := ObjectKey(folder, filename, time.Now())
	url, err := s.store.Put(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	s.logger.Info("image uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return url, nil
}

// downscale fits the image inside MaxDimension; smaller images are
// returned untouched.
func downscale(data []byte, format imaging.Format) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= MaxDimension && cfg.Height <= MaxDimension {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// ObjectKey builds folder/<date>-<uuid>-<sanitized name>.
func ObjectKey(folder, filename string, now time.Time) string {
	name := unsafeChars.ReplaceAllString(strings.TrimSpace(filename), "_")
	if name == "" || name == "_" {
		name = "image"
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return fmt.Sprintf("%s/%s-%s-%s", folder, now.Format("20060102"), uuid.New().String(), name)
}
