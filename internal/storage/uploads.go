// Package storage keeps uploaded post images on local disk.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"miniblog/internal/models"
	"miniblog/internal/observability"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// PublicPrefix is the URL path under which stored files are served.
const PublicPrefix = "/uploads/"

const maxNameLength = 100

var (
	allowedMIME = regexp.MustCompile(`(?i)jpeg|jpg|png|gif|webp`)
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// Store writes validated images into a directory.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewStore creates dir if needed and returns a store capped at maxBytes per file.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) tooLarge() *models.AppError {
	return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
}

// Save validates an uploaded image and stores it. It returns the public path.
func (s *Store) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if !allowedMIME.MatchString(fh.Header.Get("Content-Type")) {
		return "", models.NewValidationError("Only images allowed")
	}
	if fh.Size > s.maxBytes {
		return "", s.tooLarge()
	}

	f, err := fh.Open()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", s.tooLarge()
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", models.NewValidationError("Only images allowed")
	}

	name := fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), uuid.NewString()[:8], SanitizeName(fh.Filename))
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", models.NewInternalError(err)
	}

	observability.Logger.InfoContext(ctx, "Image stored",
		slog.String("file", name),
		slog.Int("bytes", len(data)),
	)
	return PublicPrefix + name, nil
}

// Remove deletes a file previously returned by Save. Unknown paths are ignored.
func (s *Store) Remove(publicPath string) {
	name := strings.TrimPrefix(publicPath, PublicPrefix)
	if name == "" || name == publicPath || name != filepath.Base(name) {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		observability.Logger.Warn("Failed to remove upload", slog.String("file", name), slog.String("error", err.Error()))
	}
}

// SanitizeName reduces a client file name to a safe base name.
func SanitizeName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "image"
	}
	if len(base) > maxNameLength {
		base = base[len(base)-maxNameLength:]
	}
	return base
}
