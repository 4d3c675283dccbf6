package localdisk

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/shopcase-backend/pkg/errors"
	"github.com/angelmondragon/shopcase-backend/pkg/logger"
	"github.com/google/uuid"
)

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
}

// AllowedMimeTypes returns the accepted upload content types, sorted.
func AllowedMimeTypes() []string {
	return []string{"image/gif", "image/jpeg", "image/png"}
}

// Store persists uploaded image binaries as uniquely named files under a
// single root directory. Stored names are bare filenames; callers build
// public URLs from them.
type Store struct {
	root     string
	maxBytes int64
	logg     *logger.Logger

	mu     sync.Mutex
	lastMS int64
}

// New creates the store and its root directory if absent.
func New(root string, maxBytes int64, logg *logger.Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("uploads root is required")
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir %q: %w", root, err)
	}
	return &Store{root: root, maxBytes: maxBytes, logg: logg}, nil
}

// Save writes the upload to disk and returns the stored filename. The file is
// fully written and renamed into place before Save returns; a failed write
// never leaves a visible partial file.
func (s *Store) Save(ctx context.Context, r io.Reader, originalName, mimeType string) (string, error) {
	mediaType, err := normalizeMimeType(mimeType)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInvalidMediaType, err, "unsupported image type").
			WithDetails(map[string]any{"allowed": AllowedMimeTypes()})
	}
	if _, ok := allowedMimeTypes[mediaType]; !ok {
		return "", pkgerrors.New(pkgerrors.CodeInvalidMediaType,
			"invalid image type, only JPEG, PNG, and GIF are allowed").
			WithDetails(map[string]any{"mime_type": mediaType})
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading upload")
	}
	if int64(len(data)) > s.maxBytes {
		return "", pkgerrors.New(pkgerrors.CodePayloadTooLarge,
			fmt.Sprintf("image exceeds the %d MiB upload limit", s.maxBytes>>20))
	}
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image upload is empty")
	}

	name := s.uniqueName(originalName)

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating temp upload file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing upload")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flushing upload")
	}
	if err := os.Rename(tmpName, s.Resolve(name)); err != nil {
		os.Remove(tmpName)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publishing upload")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"stored_name": name,
			"size_bytes":  len(data),
		}), "image.stored")
	}
	return name, nil
}

// Delete removes a stored file by name. Deleting a name that does not exist
// is a no-op; removal failures are logged, never propagated.
func (s *Store) Delete(ctx context.Context, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	err := os.Remove(s.Resolve(name))
	if err == nil || os.IsNotExist(err) {
		return
	}
	if s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"stored_name": name,
			"error":       err.Error(),
		}), "image.delete_failed")
	}
}

// Resolve maps a stored name to its absolute path. Pure path join, no I/O.
// Base strips any directory components, so a hostile name cannot escape the
// uploads root.
func (s *Store) Resolve(name string) string {
	return filepath.Join(s.root, filepath.Base(name))
}

// Root returns the uploads root directory.
func (s *Store) Root() string {
	return s.root
}

// uniqueName derives `<unix-ms>-<sanitized original>`. The millisecond prefix
// is forced to be monotonic per store instance; if the target somehow exists
// anyway a random suffix is appended.
func (s *Store) uniqueName(originalName string) string {
	s.mu.Lock()
	ms := time.Now().UnixMilli()
	if ms <= s.lastMS {
		ms = s.lastMS + 1
	}
	s.lastMS = ms
	s.mu.Unlock()

	name := fmt.Sprintf("%d-%s", ms, sanitizeFilename(originalName))
	if _, err := os.Stat(s.Resolve(name)); err == nil {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s-%s%s", strings.TrimSuffix(name, ext), uuid.NewString()[:8], ext)
	}
	return name
}

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeFilename lowercases the original name, maps every run of characters
// outside [A-Za-z0-9._-] to a single dash, and preserves the extension.
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "upload"
	}
	base = strings.ToLower(base)
	base = unsafeFilenameRe.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" || strings.Trim(base, ".") == "" {
		base = "upload"
	}
	return base
}

func normalizeMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}
