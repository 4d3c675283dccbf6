package products

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/shopcase-backend/pkg/db/models"
	"github.com/angelmondragon/shopcase-backend/pkg/storage/localdisk"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:      name,
		Image:     fmt.Sprintf("%d-%s.jpg", time.Now().UnixMilli(), strings.ToLower(name)),
		Price:     decimal.NewFromFloat(9.99),
		CreatedAt: time.Now(),
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func newTestImageStore(t *testing.T) *localdisk.Store {
	t.Helper()
	store, err := localdisk.New(filepath.Join(t.TempDir(), "uploads"), 1<<20, nil)
	if err != nil {
		t.Fatalf("create image store: %v", err)
	}
	return store
}

func jpegUpload(name, content string) *ImageUpload {
	return &ImageUpload{
		Reader:   strings.NewReader(content),
		Filename: name,
		MimeType: "image/jpeg",
	}
}

// storeProbe gives tests direct access to the on-disk state of a store.
type storeProbe struct {
	store *localdisk.Store
}

func (p *storeProbe) fileExists(name string) bool {
	_, err := os.Stat(p.store.Resolve(name))
	return err == nil
}

func (p *storeProbe) fileCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(p.store.Root())
	if err != nil {
		t.Fatalf("read uploads dir: %v", err)
	}
	return len(entries)
}

// failingStore rejects every save; deletes are recorded for assertions.
type failingStore struct {
	deleted []string
}

func (f *failingStore) Save(ctx context.Context, r io.Reader, originalName, mimeType string) (string, error) {
	return "", fmt.Errorf("disk full")
}

func (f *failingStore) Delete(ctx context.Context, name string) {
	f.deleted = append(f.deleted, name)
}
