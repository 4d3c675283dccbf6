package products

import (
	"context"

	"github.com/angelmondragon/shopcase-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the persistence contract over the products table.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert creates a new product row and returns it with the assigned id and
// created_at.
func (r *Repository) Insert(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// GetAll returns every product, newest first. The id tiebreak keeps the
// order stable when rows share a created_at timestamp.
func (r *Repository) GetAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).
		Error
	return rows, err
}

// GetByID loads a single product.
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Update replaces the mutable fields of an existing row.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteByID removes a product and returns its prior state so callers can
// clean up the backing image file.
func (r *Repository) DeleteByID(ctx context.Context, id uint) (*models.Product, error) {
	prior, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error; err != nil {
		return nil, err
	}
	return prior, nil
}
