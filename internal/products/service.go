package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/angelmondragon/shopcase-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopcase-backend/pkg/errors"
	"github.com/angelmondragon/shopcase-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes the product catalog operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uint) (*ProductDTO, error)
	ListProducts(ctx context.Context) ([]ProductDTO, error)
	UpdateProduct(ctx context.Context, id uint, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uint) (*ProductDTO, error)
}

// ImageUpload carries a pending upload into the service.
type ImageUpload struct {
	Reader   io.Reader
	Filename string
	MimeType string
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name  string
	Price decimal.Decimal
	Image *ImageUpload
}

// UpdateProductInput holds the payload to update a product. Image is
// optional; a nil Image keeps the stored file untouched.
type UpdateProductInput struct {
	Name  string
	Price decimal.Decimal
	Image *ImageUpload
}

type imageStore interface {
	Save(ctx context.Context, r io.Reader, originalName, mimeType string) (string, error)
	Delete(ctx context.Context, name string)
}

type service struct {
	repo  *Repository
	store imageStore
	logg  *logger.Logger
}

// NewService constructs the product service.
func NewService(repo *Repository, store imageStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("image store required")
	}
	return &service{repo: repo, store: store, logg: logg}, nil
}

// CreateProduct stores the image first, then inserts the row. A store
// failure aborts before the repository is touched, so no orphan row can
// exist. The inverse is not transactional: when the insert fails the
// already-stored file is orphaned, which is logged and accepted.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validateNameAndPrice(input.Name, input.Price); err != nil {
		return nil, err
	}
	if input.Image == nil || input.Image.Reader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}

	storedName, err := s.store.Save(ctx, input.Image.Reader, input.Image.Filename, input.Image.MimeType)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:  strings.TrimSpace(input.Name),
		Price: input.Price.Round(2),
		Image: storedName,
	}
	created, err := s.repo.Insert(ctx, product)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"stored_name": storedName,
				"error":       err.Error(),
			}), "product.create.orphaned_image")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}

	return NewProductDTO(created), nil
}

// GetProduct loads a single product.
func (s *service) GetProduct(ctx context.Context, id uint) (*ProductDTO, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "load product")
	}
	return NewProductDTO(product), nil
}

// ListProducts returns all products, newest first.
func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *NewProductDTO(&rows[i]))
	}
	return dtos, nil
}

// UpdateProduct replaces name and price, and optionally swaps the image.
// The swap order is store new, update row, delete old: the row never
// references a file that is not on disk, even when a step fails midway.
func (s *service) UpdateProduct(ctx context.Context, id uint, input UpdateProductInput) (*ProductDTO, error) {
	if err := validateNameAndPrice(input.Name, input.Price); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "load product")
	}

	imageName := current.Image
	oldImage := ""
	if input.Image != nil && input.Image.Reader != nil {
		storedName, err := s.store.Save(ctx, input.Image.Reader, input.Image.Filename, input.Image.MimeType)
		if err != nil {
			return nil, err
		}
		oldImage = imageName
		imageName = storedName
	}

	current.Name = strings.TrimSpace(input.Name)
	current.Price = input.Price.Round(2)
	current.Image = imageName

	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		// roll back the freshly stored file; the row still points at the old one
		if imageName != oldImage && oldImage != "" {
			s.store.Delete(ctx, imageName)
		}
		return nil, mapRepoError(err, "db: update product")
	}

	if oldImage != "" && oldImage != imageName {
		s.store.Delete(ctx, oldImage)
	}

	return NewProductDTO(updated), nil
}

// DeleteProduct removes the image file first, then the row, and returns the
// row as it existed before deletion. A crash between the two steps leaves a
// dangling reference, which future reads surface, rather than a silent
// orphan on disk.
func (s *service) DeleteProduct(ctx context.Context, id uint) (*ProductDTO, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "load product")
	}

	s.store.Delete(ctx, current.Image)

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "db: delete product")
	}
	return NewProductDTO(deleted), nil
}

func validateNameAndPrice(name string, price decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than 0")
	}
	return nil
}

func mapRepoError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
