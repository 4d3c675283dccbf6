package products

import (
	"time"

	"github.com/angelmondragon/shopcase-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// ProductDTO is the product payload returned to clients. Image is the bare
// stored filename; clients build `/uploads/<image>` URLs from it.
type ProductDTO struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     product.Image,
		CreatedAt: product.CreatedAt,
	}
}
