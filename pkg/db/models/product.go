package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog row. Image holds the stored filename inside the
// uploads directory, never a path.
type Product struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string          `gorm:"column:name;not null"`
	Image     string          `gorm:"column:image;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the table name used by migrations.
func (Product) TableName() string {
	return "products"
}
