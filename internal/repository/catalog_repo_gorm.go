package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CatalogRepository interface {
	GetPackage(ctx context.Context, id int64) (*domain.Package, error)
}

// GormCatalogRepository reads the package catalog maintained by the admin console.
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &GormCatalogRepository{db: db}
}

// Packages GORM model for database mapping
type Packages struct {
	ID        int64           `gorm:"primaryKey"`
	Name      string          `gorm:"column:name"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(15,2)"`
	B2BPrice  decimal.Decimal `gorm:"column:b2b_price;type:numeric(15,2)"`
	Quota     int             `gorm:"column:quota"`
	IsActive  bool            `gorm:"column:is_active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Packages) TableName() string {
	return "packages"
}

func (r *GormCatalogRepository) GetPackage(ctx context.Context, id int64) (*domain.Package, error) {
	var record Packages
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, result.Error
	}
	return record.toDomain(), nil
}

func (p Packages) toDomain() *domain.Package {
	return &domain.Package{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		B2BPrice: p.B2BPrice,
		Quota:    p.Quota,
		Active:   p.IsActive,
	}
}

var _ CatalogRepository = (*GormCatalogRepository)(nil)
