package catalog

import (
	"context"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/repository"
	"github.com/Domenick1991/partnerbooking/pkg/logger"
	"github.com/shopspring/decimal"
)

// PricingLookup prices packages for partners.
type PricingLookup interface {
	GetPackage(ctx context.Context, id int64) (*domain.Package, error)
	PriceForPartner(ctx context.Context, partnerID, packageID int64) (decimal.Decimal, error)
	B2BSavings(ctx context.Context, packageID int64) (decimal.Decimal, error)
}

type PackageCache interface {
	GetPackage(ctx context.Context, id int64) (*domain.Package, error)
	SetPackage(ctx context.Context, pkg *domain.Package) error
}

type Service struct {
	repo  repository.CatalogRepository
	cache PackageCache
	log   logger.Logger
}

// NewService builds the catalog service. cache may be nil.
func NewService(repo repository.CatalogRepository, cache PackageCache, log logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// GetPackage reads through the cache. Inactive packages are reported as not found.
func (s *Service) GetPackage(ctx context.Context, id int64) (*domain.Package, error) {
	if s.cache != nil {
		cached, err := s.cache.GetPackage(ctx, id)
		if err != nil {
			s.log.Warn("package cache read failed", "package_id", id, "error", err)
		} else if cached != nil {
			return activeOnly(cached)
		}
	}

	pkg, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetPackage(ctx, pkg); err != nil {
			s.log.Warn("package cache write failed", "package_id", id, "error", err)
		}
	}
	return activeOnly(pkg)
}

// PriceForPartner is the public per-traveler price. Partner-specific pricing is expressed as B2BSavings.
func (s *Service) PriceForPartner(ctx context.Context, partnerID, packageID int64) (decimal.Decimal, error) {
	pkg, err := s.GetPackage(ctx, packageID)
	if err != nil {
		return decimal.Zero, err
	}
	return pkg.Price, nil
}

func (s *Service) B2BSavings(ctx context.Context, packageID int64) (decimal.Decimal, error) {
	pkg, err := s.GetPackage(ctx, packageID)
	if err != nil {
		return decimal.Zero, err
	}
	return pkg.B2BSavings(), nil
}

func activeOnly(pkg *domain.Package) (*domain.Package, error) {
	if !pkg.Active {
		return nil, domain.ErrPackageNotFound
	}
	return pkg, nil
}

var _ PricingLookup = (*Service)(nil)
