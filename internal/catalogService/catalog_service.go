package catalog

import (
	"context"
	"fmt"
	"strings"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/pricing"
	"auction-marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

// NewProduct carries the seller-supplied fields of a listing
type NewProduct struct {
	SellerID     int64
	DepartmentID *int64
	Name         string
	Description  string
	ImageRef     string
	StartingBid  decimal.Decimal
}

// CatalogService manages products and departments
type CatalogService struct {
	repo repository.AuctionDB
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(repo repository.AuctionDB) *CatalogService {
	return &CatalogService{repo: repo}
}

// CreateProduct lists a new product for auction
func (s *CatalogService) CreateProduct(ctx context.Context, in NewProduct) (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Product{}, fmt.Errorf("catalog: %w - product name is required", biddingerrors.ErrInvalidInput)
	}
	if in.SellerID <= 0 {
		return model.Product{}, fmt.Errorf("catalog: %w - invalid seller ID", biddingerrors.ErrInvalidInput)
	}
	if in.StartingBid.IsNegative() {
		return model.Product{}, fmt.Errorf("catalog: %w - starting bid must not be negative", biddingerrors.ErrInvalidInput)
	}
	if !model.MoneyFits(in.StartingBid) {
		return model.Product{}, fmt.Errorf("catalog: %w - starting bid %s needs more than two decimals or exceeds %s", biddingerrors.ErrInvalidInput, in.StartingBid, model.MaxMoney)
	}
	if in.DepartmentID != nil && *in.DepartmentID <= 0 {
		return model.Product{}, fmt.Errorf("catalog: %w - invalid department ID", biddingerrors.ErrInvalidInput)
	}

	product, err := s.repo.CreateProduct(ctx, model.Product{
		SellerID:     in.SellerID,
		DepartmentID: in.DepartmentID,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		ImageRef:     strings.TrimSpace(in.ImageRef),
		StartingBid:  in.StartingBid,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("catalog: failed to create product for seller %d: %w", in.SellerID, err)
	}

	return product, nil
}

// GetProduct returns a product with its current price
func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (model.ProductListing, error) {
	if productID <= 0 {
		return model.ProductListing{}, fmt.Errorf("catalog: %w - invalid product ID", biddingerrors.ErrInvalidInput)
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return model.ProductListing{}, fmt.Errorf("catalog: failed to get product %d: %w", productID, err)
	}

	quote, err := pricing.ResolveFor(ctx, s.repo, product)
	if err != nil {
		return model.ProductListing{}, fmt.Errorf("catalog: failed to get product %d: %w", productID, err)
	}

	return model.ProductListing{
		Product:      product,
		CurrentPrice: quote.CurrentPrice,
		BidCount:     quote.BidCount,
	}, nil
}

// ListProducts returns every listing, newest first
func (s *CatalogService) ListProducts(ctx context.Context) ([]model.ProductListing, error) {
	listings, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list products: %w", err)
	}
	return listings, nil
}

// CreateDepartment adds a department
func (s *CatalogService) CreateDepartment(ctx context.Context, name string) (model.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Department{}, fmt.Errorf("catalog: %w - department name is required", biddingerrors.ErrInvalidInput)
	}

	dept, err := s.repo.CreateDepartment(ctx, name)
	if err != nil {
		return model.Department{}, fmt.Errorf("catalog: failed to create department: %w", err)
	}
	return dept, nil
}

// ListDepartments returns all departments ordered by name
func (s *CatalogService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	depts, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list departments: %w", err)
	}
	return depts, nil
}
