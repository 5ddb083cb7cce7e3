package repository

import (
	"context"

	model "auction-marketplace/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// LedgerReader exposes the read side of the product catalog and bid ledger
type LedgerReader interface {
	GetProduct(ctx context.Context, productID int64) (model.Product, error)
	ListBidsByProduct(ctx context.Context, productID int64, order model.BidOrder, limit int) ([]model.Bid, error)
	CountBidsByProduct(ctx context.Context, productID int64) (int64, error)
}

// LedgerTx is the unit of work handed out while a product's bid set is locked.
// Reads observe every bid committed before the lock was granted.
type LedgerTx interface {
	LedgerReader
	AppendBid(ctx context.Context, bid model.Bid) (model.Bid, error)
}

// LockedFunc runs with exclusive access to one product's bid set
type LockedFunc func(tx LedgerTx, product model.Product) error

// AuctionDB defines the storage interface for the auction system
type AuctionDB interface {
	LedgerReader

	// WithProductLock serializes fn against every other WithProductLock call for
	// the same product. Bids appended inside fn are committed only when fn returns nil.
	WithProductLock(ctx context.Context, productID int64, fn LockedFunc) error

	CreateProduct(ctx context.Context, product model.Product) (model.Product, error)
	ListProducts(ctx context.Context) ([]model.ProductListing, error)
	ListProductsByBidder(ctx context.Context, userID int64) ([]model.Product, error)

	GetUser(ctx context.Context, userID int64) (model.User, error)

	CreateDepartment(ctx context.Context, name string) (model.Department, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)

	Ping(ctx context.Context) error
}
