// Package pricing derives a product's current price and bid count from its
// bid ledger. Prices are never stored; every call recomputes them.
package pricing

import (
	"context"
	"fmt"

	model "auction-marketplace/internal/models"
)

// Querier is the slice of the ledger the resolver reads from. Passing a
// locked transaction makes the quote consistent with a subsequent append.
type Querier interface {
	GetProduct(ctx context.Context, productID int64) (model.Product, error)
	ListBidsByProduct(ctx context.Context, productID int64, order model.BidOrder, limit int) ([]model.Bid, error)
	CountBidsByProduct(ctx context.Context, productID int64) (int64, error)
}

// Resolve looks up the product and computes its quote.
// Returns biddingerrors.ErrProductNotFound (wrapped) for unknown products.
func Resolve(ctx context.Context, q Querier, productID int64) (model.PriceQuote, error) {
	product, err := q.GetProduct(ctx, productID)
	if err != nil {
		return model.PriceQuote{}, fmt.Errorf("pricing: %w", err)
	}
	return ResolveFor(ctx, q, product)
}

// ResolveFor computes the quote of an already loaded product
func ResolveFor(ctx context.Context, q Querier, product model.Product) (model.PriceQuote, error) {
	top, err := q.ListBidsByProduct(ctx, product.ProductID, model.BidOrderHighest, 1)
	if err != nil {
		return model.PriceQuote{}, fmt.Errorf("pricing: highest bid for product %d: %w", product.ProductID, err)
	}

	count, err := q.CountBidsByProduct(ctx, product.ProductID)
	if err != nil {
		return model.PriceQuote{}, fmt.Errorf("pricing: bid count for product %d: %w", product.ProductID, err)
	}

	return Quote(product, top, count), nil
}

// Quote builds a price quote from the highest-first projection of a ledger.
// Only the first element of highestFirst is consulted.
func Quote(product model.Product, highestFirst []model.Bid, count int64) model.PriceQuote {
	current := product.StartingBid
	if len(highestFirst) > 0 {
		current = highestFirst[0].Amount
	}
	return model.PriceQuote{
		ProductID:    product.ProductID,
		StartingBid:  product.StartingBid,
		CurrentPrice: current,
		BidCount:     count,
	}
}
