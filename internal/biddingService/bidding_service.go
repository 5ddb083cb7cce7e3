package bidding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/bidrules"
	"auction-marketplace/internal/metrics"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/pricing"
	"auction-marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	// DefaultHistoryLimit is the number of bids returned by a history view when none is requested
	DefaultHistoryLimit = 50
	// MaxHistoryLimit caps a requested history size
	MaxHistoryLimit = 200
)

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	repo     repository.AuctionDB
	recorder metrics.BidRecorder
}

// Option configures a BiddingService
type Option func(*BiddingService)

// WithRecorder reports placement outcomes to r
func WithRecorder(r metrics.BidRecorder) Option {
	return func(s *BiddingService) {
		s.recorder = r
	}
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo:     repo,
		recorder: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceBid validates and records a user's bid for a product.
// Price resolution, validation and the append run under the product's lock,
// so a bid is judged against the price at commit time, not at request time.
func (s *BiddingService) PlaceBid(ctx context.Context, productID, bidderID int64, amount decimal.Decimal) Outcome {
	start := time.Now()
	out := s.placeBid(ctx, productID, bidderID, amount)
	s.record(out, time.Since(start))
	return out
}

func (s *BiddingService) placeBid(ctx context.Context, productID, bidderID int64, amount decimal.Decimal) Outcome {
	if productID <= 0 || bidderID <= 0 {
		return failed(OutcomeInvalid, fmt.Errorf("service: %w - product and bidder ids must be positive", biddingerrors.ErrInvalidInput))
	}
	if !amount.IsPositive() {
		return failed(OutcomeInvalid, fmt.Errorf("service: %w - non-positive bid amount", biddingerrors.ErrInvalidInput))
	}
	if !model.MoneyFits(amount) {
		return failed(OutcomeInvalid, fmt.Errorf("service: %w - bid amount %s needs more than two decimals or exceeds %s", biddingerrors.ErrInvalidInput, amount, model.MaxMoney))
	}

	var out Outcome
	err := s.repo.WithProductLock(ctx, productID, func(tx repository.LedgerTx, product model.Product) error {
		quote, err := pricing.ResolveFor(ctx, tx, product)
		if err != nil {
			return err
		}

		decision := bidrules.Validate(product, bidderID, amount, quote.CurrentPrice)
		if !decision.Accepted {
			out = rejected(decision)
			return nil
		}

		bid, err := tx.AppendBid(ctx, model.Bid{
			ProductID: productID,
			BidderID:  bidderID,
			Amount:    amount,
		})
		if err != nil {
			return err
		}
		out = committed(bid)
		return nil
	})

	switch {
	case err == nil:
		return out
	case errors.Is(err, biddingerrors.ErrProductNotFound), errors.Is(err, biddingerrors.ErrBidderNotFound):
		return failed(OutcomeNotFound, fmt.Errorf("service: failed to place bid on product %d: %w", productID, err))
	case errors.Is(err, biddingerrors.ErrInvalidInput):
		return failed(OutcomeInvalid, fmt.Errorf("service: failed to place bid on product %d: %w", productID, err))
	case errors.Is(err, biddingerrors.ErrStorage):
		return failed(OutcomeFailed, fmt.Errorf("service: failed to record bid on product %d by user %d: %w", productID, bidderID, err))
	default:
		return failed(OutcomeFailed, fmt.Errorf("service: failed to record bid on product %d by user %d: %w: %w", productID, bidderID, biddingerrors.ErrStorage, err))
	}
}

func (s *BiddingService) record(out Outcome, elapsed time.Duration) {
	s.recorder.RecordPlaceBidLatency(elapsed)
	switch out.Kind {
	case OutcomeCommitted:
		s.recorder.RecordBidCommitted()
	case OutcomeRejected:
		s.recorder.RecordBidRejected(string(out.Decision.Reason))
	default:
		s.recorder.RecordBidFailure(out.Kind.String())
	}
}

// GetBidHistory returns the most recent bids of a product, newest first
func (s *BiddingService) GetBidHistory(ctx context.Context, productID int64, limit int) ([]model.Bid, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("service: %w - invalid product ID", biddingerrors.ErrInvalidInput)
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, fmt.Errorf("service: failed to get bids for product %d: %w", productID, err)
	}

	bids, err := s.repo.ListBidsByProduct(ctx, productID, model.BidOrderNewest, limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for product %d: %w", productID, err)
	}

	return bids, nil
}

// GetWinningBid returns the highest bid for a product
func (s *BiddingService) GetWinningBid(ctx context.Context, productID int64) (model.Bid, error) {
	if productID <= 0 {
		return model.Bid{}, fmt.Errorf("service: %w - invalid product ID", biddingerrors.ErrInvalidInput)
	}

	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get winning bid for product %d: %w", productID, err)
	}

	top, err := s.repo.ListBidsByProduct(ctx, productID, model.BidOrderHighest, 1)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get winning bid for product %d: %w", productID, err)
	}
	if len(top) == 0 {
		return model.Bid{}, fmt.Errorf("service: product %d: %w", productID, biddingerrors.ErrNoBids)
	}

	return top[0], nil
}

// GetCurrentPrice returns the derived price and bid count of a product
func (s *BiddingService) GetCurrentPrice(ctx context.Context, productID int64) (model.PriceQuote, error) {
	if productID <= 0 {
		return model.PriceQuote{}, fmt.Errorf("service: %w - invalid product ID", biddingerrors.ErrInvalidInput)
	}

	quote, err := pricing.Resolve(ctx, s.repo, productID)
	if err != nil {
		return model.PriceQuote{}, fmt.Errorf("service: failed to resolve price for product %d: %w", productID, err)
	}

	return quote, nil
}

// GetProductsByBidder returns all products a user has placed bids on
func (s *BiddingService) GetProductsByBidder(ctx context.Context, userID int64) ([]model.Product, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("service: %w - invalid user ID", biddingerrors.ErrInvalidInput)
	}

	products, err := s.repo.ListProductsByBidder(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get products for user %d: %w", userID, err)
	}

	return products, nil
}
