package helpers

import (
	"time"

	model "auction-marketplace/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs

// PlaceBidRequest carries ids and money as strings so no precision is lost in transit.
// The bidder is the authenticated caller.
type PlaceBidRequest struct {
	ProductID string `json:"product_id" binding:"required,int_id"`
	Amount    string `json:"amount" binding:"required,decimal_amount"`
}

type CreateProductRequest struct {
	Name         string `json:"name" binding:"required,max=255"`
	Description  string `json:"description" binding:"max=4000"`
	ImageRef     string `json:"image_ref" binding:"omitempty,url"`
	StartingBid  string `json:"starting_bid" binding:"required,decimal_price"`
	DepartmentID *int64 `json:"department_id" binding:"omitempty,gt=0"`
}

type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type BidResponse struct {
	BidID     int64           `json:"bid_id"`
	ProductID int64           `json:"product_id"`
	BidderID  int64           `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt string          `json:"created_at"`
}

// RejectionDetails explains why a bid was refused
type RejectionDetails struct {
	Reason       string          `json:"reason"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// NewBidResponse converts a ledger entry for the wire
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		ProductID: bid.ProductID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// NewBidResponses converts a list of ledger entries
func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidResponse(b))
	}
	return out
}
