// Package bidrules holds the business rules a bid must satisfy before it may
// be appended to a product's ledger.
package bidrules

import (
	"fmt"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"

	"github.com/shopspring/decimal"
)

// Reason identifies why a bid was rejected
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonSelfBid   Reason = "SELF_BID"
	ReasonBidTooLow Reason = "BID_TOO_LOW"
)

// Err maps the reason onto its sentinel error
func (r Reason) Err() error {
	switch r {
	case ReasonSelfBid:
		return biddingerrors.ErrSelfBid
	case ReasonBidTooLow:
		return biddingerrors.ErrBidTooLow
	default:
		return nil
	}
}

// Decision is the result of validating one bid
type Decision struct {
	Accepted bool
	Reason   Reason
	// CurrentPrice is the price the bid was checked against
	CurrentPrice decimal.Decimal
}

// Message renders a user-correctable explanation of a rejection
func (d Decision) Message() string {
	switch d.Reason {
	case ReasonSelfBid:
		return "you cannot bid on your own item"
	case ReasonBidTooLow:
		return fmt.Sprintf("bid must be greater than $%s", d.CurrentPrice.StringFixed(2))
	default:
		return ""
	}
}

// Validate applies the bidding rules in order; the first failing rule wins.
func Validate(product model.Product, bidderID int64, amount, currentPrice decimal.Decimal) Decision {
	if bidderID == product.SellerID {
		return Decision{Reason: ReasonSelfBid, CurrentPrice: currentPrice}
	}
	// ties lose: a bid must strictly exceed the current price
	if amount.LessThanOrEqual(currentPrice) {
		return Decision{Reason: ReasonBidTooLow, CurrentPrice: currentPrice}
	}
	return Decision{Accepted: true, CurrentPrice: currentPrice}
}
