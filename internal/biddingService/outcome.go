package bidding

import (
	"fmt"

	"auction-marketplace/internal/bidrules"
	model "auction-marketplace/internal/models"

	"github.com/shopspring/decimal"
)

// OutcomeKind tags the terminal state of a bid placement
type OutcomeKind int

const (
	// OutcomeCommitted means the bid was appended to the ledger
	OutcomeCommitted OutcomeKind = iota
	// OutcomeRejected means a business rule refused the bid
	OutcomeRejected
	// OutcomeNotFound means the product or the bidder does not exist
	OutcomeNotFound
	// OutcomeInvalid means the request was malformed
	OutcomeInvalid
	// OutcomeFailed means storage failed; nothing was written
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCommitted:
		return "committed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of PlaceBid. Exactly one of Bid (Committed),
// Decision (Rejected) or Cause (NotFound, Invalid, Failed) is meaningful.
type Outcome struct {
	Kind     OutcomeKind
	Bid      model.Bid
	Decision bidrules.Decision
	Cause    error
}

// Committed reports whether the bid is now part of the ledger
func (o Outcome) Committed() bool { return o.Kind == OutcomeCommitted }

// CurrentPrice is the price the rejected bid was checked against
func (o Outcome) CurrentPrice() decimal.Decimal { return o.Decision.CurrentPrice }

// Err converts the outcome into an error wrapping the matching sentinel, or nil when committed
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeCommitted:
		return nil
	case OutcomeRejected:
		return fmt.Errorf("service: %w - %s", o.Decision.Reason.Err(), o.Decision.Message())
	default:
		return o.Cause
	}
}

func committed(bid model.Bid) Outcome {
	return Outcome{Kind: OutcomeCommitted, Bid: bid}
}

func rejected(d bidrules.Decision) Outcome {
	return Outcome{Kind: OutcomeRejected, Decision: d}
}

func failed(kind OutcomeKind, cause error) Outcome {
	return Outcome{Kind: kind, Cause: cause}
}
