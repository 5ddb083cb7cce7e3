package bidding

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"

	"github.com/stretchr/testify/require"
)

const seededUsers = 100

// newSeededRepo returns a memory ledger with users 1..seededUsers and
// product 1 sold by user 1 at the given starting bid
func newSeededRepo(t *testing.T, startingBid string) *repository.MemoryRepo {
	t.Helper()

	repo := repository.NewMemoryRepo()
	for id := int64(1); id <= seededUsers; id++ {
		repo.AddUser(model.User{UserID: id, Username: fmt.Sprintf("user%d", id)})
	}
	repo.AddProduct(model.Product{
		ProductID:   1,
		SellerID:    1,
		Name:        "Vintage Camera",
		StartingBid: dec(startingBid),
	})
	return repo
}

func TestPlaceBid_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("first_bid_above_starting", func(t *testing.T) {
		service := NewBiddingService(newSeededRepo(t, "10.00"))

		out := service.PlaceBid(ctx, 1, 2, dec("10.01"))
		require.True(t, out.Committed())

		quote, err := service.GetCurrentPrice(ctx, 1)
		require.NoError(t, err)
		require.True(t, quote.CurrentPrice.Equal(dec("10.01")))
	})

	t.Run("tie_with_starting_bid_rejected", func(t *testing.T) {
		service := NewBiddingService(newSeededRepo(t, "10.00"))

		out := service.PlaceBid(ctx, 1, 2, dec("10.00"))
		require.Equal(t, OutcomeRejected, out.Kind)
		require.ErrorIs(t, out.Err(), biddingerrors.ErrBidTooLow)
		require.True(t, out.CurrentPrice().Equal(dec("10.00")))
		require.Equal(t, "bid must be greater than $10.00", out.Decision.Message())

		history, err := service.GetBidHistory(ctx, 1, 0)
		require.NoError(t, err)
		require.Empty(t, history)
	})

	t.Run("self_bid_rejected_regardless_of_amount", func(t *testing.T) {
		service := NewBiddingService(newSeededRepo(t, "10.00"))

		out := service.PlaceBid(ctx, 1, 1, dec("1000000"))
		require.Equal(t, OutcomeRejected, out.Kind)
		require.ErrorIs(t, out.Err(), biddingerrors.ErrSelfBid)
	})

	t.Run("outbid_then_equal_rejected", func(t *testing.T) {
		service := NewBiddingService(newSeededRepo(t, "10.00"))

		require.True(t, service.PlaceBid(ctx, 1, 2, dec("20")).Committed())
		require.True(t, service.PlaceBid(ctx, 1, 3, dec("25")).Committed())

		out := service.PlaceBid(ctx, 1, 2, dec("25"))
		require.Equal(t, OutcomeRejected, out.Kind)
		require.True(t, out.CurrentPrice().Equal(dec("25")))

		winner, err := service.GetWinningBid(ctx, 1)
		require.NoError(t, err)
		require.EqualValues(t, 3, winner.BidderID)

		history, err := service.GetBidHistory(ctx, 1, 0)
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.EqualValues(t, 3, history[0].BidderID)
		require.EqualValues(t, 2, history[1].BidderID)
	})

	t.Run("unknown_product_and_bidder", func(t *testing.T) {
		service := NewBiddingService(newSeededRepo(t, "10.00"))

		out := service.PlaceBid(ctx, 2, 2, dec("11"))
		require.Equal(t, OutcomeNotFound, out.Kind)
		require.ErrorIs(t, out.Err(), biddingerrors.ErrProductNotFound)

		out = service.PlaceBid(ctx, 1, seededUsers+1, dec("11"))
		require.Equal(t, OutcomeNotFound, out.Kind)
		require.ErrorIs(t, out.Err(), biddingerrors.ErrBidderNotFound)

		count, err := service.GetCurrentPrice(ctx, 1)
		require.NoError(t, err)
		require.Zero(t, count.BidCount)
	})

	t.Run("cancelled_context_while_waiting", func(t *testing.T) {
		repo := newSeededRepo(t, "10.00")
		service := NewBiddingService(repo)

		held := make(chan struct{})
		release := make(chan struct{})
		go func() {
			_ = repo.WithProductLock(ctx, 1, func(repository.LedgerTx, model.Product) error {
				close(held)
				<-release
				return nil
			})
		}()
		<-held

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		out := service.PlaceBid(waitCtx, 1, 2, dec("11"))
		close(release)

		require.Equal(t, OutcomeFailed, out.Kind)
		require.ErrorIs(t, out.Err(), biddingerrors.ErrStorage)
	})
}

// Same amount from many bidders at once: exactly one wins the race
func TestPlaceBid_ConcurrentEqualBids(t *testing.T) {
	ctx := context.Background()
	repo := newSeededRepo(t, "10.00")
	service := NewBiddingService(repo)

	const bidders = 50
	outcomes := make([]Outcome, bidders)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			outcomes[i] = service.PlaceBid(ctx, 1, int64(i+2), dec("15"))
		}(i)
	}
	close(start)
	wg.Wait()

	var committedCount, rejectedCount int
	for _, out := range outcomes {
		switch out.Kind {
		case OutcomeCommitted:
			committedCount++
		case OutcomeRejected:
			rejectedCount++
			require.ErrorIs(t, out.Err(), biddingerrors.ErrBidTooLow)
			require.True(t, out.CurrentPrice().Equal(dec("15")))
		default:
			t.Fatalf("unexpected outcome %s: %v", out.Kind, out.Err())
		}
	}
	require.Equal(t, 1, committedCount)
	require.Equal(t, bidders-1, rejectedCount)

	quote, err := service.GetCurrentPrice(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, quote.BidCount)
}

// Accepted bids, read in commit order, strictly increase and each exceeds the starting bid
func TestPlaceBid_ConcurrentIncreasingLedger(t *testing.T) {
	ctx := context.Background()
	repo := newSeededRepo(t, "10.00")
	service := NewBiddingService(repo)

	const workers = 20
	const bidsPerWorker = 25

	kinds := make(chan OutcomeKind, workers*bidsPerWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			bidder := int64(w + 2)
			for i := 0; i < bidsPerWorker; i++ {
				amount := dec(fmt.Sprintf("%d.%02d", 10+i, w))
				kinds <- service.PlaceBid(ctx, 1, bidder, amount).Kind
			}
		}(w)
	}
	wg.Wait()
	close(kinds)

	for kind := range kinds {
		require.Contains(t, []OutcomeKind{OutcomeCommitted, OutcomeRejected}, kind)
	}

	ledger, err := repo.ListBidsByProduct(ctx, 1, model.BidOrderNewest, 0)
	require.NoError(t, err)
	require.NotEmpty(t, ledger)

	// walk oldest to newest
	prev := dec("10.00")
	for i := len(ledger) - 1; i >= 0; i-- {
		require.True(t, ledger[i].Amount.GreaterThan(prev), "bid %d (%s) does not exceed %s", ledger[i].BidID, ledger[i].Amount, prev)
		prev = ledger[i].Amount
	}

	winner, err := service.GetWinningBid(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, ledger[0].BidID, winner.BidID)
}

// Bids on different products never block each other
func TestPlaceBid_IndependentProducts(t *testing.T) {
	ctx := context.Background()
	repo := newSeededRepo(t, "10.00")
	repo.AddProduct(model.Product{ProductID: 2, SellerID: 1, Name: "Lamp", StartingBid: dec("5")})
	service := NewBiddingService(repo)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = repo.WithProductLock(ctx, 1, func(repository.LedgerTx, model.Product) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	out := service.PlaceBid(waitCtx, 2, 3, dec("6"))
	close(release)
	<-done

	require.True(t, out.Committed(), "bid on product 2 blocked by lock on product 1: %v", out.Err())
}
