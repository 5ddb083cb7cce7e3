package perftests

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	bidding "auction-marketplace/internal/biddingService"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	sellerID  int64 = 1
	benchUsers      = 1000
)

// newBenchRepo seeds a seller, benchUsers bidders and numProducts products
func newBenchRepo(numProducts int, startingBid int64) (*repository.MemoryRepo, *bidding.BiddingService) {
	repo := repository.NewMemoryRepo()
	for id := int64(1); id <= benchUsers+1; id++ {
		repo.AddUser(model.User{UserID: id, Role: model.RoleUser})
	}
	for i := 1; i <= numProducts; i++ {
		repo.AddProduct(model.Product{
			ProductID:   int64(i),
			SellerID:    sellerID,
			Name:        "Benchmark product",
			StartingBid: decimal.NewFromInt(startingBid),
		})
	}
	return repo, bidding.NewBiddingService(repo)
}

// bidderFor maps any integer onto a seeded non-seller user
func bidderFor(n int) int64 {
	return int64(n%benchUsers) + 2
}

// Benchmark 1: PlaceBid - Isolated Products (Low Contention - Micro Benchmark)
func Benchmark_PlaceBid_Isolated(b *testing.B) {
	_, svc := newBenchRepo(b.N, 50)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		amount := decimal.NewFromInt(int64(51 + rand.Intn(100)))
		if out := svc.PlaceBid(ctx, int64(i+1), bidderFor(i), amount); !out.Committed() {
			b.Fatalf("failed to place bid: %s %v", out.Kind, out.Err())
		}
	}
}

// Benchmark 2: PlaceBid - Shared Product (High Contention - Concurrency Benchmark)
func Benchmark_PlaceBid_ConcurrentSharedProduct(b *testing.B) {
	_, svc := newBenchRepo(1, 50)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 50

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
			_ = svc.PlaceBid(ctx, 1, bidderFor(rnd.Int()), decimal.NewFromInt(nextBid))
		}
	})
}

// Benchmark 3: GetWinningBid - Single-Threaded (Low Contention)
func Benchmark_GetWinningBid_SingleThreaded(b *testing.B) {
	_, svc := newBenchRepo(b.N, 50)
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		for j := 1; j <= 10; j++ {
			_ = svc.PlaceBid(ctx, int64(i+1), bidderFor(j), decimal.NewFromInt(int64(50+j*10)))
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.GetWinningBid(ctx, int64(i+1)); err != nil {
			b.Fatalf("failed to get winning bid: %v", err)
		}
	}
}

// Benchmark 4: GetCurrentPrice - Concurrent (High Contention)
func Benchmark_GetCurrentPrice_ConcurrentSharedProduct(b *testing.B) {
	_, svc := newBenchRepo(1, 50)
	ctx := context.Background()

	for j := 1; j <= 100; j++ {
		_ = svc.PlaceBid(ctx, 1, bidderFor(j), decimal.NewFromInt(int64(50+j)))
	}

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.GetCurrentPrice(ctx, 1); err != nil {
				b.Errorf("failed to get current price: %v", err)
				return
			}
		}
	})
}

// Benchmark 5: Mixed Workload (Readers + Writers concurrently)
func Benchmark_MixedWorkload_SharedProduct(b *testing.B) {
	_, svc := newBenchRepo(1, 50)
	ctx := context.Background()

	for j := 1; j <= 50; j++ {
		_ = svc.PlaceBid(ctx, 1, bidderFor(j), decimal.NewFromInt(int64(50+j*2)))
	}

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 150

	// Ratio: 70% readers, 30% writers
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			if rnd.Intn(10) < 3 {
				nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
				_ = svc.PlaceBid(ctx, 1, bidderFor(rnd.Int()), decimal.NewFromInt(nextBid))
				continue
			}
			if _, err := svc.GetWinningBid(ctx, 1); err != nil {
				b.Errorf("read error: %v", err)
				return
			}
		}
	})
}
