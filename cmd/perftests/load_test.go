package perftests

import (
	"context"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bidding "auction-marketplace/internal/biddingService"

	"github.com/shopspring/decimal"
)

// LoadScenario defines configurable benchmark parameters
type LoadScenario struct {
	Name            string
	NumProducts     int
	ReadRatio       int // out of 10
	MaxBidIncrement int
	Burst           bool // if true, no delay between ops
}

// OperationMetrics collects latencies from concurrent workers
type OperationMetrics struct {
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(d time.Duration) {
	om.mu.Lock()
	om.latencies = append(om.latencies, d)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (min, max, avg, p95, p99 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return
	}
	latencies := append([]time.Duration(nil), om.latencies...)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	min = latencies[0]
	max = latencies[len(latencies)-1]

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	avg = total / time.Duration(len(latencies))
	p95 = latencies[int(0.95*float64(len(latencies)-1))]
	p99 = latencies[int(0.99*float64(len(latencies)-1))]
	return
}

// Benchmark_Load_BiddingSystem runs multiple scenarios
func Benchmark_Load_BiddingSystem(b *testing.B) {
	scenarios := []LoadScenario{
		{"Low-Contention-WriteHeavy", 200, 0, 50, false},
		{"High-Contention-WriteHeavy", 10, 0, 20, false},
		{"Mixed-Workload", 50, 7, 30, false},
		{"ReadHeavy", 50, 9, 20, false},
		{"Edge-Case-SingleProduct", 1, 5, 10, false},
		{"Peak-Burst", 50, 0, 20, true},
	}

	for _, s := range scenarios {
		b.Run(s.Name, func(b *testing.B) {
			runParallelScenario(b, s)
		})
	}
}

func runParallelScenario(b *testing.B, s LoadScenario) {
	b.ReportAllocs()

	_, svc := newBenchRepo(s.NumProducts, 100)
	ctx := context.Background()

	var totalOps, committed, rejected, failed, totalReads int64
	productCommits := make([]int64, s.NumProducts)
	metrics := &OperationMetrics{}

	start := time.Now()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

		for pb.Next() {
			productIndex := rnd.Intn(s.NumProducts)
			productID := int64(productIndex + 1)

			opStart := time.Now()
			if rnd.Intn(10) < s.ReadRatio {
				if _, err := svc.GetCurrentPrice(ctx, productID); err != nil {
					b.Logf("ignored read error: %v", err)
				}
				atomic.AddInt64(&totalReads, 1)
			} else {
				amount := decimal.NewFromInt(int64(100 + rnd.Intn(s.MaxBidIncrement) + 1))
				out := svc.PlaceBid(ctx, productID, bidderFor(rnd.Int()), amount)
				switch out.Kind {
				case bidding.OutcomeCommitted:
					atomic.AddInt64(&committed, 1)
					atomic.AddInt64(&productCommits[productIndex], 1)
				case bidding.OutcomeRejected:
					atomic.AddInt64(&rejected, 1)
				default:
					b.Logf("ignored bid error: %v", out.Err())
					atomic.AddInt64(&failed, 1)
				}
			}

			metrics.Record(time.Since(opStart))
			atomic.AddInt64(&totalOps, 1)

			if !s.Burst {
				time.Sleep(time.Millisecond)
			}
		}
	})

	elapsed := time.Since(start)
	throughput := float64(totalOps) / elapsed.Seconds()
	min, max, avg, p95, p99 := metrics.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	b.Logf(
		"Scenario: %s | Products: %d | Total Ops: %d | Committed: %d | Rejected: %d | Failed: %d | Reads: %d | Elapsed: %s | Throughput: %.2f ops/sec | Latency(us) min: %.2f avg: %.2f max: %.2f p95: %.2f p99: %.2f | Memory Alloc: %.2f MB",
		s.Name, s.NumProducts, totalOps, committed, rejected, failed, totalReads, elapsed,
		throughput,
		float64(min.Microseconds()), float64(avg.Microseconds()), float64(max.Microseconds()),
		float64(p95.Microseconds()), float64(p99.Microseconds()),
		float64(mem.Alloc)/1024/1024,
	)

	if failed > 0 {
		b.Errorf("scenario %s: %d bids failed without a decision", s.Name, failed)
	}

	for i, v := range productCommits {
		if v > 0 {
			b.Logf("Product %d committed bids: %d", i+1, v)
		}
	}
}
