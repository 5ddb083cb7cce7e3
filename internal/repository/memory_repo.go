package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/pricing"
)

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB.
// mu guards the maps; productLocks serialize price-check-and-append per product.
type MemoryRepo struct {
	mu          sync.RWMutex
	users       map[int64]model.User
	departments map[int64]model.Department
	products    map[int64]model.Product
	bids        map[int64][]model.Bid // key: productID -> value: bids in commit order
	userItems   map[int64][]int64     // key: userID -> value: productIDs the user has bid on

	lastProductID    int64
	lastBidID        int64
	lastDepartmentID int64

	productLocks sync.Map // productID -> chan struct{}

	now func() time.Time
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:       make(map[int64]model.User),
		departments: make(map[int64]model.Department),
		products:    make(map[int64]model.Product),
		bids:        make(map[int64][]model.Bid),
		userItems:   make(map[int64][]int64),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// AddUser registers a user known to the identity subsystem
func (r *MemoryRepo) AddUser(user model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	r.users[user.UserID] = user
}

// GetUser returns a registered user
func (r *MemoryRepo) GetUser(_ context.Context, userID int64) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %d: %w", userID, biddingerrors.ErrUserNotFound)
	}
	return user, nil
}

// CreateDepartment stores a new department
func (r *MemoryRepo) CreateDepartment(_ context.Context, name string) (model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastDepartmentID++
	dept := model.Department{DepartmentID: r.lastDepartmentID, Name: name}
	r.departments[dept.DepartmentID] = dept
	return dept, nil
}

// ListDepartments returns all departments ordered by name
func (r *MemoryRepo) ListDepartments(_ context.Context) ([]model.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	depts := make([]model.Department, 0, len(r.departments))
	for _, d := range r.departments {
		depts = append(depts, d)
	}
	sort.Slice(depts, func(i, j int) bool {
		if depts[i].Name == depts[j].Name {
			return depts[i].DepartmentID < depts[j].DepartmentID
		}
		return strings.Compare(depts[i].Name, depts[j].Name) < 0
	})
	return depts, nil
}

// CreateProduct stores a new product, assigning its id and creation time
func (r *MemoryRepo) CreateProduct(_ context.Context, product model.Product) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[product.SellerID]; !ok {
		return model.Product{}, fmt.Errorf("create product for seller %d: %w", product.SellerID, biddingerrors.ErrUserNotFound)
	}
	if product.DepartmentID != nil {
		if _, ok := r.departments[*product.DepartmentID]; !ok {
			return model.Product{}, fmt.Errorf("create product in department %d: %w", *product.DepartmentID, biddingerrors.ErrDepartmentNotFound)
		}
	}

	r.lastProductID++
	product.ProductID = r.lastProductID
	product.CreatedAt = r.now()
	r.products[product.ProductID] = product
	return product, nil
}

// AddProduct inserts a product with a caller-chosen id. This method is intended for tests and seeding only.
func (r *MemoryRepo) AddProduct(product model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.now()
	}
	if product.ProductID > r.lastProductID {
		r.lastProductID = product.ProductID
	}
	r.products[product.ProductID] = product
}

// GetProduct returns a product by id
func (r *MemoryRepo) GetProduct(_ context.Context, productID int64) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("get product %d: %w", productID, biddingerrors.ErrProductNotFound)
	}
	return product, nil
}

// ListProducts returns every product, newest first, annotated with its price
func (r *MemoryRepo) ListProducts(_ context.Context) ([]model.ProductListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]model.ProductListing, 0, len(r.products))
	for _, p := range r.products {
		bids := r.bids[p.ProductID]
		quote := pricing.Quote(p, highestBid(bids), int64(len(bids)))
		listings = append(listings, model.ProductListing{
			Product:      p,
			CurrentPrice: quote.CurrentPrice,
			BidCount:     quote.BidCount,
		})
	}
	sort.Slice(listings, func(i, j int) bool {
		if listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].ProductID > listings[j].ProductID
		}
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings, nil
}

// ListProductsByBidder returns all products a user has bid on, in first-bid order
func (r *MemoryRepo) ListProductsByBidder(_ context.Context, userID int64) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productIDs := r.userItems[userID]
	products := make([]model.Product, 0, len(productIDs))
	for _, id := range productIDs {
		if p, exists := r.products[id]; exists {
			products = append(products, p)
		}
	}
	return products, nil
}

// ListBidsByProduct returns the bids of a product in the requested order.
// A non-positive limit returns every bid.
func (r *MemoryRepo) ListBidsByProduct(_ context.Context, productID int64, order model.BidOrder, limit int) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortBids(r.bids[productID], order, limit), nil
}

// CountBidsByProduct returns how many bids a product has
func (r *MemoryRepo) CountBidsByProduct(_ context.Context, productID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.bids[productID])), nil
}

// WithProductLock runs fn while holding the product's lock. Waiting for the
// lock honours ctx; a cancelled wait surfaces as ErrStorage.
func (r *MemoryRepo) WithProductLock(ctx context.Context, productID int64, fn LockedFunc) error {
	product, err := r.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	lock := r.productLock(productID)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("lock product %d: %w: %v", productID, biddingerrors.ErrStorage, ctx.Err())
	}
	defer func() { <-lock }()

	tx := &memoryTx{repo: r, productID: productID}
	if err := fn(tx, product); err != nil {
		return err
	}
	return r.commit(tx)
}

// Ping always succeeds for the in-memory store
func (r *MemoryRepo) Ping(_ context.Context) error {
	return nil
}

func (r *MemoryRepo) productLock(productID int64) chan struct{} {
	lock, _ := r.productLocks.LoadOrStore(productID, make(chan struct{}, 1))
	return lock.(chan struct{})
}

// allocateBid assigns the id and commit timestamp of a pending bid
func (r *MemoryRepo) allocateBid(bid model.Bid) (model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[bid.BidderID]; !ok {
		return model.Bid{}, fmt.Errorf("append bid for bidder %d: %w", bid.BidderID, biddingerrors.ErrBidderNotFound)
	}

	r.lastBidID++
	bid.BidID = r.lastBidID
	bid.CreatedAt = r.now()
	if bids := r.bids[bid.ProductID]; len(bids) > 0 {
		// keep commit order and timestamp order aligned on coarse clocks
		if last := bids[len(bids)-1].CreatedAt; !bid.CreatedAt.After(last) {
			bid.CreatedAt = last.Add(time.Microsecond)
		}
	}
	return bid, nil
}

func (r *MemoryRepo) commit(tx *memoryTx) error {
	if len(tx.pending) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bid := range tx.pending {
		r.bids[bid.ProductID] = append(r.bids[bid.ProductID], bid)
		r.trackBidder(bid)
	}
	return nil
}

func (r *MemoryRepo) trackBidder(bid model.Bid) {
	for _, id := range r.userItems[bid.BidderID] {
		if id == bid.ProductID {
			return
		}
	}
	r.userItems[bid.BidderID] = append(r.userItems[bid.BidderID], bid.ProductID)
}

// memoryTx buffers appends until WithProductLock commits them
type memoryTx struct {
	repo      *MemoryRepo
	productID int64
	pending   []model.Bid
}

func (tx *memoryTx) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	return tx.repo.GetProduct(ctx, productID)
}

func (tx *memoryTx) ListBidsByProduct(ctx context.Context, productID int64, order model.BidOrder, limit int) ([]model.Bid, error) {
	tx.repo.mu.RLock()
	defer tx.repo.mu.RUnlock()

	bids := tx.repo.bids[productID]
	if productID == tx.productID && len(tx.pending) > 0 {
		bids = append(append([]model.Bid(nil), bids...), tx.pending...)
	}
	return sortBids(bids, order, limit), nil
}

func (tx *memoryTx) CountBidsByProduct(ctx context.Context, productID int64) (int64, error) {
	n, err := tx.repo.CountBidsByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	if productID == tx.productID {
		n += int64(len(tx.pending))
	}
	return n, nil
}

func (tx *memoryTx) AppendBid(_ context.Context, bid model.Bid) (model.Bid, error) {
	if bid.ProductID != tx.productID {
		return model.Bid{}, fmt.Errorf("append bid for product %d under lock of product %d: %w", bid.ProductID, tx.productID, biddingerrors.ErrInvalidInput)
	}
	if !model.MoneyFits(bid.Amount) {
		return model.Bid{}, fmt.Errorf("append bid amount %s: %w", bid.Amount, biddingerrors.ErrInvalidInput)
	}
	bid, err := tx.repo.allocateBid(bid)
	if err != nil {
		return model.Bid{}, err
	}
	tx.pending = append(tx.pending, bid)
	return bid, nil
}

// highestBid returns the top bid as a one-element slice, empty for an empty
// ledger. bids are in commit order, so the earliest of equal amounts wins.
func highestBid(bids []model.Bid) []model.Bid {
	if len(bids) == 0 {
		return []model.Bid{}
	}
	top := bids[0]
	for _, b := range bids[1:] {
		if b.Amount.GreaterThan(top.Amount) {
			top = b
		}
	}
	return []model.Bid{top}
}

// sortBids returns an ordered copy of bids truncated to limit
func sortBids(bids []model.Bid, order model.BidOrder, limit int) []model.Bid {
	if order == model.BidOrderHighest && limit == 1 {
		return highestBid(bids)
	}

	out := append([]model.Bid(nil), bids...)

	switch order {
	case model.BidOrderHighest:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Amount.Equal(out[j].Amount) {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return out[i].Amount.GreaterThan(out[j].Amount)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].BidID > out[j].BidID
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []model.Bid{}
	}
	return out
}
