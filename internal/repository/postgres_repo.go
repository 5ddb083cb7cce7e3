package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresRepo implements AuctionDB on PostgreSQL through gorm.
// Per-product serialization is a row lock on the product (SELECT ... FOR UPDATE)
// held for the whole transaction, so bids on different products never contend.
type PostgresRepo struct {
	db          *gorm.DB
	ledger      postgresLedger
	lockTimeout time.Duration
}

// NewPostgresRepo creates a repository on an open gorm connection.
// The connection must be opened with TranslateError enabled.
func NewPostgresRepo(db *gorm.DB, lockTimeout time.Duration) *PostgresRepo {
	return &PostgresRepo{
		db:          db,
		ledger:      postgresLedger{db: db},
		lockTimeout: lockTimeout,
	}
}

// GetProduct returns a product by id
func (r *PostgresRepo) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	return r.ledger.GetProduct(ctx, productID)
}

// ListBidsByProduct returns the bids of a product in the requested order
func (r *PostgresRepo) ListBidsByProduct(ctx context.Context, productID int64, order model.BidOrder, limit int) ([]model.Bid, error) {
	return r.ledger.ListBidsByProduct(ctx, productID, order, limit)
}

// CountBidsByProduct returns how many bids a product has
func (r *PostgresRepo) CountBidsByProduct(ctx context.Context, productID int64) (int64, error) {
	return r.ledger.CountBidsByProduct(ctx, productID)
}

// WithProductLock runs fn inside a transaction holding the product row lock
func (r *PostgresRepo) WithProductLock(ctx context.Context, productID int64, fn LockedFunc) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return storageError("set lock timeout", err)
			}
		}

		var product model.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ?", productID).
			Take(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lock product %d: %w", productID, biddingerrors.ErrProductNotFound)
		}
		if err != nil {
			return storageError(fmt.Sprintf("lock product %d", productID), err)
		}

		return fn(postgresLedger{db: tx}, product)
	})
	if err != nil && !isClassified(err) {
		// begin and commit failures come back from gorm unwrapped
		return storageError(fmt.Sprintf("transaction on product %d", productID), err)
	}
	return err
}

// CreateProduct inserts a product; id and created_at are assigned by the database
func (r *PostgresRepo) CreateProduct(ctx context.Context, product model.Product) (model.Product, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sellers int64
		if err := tx.Model(&model.User{}).Where("user_id = ?", product.SellerID).Count(&sellers).Error; err != nil {
			return storageError("check seller", err)
		}
		if sellers == 0 {
			return fmt.Errorf("create product for seller %d: %w", product.SellerID, biddingerrors.ErrUserNotFound)
		}

		if product.DepartmentID != nil {
			var depts int64
			if err := tx.Model(&model.Department{}).Where("department_id = ?", *product.DepartmentID).Count(&depts).Error; err != nil {
				return storageError("check department", err)
			}
			if depts == 0 {
				return fmt.Errorf("create product in department %d: %w", *product.DepartmentID, biddingerrors.ErrDepartmentNotFound)
			}
		}

		product.ProductID = 0
		product.CreatedAt = time.Time{}
		if err := tx.Create(&product).Error; err != nil {
			return storageError("create product", err)
		}
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return product, nil
}

// ListProducts returns every product, newest first, with its price aggregated from the ledger
func (r *PostgresRepo) ListProducts(ctx context.Context) ([]model.ProductListing, error) {
	var listings []model.ProductListing
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.product_id, p.seller_user_id, p.department_id, p.name, p.description,
		       p.image_url, p.starting_bid, p.created_at,
		       COALESCE(MAX(b.amount), p.starting_bid) AS current_price,
		       COUNT(b.bid_id) AS bid_count
		FROM products p
		LEFT JOIN bids b ON b.product_id = p.product_id
		GROUP BY p.product_id
		ORDER BY p.created_at DESC, p.product_id DESC`).
		Scan(&listings).Error
	if err != nil {
		return nil, storageError("list products", err)
	}
	if listings == nil {
		listings = []model.ProductListing{}
	}
	return listings, nil
}

// ListProductsByBidder returns all products a user has bid on, in first-bid order
func (r *PostgresRepo) ListProductsByBidder(ctx context.Context, userID int64) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.*
		FROM products p
		JOIN (
			SELECT product_id, MIN(bid_id) AS first_bid
			FROM bids
			WHERE bidder_user_id = ?
			GROUP BY product_id
		) ub ON ub.product_id = p.product_id
		ORDER BY ub.first_bid`, userID).
		Scan(&products).Error
	if err != nil {
		return nil, storageError(fmt.Sprintf("list products for bidder %d", userID), err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// GetUser returns a user by id
func (r *PostgresRepo) GetUser(ctx context.Context, userID int64) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, fmt.Errorf("get user %d: %w", userID, biddingerrors.ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, storageError(fmt.Sprintf("get user %d", userID), err)
	}
	return user, nil
}

// CreateDepartment inserts a department
func (r *PostgresRepo) CreateDepartment(ctx context.Context, name string) (model.Department, error) {
	dept := model.Department{Name: name}
	if err := r.db.WithContext(ctx).Create(&dept).Error; err != nil {
		return model.Department{}, storageError("create department", err)
	}
	return dept, nil
}

// ListDepartments returns all departments ordered by name
func (r *PostgresRepo) ListDepartments(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	if err := r.db.WithContext(ctx).Order("name, department_id").Find(&depts).Error; err != nil {
		return nil, storageError("list departments", err)
	}
	return depts, nil
}

// Ping checks the database connection
func (r *PostgresRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storageError("get sql.DB", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}

// postgresLedger serves ledger reads and appends on either the pool or a transaction
type postgresLedger struct {
	db *gorm.DB
}

func (l postgresLedger) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	var product model.Product
	err := l.db.WithContext(ctx).Where("product_id = ?", productID).Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, fmt.Errorf("get product %d: %w", productID, biddingerrors.ErrProductNotFound)
	}
	if err != nil {
		return model.Product{}, storageError(fmt.Sprintf("get product %d", productID), err)
	}
	return product, nil
}

func (l postgresLedger) ListBidsByProduct(ctx context.Context, productID int64, order model.BidOrder, limit int) ([]model.Bid, error) {
	query := l.db.WithContext(ctx).Where("product_id = ?", productID)
	switch order {
	case model.BidOrderHighest:
		query = query.Order("amount DESC, created_at ASC, bid_id ASC")
	default:
		query = query.Order("created_at DESC, bid_id DESC")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	bids := []model.Bid{}
	if err := query.Find(&bids).Error; err != nil {
		return nil, storageError(fmt.Sprintf("list bids for product %d", productID), err)
	}
	return bids, nil
}

func (l postgresLedger) CountBidsByProduct(ctx context.Context, productID int64) (int64, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&model.Bid{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return 0, storageError(fmt.Sprintf("count bids for product %d", productID), err)
	}
	return count, nil
}

// AppendBid inserts a bid; id and created_at come back from the database
func (l postgresLedger) AppendBid(ctx context.Context, bid model.Bid) (model.Bid, error) {
	if !model.MoneyFits(bid.Amount) {
		return model.Bid{}, fmt.Errorf("append bid amount %s: %w", bid.Amount, biddingerrors.ErrInvalidInput)
	}
	bid.BidID = 0
	bid.CreatedAt = time.Time{}

	err := l.db.WithContext(ctx).Create(&bid).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		// the product row is locked by the caller, so the bidder is what is missing
		return model.Bid{}, fmt.Errorf("append bid for bidder %d: %w", bid.BidderID, biddingerrors.ErrBidderNotFound)
	}
	if err != nil {
		return model.Bid{}, storageError(fmt.Sprintf("append bid for product %d", bid.ProductID), err)
	}
	return bid, nil
}

var classifiedErrors = []error{
	biddingerrors.ErrStorage,
	biddingerrors.ErrProductNotFound,
	biddingerrors.ErrBidderNotFound,
	biddingerrors.ErrUserNotFound,
	biddingerrors.ErrDepartmentNotFound,
	biddingerrors.ErrInvalidInput,
	biddingerrors.ErrSelfBid,
	biddingerrors.ErrBidTooLow,
}

func isClassified(err error) bool {
	for _, target := range classifiedErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrStorage, err)
}
