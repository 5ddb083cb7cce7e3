package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the authorization role of a marketplace user
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a participant in the marketplace. Users are owned by the
// authentication subsystem; the auction core only references them by id.
type User struct {
	UserID   int64  `json:"user_id" gorm:"column:user_id;primaryKey"`
	Username string `json:"username" gorm:"column:username"`
	Role     Role   `json:"role" gorm:"column:role"`
}

func (User) TableName() string { return "users" }

// Department groups products for browsing
type Department struct {
	DepartmentID int64  `json:"department_id" gorm:"column:department_id;primaryKey"`
	Name         string `json:"name" gorm:"column:name"`
}

func (Department) TableName() string { return "departments" }

// Product represents a listing put up for auction by a seller.
// Everything except the derived price is immutable after creation.
type Product struct {
	ProductID    int64           `json:"product_id" gorm:"column:product_id;primaryKey"`
	SellerID     int64           `json:"seller_id" gorm:"column:seller_user_id"`
	DepartmentID *int64          `json:"department_id,omitempty" gorm:"column:department_id"`
	Name         string          `json:"name" gorm:"column:name"`
	Description  string          `json:"description" gorm:"column:description"`
	ImageRef     string          `json:"image_ref" gorm:"column:image_url"`
	StartingBid  decimal.Decimal `json:"starting_bid" gorm:"column:starting_bid;type:numeric(12,2)"`
	CreatedAt    time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime:false;default:clock_timestamp()"`
}

func (Product) TableName() string { return "products" }

// Bid represents a user's bid on a product. Bids are append-only.
type Bid struct {
	BidID     int64           `json:"bid_id" gorm:"column:bid_id;primaryKey"`
	ProductID int64           `json:"product_id" gorm:"column:product_id"`
	BidderID  int64           `json:"bidder_id" gorm:"column:bidder_user_id"`
	Amount    decimal.Decimal `json:"amount" gorm:"column:amount;type:numeric(12,2)"`
	CreatedAt time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime:false;default:clock_timestamp()"`
}

func (Bid) TableName() string { return "bids" }

// PriceQuote is the derived price view of a product's ledger
type PriceQuote struct {
	ProductID    int64           `json:"product_id"`
	StartingBid  decimal.Decimal `json:"starting_bid"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	BidCount     int64           `json:"bid_count"`
}

// ProductListing is a product annotated with its resolved price
type ProductListing struct {
	Product
	CurrentPrice decimal.Decimal `json:"current_price"`
	BidCount     int64           `json:"bid_count"`
}

// BidOrder selects the projection used when listing a product's bids
type BidOrder int

const (
	// BidOrderNewest lists bids by creation time, newest first
	BidOrderNewest BidOrder = iota
	// BidOrderHighest lists bids by amount, highest first; equal amounts keep the earliest first
	BidOrderHighest
)
