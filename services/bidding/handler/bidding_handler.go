package handler

import (
	"context"
	"errors"
	"net/http"

	bidding "auction-marketplace/internal/biddingService"
	"auction-marketplace/internal/biddingerrors"
	model "auction-marketplace/internal/models"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mock_service.go -package=handler auction-marketplace/services/bidding/handler BiddingServiceInterface,CatalogServiceInterface

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, productID, bidderID int64, amount decimal.Decimal) bidding.Outcome
	GetBidHistory(ctx context.Context, productID int64, limit int) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, productID int64) (model.Bid, error)
	GetCurrentPrice(ctx context.Context, productID int64) (model.PriceQuote, error)
	GetProductsByBidder(ctx context.Context, userID int64) ([]model.Product, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// PlaceBidHandler handles POST /bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	bidderID, ok := helpers.CallerID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, errors.New("missing caller identity"), "authentication required")
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	// binding already checked both fields
	productID, _ := helpers.ParseID(req.ProductID)
	amount, _ := helpers.ParseMoney(req.Amount)

	out := h.service.PlaceBid(c.Request.Context(), productID, bidderID, amount)
	logCtx := map[string]any{
		"product_id": productID,
		"bidder_id":  bidderID,
		"amount":     amount.StringFixed(2),
		"request_id": utils.RequestID(c),
	}

	switch out.Kind {
	case bidding.OutcomeCommitted:
		utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(out.Bid), "bid recorded successfully")
		logCtx["bid_id"] = out.Bid.BidID
		helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", logCtx)

	case bidding.OutcomeRejected:
		err := out.Err()
		status, _ := helpers.MapErrorToHTTP(err)
		message := out.Decision.Message()
		utils.JSONErrorWithData(c, status, err, helpers.RejectionDetails{
			Reason:       string(out.Decision.Reason),
			CurrentPrice: out.CurrentPrice(),
		}, message)
		logCtx["reason"] = string(out.Decision.Reason)
		logCtx["current_price"] = out.CurrentPrice().StringFixed(2)
		utils.Warn("PlaceBidHandler: bid rejected", logCtx)

	default:
		logCtx["outcome"] = out.Kind.String()
		helpers.RespondError(c, "PlaceBidHandler", out.Err(), logCtx)
	}
}

// GetBidHistoryHandler handles GET /products/:product_id/bids?limit=
func (h *BiddingHandler) GetBidHistoryHandler(c *gin.Context) {
	productID, ok := helpers.ParseID(c.Param("product_id"))
	if !ok {
		helpers.RespondError(c, "GetBidHistoryHandler", biddingerrors.ErrInvalidInput, map[string]any{"product_id": c.Param("product_id")})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, ok := helpers.ParseID(raw)
		if !ok {
			helpers.RespondError(c, "GetBidHistoryHandler", biddingerrors.ErrInvalidInput, map[string]any{"limit": raw})
			return
		}
		limit = int(min(n, int64(bidding.MaxHistoryLimit)))
	}

	bids, err := h.service.GetBidHistory(c.Request.Context(), productID, limit)
	if err != nil {
		helpers.RespondError(c, "GetBidHistoryHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidHistoryHandler", "bids retrieved successfully", map[string]any{
		"product_id": productID,
		"count":      len(bids),
	})
}

// GetWinningBidHandler handles GET /products/:product_id/winning
func (h *BiddingHandler) GetWinningBidHandler(c *gin.Context) {
	productID, ok := helpers.ParseID(c.Param("product_id"))
	if !ok {
		helpers.RespondError(c, "GetWinningBidHandler", biddingerrors.ErrInvalidInput, map[string]any{"product_id": c.Param("product_id")})
		return
	}

	bid, err := h.service.GetWinningBid(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, biddingerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"product_id": productID})
			return
		}
		helpers.RespondError(c, "GetWinningBidHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"product_id": bid.ProductID,
		"bidder_id":  bid.BidderID,
	})
}

// GetCurrentPriceHandler handles GET /products/:product_id/price
func (h *BiddingHandler) GetCurrentPriceHandler(c *gin.Context) {
	productID, ok := helpers.ParseID(c.Param("product_id"))
	if !ok {
		helpers.RespondError(c, "GetCurrentPriceHandler", biddingerrors.ErrInvalidInput, map[string]any{"product_id": c.Param("product_id")})
		return
	}

	quote, err := h.service.GetCurrentPrice(c.Request.Context(), productID)
	if err != nil {
		helpers.RespondError(c, "GetCurrentPriceHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, quote, "current price retrieved successfully")
}

// GetProductsByBidderHandler handles GET /users/:user_id/products
func (h *BiddingHandler) GetProductsByBidderHandler(c *gin.Context) {
	userID, ok := helpers.ParseID(c.Param("user_id"))
	if !ok {
		helpers.RespondError(c, "GetProductsByBidderHandler", biddingerrors.ErrInvalidInput, map[string]any{"user_id": c.Param("user_id")})
		return
	}

	products, err := h.service.GetProductsByBidder(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondError(c, "GetProductsByBidderHandler", err, map[string]any{"user_id": userID})
		return
	}

	if products == nil {
		products = []model.Product{}
	}

	utils.JSONResponse(c, http.StatusOK, products, "products retrieved successfully")
	helpers.LogSuccess("GetProductsByBidderHandler", "products retrieved successfully", map[string]any{
		"user_id":        userID,
		"products_count": len(products),
	})
}
