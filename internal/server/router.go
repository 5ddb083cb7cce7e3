package server

import (
	"context"
	"net/http"
	"time"

	bidding "auction-marketplace/internal/biddingService"
	catalog "auction-marketplace/internal/catalogService"
	model "auction-marketplace/internal/models"
	handler "auction-marketplace/services/bidding/handler"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Pinger checks that storage is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the router wires into handlers
type Dependencies struct {
	Bidding        *bidding.BiddingService
	Catalog        *catalog.CatalogService
	Storage        Pinger
	JWTSecret      string
	AllowedOrigins []string
	BidLimiter     *RateLimiter
	Metrics        StatusRecorder
	MetricsHandler http.Handler
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	helpers.RegisterValidators()

	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery()) // recover from panics
	router.Use(RequestIDMiddleware)
	router.Use(RequestLoggerMiddleware)
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))
	if deps.Metrics != nil {
		router.Use(MetricsMiddleware(deps.Metrics))
	}

	biddingHandler := handler.NewBiddingHandler(deps.Bidding)
	productHandler := handler.NewProductHandler(deps.Catalog)
	auth := AuthMiddleware(deps.JWTSecret)

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/db-health", func(c *gin.Context) {
		if err := deps.Storage.Ping(c.Request.Context()); err != nil {
			helpers.RespondError(c, "DBHealth", err, nil)
			return
		}
		utils.JSONResponse(c, http.StatusOK, gin.H{"storage": "up"}, "storage reachable")
	})
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	bidRoute := []gin.HandlerFunc{auth}
	if deps.BidLimiter != nil {
		bidRoute = append(bidRoute, deps.BidLimiter.Middleware())
	}
	bidRoute = append(bidRoute, biddingHandler.PlaceBidHandler)

	bids := router.Group("/bids")
	{
		bids.POST("", bidRoute...)
	}

	products := router.Group("/products")
	{
		products.GET("", productHandler.ListProductsHandler)
		products.POST("", auth, productHandler.CreateProductHandler)
		products.GET("/:product_id", productHandler.GetProductHandler)
		products.GET("/:product_id/bids", biddingHandler.GetBidHistoryHandler)
		products.GET("/:product_id/price", biddingHandler.GetCurrentPriceHandler)
		products.GET("/:product_id/winning", biddingHandler.GetWinningBidHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/products", biddingHandler.GetProductsByBidderHandler)
	}

	departments := router.Group("/departments")
	{
		departments.GET("", productHandler.ListDepartmentsHandler)
		departments.POST("", auth, RequireRole(string(model.RoleAdmin)), productHandler.CreateDepartmentHandler)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
