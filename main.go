package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	bidding "auction-marketplace/internal/biddingService"
	catalog "auction-marketplace/internal/catalogService"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/database"
	"auction-marketplace/internal/metrics"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}

	if !utils.SetLevel(cfg.Log.Level) {
		utils.Warn("unknown log level, keeping info", map[string]any{"level": cfg.Log.Level})
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	repo, db, err := openStorage(ctx, cfg)
	if err != nil {
		utils.Fatal("failed to initialize storage", map[string]any{"driver": cfg.Database.Driver, "error": err.Error()})
	}
	if db != nil {
		defer database.Close(db)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	biddingSvc := bidding.NewBiddingService(repo, bidding.WithRecorder(collector))
	catalogSvc := catalog.NewCatalogService(repo)

	if cfg.SeedDemo {
		if err := seedDemo(ctx, cfg, repo, db, catalogSvc); err != nil {
			utils.Fatal("failed to seed demo data", map[string]any{"error": err.Error()})
		}
	}

	limiter := server.NewRateLimiter(cfg.RateLimit.BidsPerMinute, cfg.RateLimit.Burst)
	defer limiter.Stop()

	router := server.SetupRouter(server.Dependencies{
		Bidding:        biddingSvc,
		Catalog:        catalogSvc,
		Storage:        repo,
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		BidLimiter:     limiter,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(registry),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{
			"port":        cfg.Server.Port,
			"driver":      cfg.Database.Driver,
			"environment": cfg.Environment,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Info("shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("server forced to shutdown", map[string]any{"error": err.Error()})
		return
	}

	utils.Info("server exited", nil)
}

// openStorage returns the configured store; db is nil for the in-memory driver
func openStorage(ctx context.Context, cfg *config.Config) (repository.AuctionDB, *gorm.DB, error) {
	if cfg.Database.Driver == config.DriverMemory {
		return repository.NewMemoryRepo(), nil, nil
	}

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.URL()); err != nil {
			return nil, nil, err
		}
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewPostgresRepo(db, cfg.Database.LockTimeout), db, nil
}

var demoUsers = []model.User{
	{UserID: 1, Username: "admin", Role: model.RoleAdmin},
	{UserID: 2, Username: "alice", Role: model.RoleUser},
	{UserID: 3, Username: "bob", Role: model.RoleUser},
	{UserID: 4, Username: "carol", Role: model.RoleUser},
}

// seedDemo adds sample users and, when the catalog is empty, a few listings
func seedDemo(ctx context.Context, cfg *config.Config, repo repository.AuctionDB, db *gorm.DB, catalogSvc *catalog.CatalogService) error {
	switch store := repo.(type) {
	case *repository.MemoryRepo:
		for _, u := range demoUsers {
			store.AddUser(u)
		}
	default:
		if err := database.EnsureUsers(ctx, db, demoUsers); err != nil {
			return err
		}
	}

	existing, err := catalogSvc.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		dept, err := catalogSvc.CreateDepartment(ctx, "Cameras")
		if err != nil {
			return err
		}

		listings := []catalog.NewProduct{
			{SellerID: 2, DepartmentID: &dept.DepartmentID, Name: "Vintage Rangefinder", Description: "35mm, fully serviced", StartingBid: decimal.RequireFromString("100")},
			{SellerID: 3, DepartmentID: &dept.DepartmentID, Name: "Medium Format Body", Description: "Light seals replaced", StartingBid: decimal.RequireFromString("250.50")},
			{SellerID: 4, Name: "Lens Cap", StartingBid: decimal.Zero},
		}
		for _, l := range listings {
			if _, err := catalogSvc.CreateProduct(ctx, l); err != nil {
				return err
			}
		}
	}

	if cfg.IsProduction() {
		return nil
	}
	for _, u := range demoUsers {
		token, err := utils.GenerateToken(cfg.Auth.JWTSecret, u.UserID, string(u.Role), cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		utils.Info("demo token", map[string]any{"user_id": u.UserID, "username": u.Username, "token": token})
	}
	return nil
}
