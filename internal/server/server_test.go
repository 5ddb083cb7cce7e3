package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	bidding "auction-marketplace/internal/biddingService"
	catalog "auction-marketplace/internal/catalogService"
	"auction-marketplace/internal/metrics"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, userID int64, role model.Role) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, userID, string(role), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		id, ok := helpers.CallerID(c)
		require.True(t, ok)
		c.String(http.StatusOK, "%d:%s", id, c.GetString(helpers.ContextRole))
	})

	otherToken, err := utils.GenerateToken("other-secret", 5, "USER", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid", header: bearer(t, 5, model.RoleUser), wantStatus: http.StatusOK, wantBody: "5:USER"},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong_scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "foreign_signature", header: "Bearer " + otherToken, wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.wantStatus, w.Code)
			if tc.wantBody != "" {
				require.Equal(t, tc.wantBody, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	router := gin.New()
	router.GET("/admin", AuthMiddleware(testSecret), RequireRole(string(model.RoleAdmin)), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, 1, model.RoleUser))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, 1, model.RoleAdmin))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	defer rl.Stop()

	router := gin.New()
	router.POST("/bids", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/bids", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	// a different client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/bids", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, 2, rl.VisitorCount())

	rl.evictIdle(time.Now().Add(time.Hour))
	require.Zero(t, rl.VisitorCount())
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware)
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, utils.RequestID(c)) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, utils.ValidID(w.Body.String()))
	require.Equal(t, w.Body.String(), w.Header().Get(requestIDHeader))

	fixed := utils.GenerateID()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, fixed)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, fixed, w.Body.String())
}

func TestSetupRouter(t *testing.T) {
	repo := repository.NewMemoryRepo()
	repo.AddUser(model.User{UserID: 1, Username: "seller"})
	repo.AddUser(model.User{UserID: 2, Username: "bidder"})
	repo.AddUser(model.User{UserID: 3, Username: "admin", Role: model.RoleAdmin})
	repo.AddProduct(model.Product{ProductID: 1, SellerID: 1, Name: "Camera", StartingBid: decimal.RequireFromString("10")})

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	limiter := NewRateLimiter(600, 50)
	defer limiter.Stop()

	router := SetupRouter(Dependencies{
		Bidding:        bidding.NewBiddingService(repo, bidding.WithRecorder(collector)),
		Catalog:        catalog.NewCatalogService(repo),
		Storage:        repo,
		JWTSecret:      testSecret,
		BidLimiter:     limiter,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
	})

	do := func(method, path, body, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	require.Equal(t, http.StatusOK, do(http.MethodGet, "/db-health", "", "").Code)

	require.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/bids", `{"product_id":"1","amount":"11"}`, "").Code)
	require.Equal(t, http.StatusCreated, do(http.MethodPost, "/bids", `{"product_id":"1","amount":"11"}`, bearer(t, 2, model.RoleUser)).Code)
	require.Equal(t, http.StatusConflict, do(http.MethodPost, "/bids", `{"product_id":"1","amount":"11"}`, bearer(t, 2, model.RoleUser)).Code)
	require.Equal(t, http.StatusForbidden, do(http.MethodPost, "/bids", `{"product_id":"1","amount":"99"}`, bearer(t, 1, model.RoleUser)).Code)

	require.Equal(t, http.StatusForbidden, do(http.MethodPost, "/departments", `{"name":"Toys"}`, bearer(t, 2, model.RoleUser)).Code)
	require.Equal(t, http.StatusCreated, do(http.MethodPost, "/departments", `{"name":"Toys"}`, bearer(t, 3, model.RoleAdmin)).Code)

	w = do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "auction_bids_committed_total 1")
	require.Contains(t, w.Body.String(), `auction_bids_rejected_total{reason="BID_TOO_LOW"} 1`)
}

func TestCorsConfig(t *testing.T) {
	all := corsConfig([]string{"*"})
	require.True(t, all.AllowAllOrigins)
	require.Empty(t, all.AllowOrigins)

	some := corsConfig([]string{"https://shop.example"})
	require.False(t, some.AllowAllOrigins)
	require.Equal(t, []string{"https://shop.example"}, some.AllowOrigins)
}
