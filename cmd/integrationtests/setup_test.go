package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	bidding "auction-marketplace/internal/biddingService"
	catalog "auction-marketplace/internal/catalogService"
	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/internal/server"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration-secret"

// Seeded users: 1 is an admin, 2..5 are regular marketplace users
var testUsers = []model.User{
	{UserID: 1, Username: "admin", Role: model.RoleAdmin},
	{UserID: 2, Username: "seller", Role: model.RoleUser},
	{UserID: 3, Username: "alice", Role: model.RoleUser},
	{UserID: 4, Username: "bob", Role: model.RoleUser},
	{UserID: 5, Username: "carol", Role: model.RoleUser},
}

// TestEnv is a router backed by a fresh in-memory store
type TestEnv struct {
	Router *gin.Engine
	Repo   *repository.MemoryRepo
}

// SetupTestRouter initializes the router with an in-memory repository for integration testing.
func SetupTestRouter(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	for _, u := range testUsers {
		repo.AddUser(u)
	}

	limiter := server.NewRateLimiter(6000, 1000)
	t.Cleanup(limiter.Stop)

	router := server.SetupRouter(server.Dependencies{
		Bidding:    bidding.NewBiddingService(repo),
		Catalog:    catalog.NewCatalogService(repo),
		Storage:    repo,
		JWTSecret:  testSecret,
		BidLimiter: limiter,
	})
	return &TestEnv{Router: router, Repo: repo}
}

// SetupTestRouterWithProducts initializes the router and seeds the repo with products.
func SetupTestRouterWithProducts(t *testing.T, products ...model.Product) *TestEnv {
	t.Helper()
	env := SetupTestRouter(t)
	for _, p := range products {
		env.Repo.AddProduct(p)
	}
	return env
}

// Token returns an Authorization header value for a seeded user
func Token(t *testing.T, userID int64) string {
	t.Helper()
	role := model.RoleUser
	for _, u := range testUsers {
		if u.UserID == userID {
			role = u.Role
		}
	}
	token, err := utils.GenerateToken(testSecret, userID, string(role), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses the response envelope.
// An empty auth header sends the request anonymously.
func (e *TestEnv) ExecuteRequestAndParse(t *testing.T, method, url, auth string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	e.Router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// PlaceBid posts a bid as userID and returns the response
func (e *TestEnv) PlaceBid(t *testing.T, userID, productID int64, amount string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	return e.ExecuteRequestAndParse(t, "POST", "/bids", Token(t, userID), map[string]string{
		"product_id": strconv.FormatInt(productID, 10),
		"amount":     amount,
	})
}

func product(id, seller int64, startingBid string) model.Product {
	return model.Product{
		ProductID:   id,
		SellerID:    seller,
		Name:        "Product " + strconv.FormatInt(id, 10),
		StartingBid: decimal.RequireFromString(startingBid),
	}
}
