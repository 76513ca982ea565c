package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-house/internal/auctionService"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/clock"
	"auction-house/internal/lifecycle"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/server"

	"github.com/gin-gonic/gin"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// TestEnv bundles the router with the fake clock and store backing it, so
// tests can advance time and inspect persisted state directly.
type TestEnv struct {
	Router *gin.Engine
	Clock  *clock.Fake
	Store  *repository.MemoryStore
}

// SetupTestEnv initializes the full HTTP stack over an in-memory store and a
// fake clock pinned to baseTime.
func SetupTestEnv() *TestEnv {
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	clk := clock.NewFake(baseTime)
	lc := lifecycle.NewManager(store)

	auctionService := auction.NewAuctionService(store, clk, lc)
	biddingService := bidding.NewBiddingService(store, clk, lc)

	return &TestEnv{
		Router: server.SetupRouter(auctionService, biddingService),
		Clock:  clk,
		Store:  store,
	}
}

// SetupTestEnvWithAuctions initializes the stack and seeds the store.
func SetupTestEnvWithAuctions(auctions ...model.Auction) *TestEnv {
	env := SetupTestEnv()
	for _, a := range auctions {
		if err := env.Store.CreateAuction(a); err != nil {
			panic(err)
		}
	}
	return env
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}

		if w.Code == 201 {
			resp = resp["data"].(map[string]any)
		}
	}

	return resp, w
}
