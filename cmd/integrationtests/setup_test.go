package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auction "ownit/internal/auctionService"
	"ownit/internal/events"
	"ownit/internal/payments"
	"ownit/internal/repository"
	"ownit/internal/server"
	"ownit/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// TestStack wires the full in-memory application for integration testing. The
// bank is exposed so tests can fund wallets and pay entry fees, which in
// production happens through the payment gateway.
type TestStack struct {
	Router  *gin.Engine
	Service *auction.AuctionService
	Bank    *payments.WalletBank
	Hub     *events.Hub
}

// SetupTestStack initializes the router with the in-memory ledger, wallet bank
// and event hub.
func SetupTestStack() *TestStack {
	gin.SetMode(gin.TestMode)

	ledger := repository.NewMemoryLedger()
	bank := payments.NewWalletBank()
	hub := events.NewHub()
	service := auction.NewAuctionService(ledger, bank, payments.LogNotifier{}, events.MultiPublisher{hub}, 2*time.Second)
	router := server.SetupRouter(service, hub)

	return &TestStack{Router: router, Service: service, Bank: bank, Hub: hub}
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
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
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
	}

	return resp, w
}

// CreateActiveAuction creates and starts an auction over HTTP and returns its id.
func (s *TestStack) CreateActiveAuction(t *testing.T, productID string, basePrice, entryFee float64, endIn time.Duration) string {
	t.Helper()

	resp, w := ExecuteRequestAndParse(t, s.Router, http.MethodPost, "/auctions", helpers.CreateAuctionRequest{
		ProductID: productID,
		SellerID:  "seller1",
		BasePrice: basePrice,
		EntryFee:  entryFee,
		EndTime:   time.Now().UTC().Add(endIn),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	auctionID := resp["data"].(map[string]any)["auction_id"].(string)

	_, w = ExecuteRequestAndParse(t, s.Router, http.MethodPut, "/auctions/"+auctionID+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	return auctionID
}

// JoinUsers funds each user's wallet, pays the entry fee and joins them over HTTP.
func (s *TestStack) JoinUsers(t *testing.T, auctionID string, entryFee float64, userIDs ...string) {
	t.Helper()

	for _, userID := range userIDs {
		s.Bank.Credit(userID, entryFee+100)
		_, err := s.Bank.PayEntryFeeFromWallet(auctionID, userID, entryFee)
		require.NoError(t, err)

		_, w := ExecuteRequestAndParse(t, s.Router, http.MethodPost, "/auctions/"+auctionID+"/join",
			helpers.JoinAuctionRequest{UserID: userID})
		require.Equal(t, http.StatusOK, w.Code)
	}
}
