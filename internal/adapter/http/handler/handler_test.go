package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"carbon-credit-ledger/internal/adapter/http/middleware"
	"carbon-credit-ledger/internal/adapter/storage/memory"
	"carbon-credit-ledger/internal/core/domain"
	"carbon-credit-ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memCache is a map-backed replay cache for router tests.
type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Governance().Set(&domain.GovernanceConfig{
		Admins: []string{"admin"}, CommunityVoteThreshold: 10, FlagThreshold: 5,
	}))
	require.NoError(t, tx.Settlement().SetBalance("buyer", 10000))
	require.NoError(t, tx.Commit(ctx))

	log := zerolog.Nop()
	router := SetupRouter(RouterDeps{
		RegistrySvc:     service.NewRegistryService(store, log),
		MarketplaceSvc:  service.NewMarketplaceService(store, log),
		VerificationSvc: service.NewVerificationService(store, log),
		RetirementSvc:   service.NewRetirementService(store, "https://registry.example.com/certificates", log),
		ReplayCache:     &memCache{m: make(map[string][]byte)},
		Logger:          log,
	})
	return &testServer{router: router, store: store}
}

func (s *testServer) call(t *testing.T, sender, txID, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderSender, sender)
	req.Header.Set(middleware.HeaderTxID, txID)
	req.Header.Set(middleware.HeaderTime, "1700000000")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func dataField(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestRouter_IssueCredit(t *testing.T) {
	s := newTestServer(t)

	w := s.call(t, "developer", "tx-1", "/api/v1/registry/issue",
		`{"credit_id":"C1","project_id":"P1","amount":100,"vintage":2023,"standard":"VCS"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := dataField(t, w)
	assert.Equal(t, "C1", data["id"])
	assert.Equal(t, "developer", data["owner"])
	assert.Equal(t, float64(100), data["amount"])
}

func TestRouter_RequiresLedgerHeaders(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/registry/issue",
		strings.NewReader(`{"credit_id":"C1","project_id":"P1","amount":100,"vintage":2023,"standard":"VCS"}`))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "LED_005")
}

func TestRouter_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		path string
		body string
	}{
		{"bad credit id", "/api/v1/registry/issue", `{"credit_id":"C 1!","project_id":"P1","amount":100,"vintage":2023,"standard":"VCS"}`},
		{"zero amount", "/api/v1/registry/issue", `{"credit_id":"C1","project_id":"P1","amount":0,"vintage":2023,"standard":"VCS"}`},
		{"bad vote", "/api/v1/verification/votes", `{"verification_id":"V1","vote":"maybe"}`},
		{"bad verifier type", "/api/v1/verification/verifiers", `{"verifier_address":"v1","verifier_name":"V","verifier_type":"oracle"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.call(t, "admin", "tx-"+tc.name, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "LED_005")
		})
	}
}

func TestRouter_ErrorCodesPropagate(t *testing.T) {
	s := newTestServer(t)

	w := s.call(t, "developer", "tx-1", "/api/v1/registry/issue",
		`{"credit_id":"C1","project_id":"P1","amount":100,"vintage":2023,"standard":"VCS"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate id under a new transaction id maps to 409 / LED_004.
	w = s.call(t, "developer", "tx-2", "/api/v1/registry/issue",
		`{"credit_id":"C1","project_id":"P1","amount":100,"vintage":2023,"standard":"VCS"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "LED_004")

	// Non-admin project registration maps to 403 / LED_002.
	w = s.call(t, "developer", "tx-3", "/api/v1/registry/projects",
		`{"project_id":"P1","name":"Mangroves"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "LED_002")
}

func TestRouter_TradeFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.call(t, "developer", "tx-1", "/api/v1/registry/issue",
		`{"credit_id":"C1","project_id":"P1","amount":100,"vintage":2023,"standard":"VCS"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.call(t, "developer", "tx-2", "/api/v1/marketplace/listings",
		`{"credit_id":"C1","quantity":50,"price_per_unit":10}`)
	require.Equal(t, http.StatusCreated, w.Code)
	listingID := dataField(t, w)["id"].(string)

	w = s.call(t, "buyer", "tx-3", "/api/v1/marketplace/orders",
		`{"listing_id":"`+listingID+`","quantity":20}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataField(t, w)
	assert.Equal(t, float64(200), data["total_price"])
	child := data["child_credit"].(map[string]any)
	assert.Equal(t, "buyer", child["owner"])
	assert.Equal(t, float64(20), child["amount"])
}

func TestRouter_ReplaySameTxID(t *testing.T) {
	s := newTestServer(t)
	body := `{"credit_id":"C1","project_id":"P1","amount":100,"vintage":2023,"standard":"VCS"}`

	first := s.call(t, "developer", "tx-dup", "/api/v1/registry/issue", body)
	require.Equal(t, http.StatusCreated, first.Code)

	// Redelivery with the same transaction id replays the first outcome
	// instead of hitting the duplicate-id conflict.
	second := s.call(t, "developer", "tx-dup", "/api/v1/registry/issue", body)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("X-Ledger-Replayed"))
}

func TestRouter_HealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRouter_RetirementFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.call(t, "owner", "tx-1", "/api/v1/registry/issue",
		`{"credit_id":"C1","project_id":"P1","amount":50,"vintage":2023,"standard":"GS"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.call(t, "owner", "tx-2", "/api/v1/retirement/retire",
		`{"credit_ids":["C1"],"quantities":[50],"beneficiary_name":"Acme","purpose":"compliance"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	retirementID := dataField(t, w)["id"].(string)

	w = s.call(t, "owner", "tx-3", "/api/v1/retirement/certificates",
		`{"retirement_id":"`+retirementID+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := dataField(t, w)
	assert.Contains(t, data["verification_url"], "/verify")

	// One certificate per retirement.
	w = s.call(t, "owner", "tx-4", "/api/v1/retirement/certificates",
		`{"retirement_id":"`+retirementID+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "RET_001")
}
