package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/rongwang/finance-cockpit/internal/advisory"
	"github.com/rongwang/finance-cockpit/internal/api"
	"github.com/rongwang/finance-cockpit/internal/config"
	"github.com/rongwang/finance-cockpit/internal/ledger"
	"github.com/rongwang/finance-cockpit/internal/models"
	"github.com/rongwang/finance-cockpit/internal/repository"
	"github.com/rongwang/finance-cockpit/internal/service"
	"github.com/rongwang/finance-cockpit/internal/utils"
)

// TestEntityID is the entity the fake backends serve
const TestEntityID = "94ea44d8-0000-4000-8000-000000000001"

// TestEmail is the identifier used to log in
const TestEmail = "testuser@example.com"

// FakeBackends records what the cockpit sent and controls what it gets back
type FakeBackends struct {
	mu sync.Mutex

	BriefFails  bool
	WritesFail  bool
	LedgerDown  bool
	BookingsRaw string // served verbatim by GET /bookings when set

	BookingQueries []string
	Acked          []string
	Approved       []string
	RejectBodies   map[string]string // id -> raw request body
}

func (f *FakeBackends) lock() func() {
	f.mu.Lock()
	return f.mu.Unlock
}

// Set changes the fake's behaviour under its lock
func (f *FakeBackends) Set(change func(f *FakeBackends)) {
	defer f.lock()()
	change(f)
}

// Snapshot reads the fake's records under its lock
func (f *FakeBackends) Snapshot(read func(f *FakeBackends)) {
	defer f.lock()()
	read(f)
}

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	Fakes      *FakeBackends

	ledgerServer   *httptest.Server
	advisoryServer *httptest.Server

	cookies map[string]*http.Cookie
}

// SetupTestContext creates a new test context wired to fake backends
func SetupTestContext(t *testing.T) *TestContext {
	gin.SetMode(gin.TestMode)

	cfg := config.LoadConfig()
	if cfg.Auth.CookieSecret == "" {
		cfg.Auth.CookieSecret = "test-secret-key"
	}

	fakes := &FakeBackends{RejectBodies: map[string]string{}}
	ledgerServer := httptest.NewServer(fakeLedger(fakes))
	advisoryServer := httptest.NewServer(fakeAdvisory(fakes))

	logger := utils.NewDiscardLogger()
	repo := repository.NewMemoryRepository()

	svc := service.NewDefaultService(service.Deps{
		Ledger:          ledger.NewClient(ledgerServer.URL, nil, 5*time.Second, logger),
		Advisory:        advisory.NewClient(advisoryServer.URL, nil, 5*time.Second, logger),
		DefaultEntityID: TestEntityID,
		Logger:          logger,
	})

	handler := api.NewHandler(svc, repo, cfg.Auth.CookieSecret, logger)

	router := gin.New()
	router.Use(gin.Recovery(), api.CORSMiddleware(nil))
	handler.SetupRoutes(router)

	return &TestContext{
		Router:         router,
		Repository:     repo,
		Service:        svc,
		Fakes:          fakes,
		ledgerServer:   ledgerServer,
		advisoryServer: advisoryServer,
		cookies:        map[string]*http.Cookie{},
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(tc *TestContext) {
	tc.ledgerServer.Close()
	tc.advisoryServer.Close()
}

// StopLedger makes every ledger call fail at the network level
func (tc *TestContext) StopLedger() {
	tc.ledgerServer.Close()
}

// Do performs a request as the same browser: cookies set by earlier responses are sent back
func (tc *TestContext) Do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	if headers == nil {
		headers = map[string]string{}
	}
	var cookies []string
	for _, c := range tc.cookies {
		cookies = append(cookies, c.Name+"="+c.Value)
	}
	if len(cookies) > 0 {
		headers["Cookie"] = strings.Join(cookies, "; ")
	}

	w := PerformRequest(tc.Router, method, path, body, headers)
	for _, c := range w.Result().Cookies() {
		tc.cookies[c.Name] = c
	}
	return w
}

// Login logs the browser in as TestEmail
func (tc *TestContext) Login(t *testing.T) {
	w := tc.Do(http.MethodPost, "/api/auth/login", models.LoginRequest{Email: TestEmail}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
}

// ClientID returns the client id held in the browser's cookie
func (tc *TestContext) ClientID(t *testing.T) string {
	t.Helper()
	cookie, ok := tc.cookies[api.ClientCookieName]
	if !ok {
		t.Fatal("no client cookie issued yet")
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(cookie.Value, claims); err != nil {
		t.Fatalf("invalid client cookie: %v", err)
	}
	return claims.Subject
}

// ForgetCookies makes the next request look like a new browser
func (tc *TestContext) ForgetCookies() {
	tc.cookies = map[string]*http.Cookie{}
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		jsonBody, _ := json.Marshal(b)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DecodeJSON unmarshals a recorded response body
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fakeLedger(f *FakeBackends) http.Handler {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		f.mu.Lock()
		down := f.LedgerDown
		f.mu.Unlock()
		if down {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/entities", func(c *gin.Context) {
		c.JSON(http.StatusOK, []models.Entity{{ID: TestEntityID, Name: "EzyCrane"}})
	})
	r.GET("/entities/:id/trial-balance", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.TrialBalanceResponse{
			EntityID: c.Param("id"),
			AsOf:     c.Query("asOf"),
			Entries: []models.TrialBalanceEntry{
				{AccountCode: "110", AccountName: "Bank", Balance: d("15000")},
				{AccountCode: "112", AccountName: "Accounts Receivable", Balance: d("4200")},
				{AccountCode: "800", AccountName: "Customer Deposits", Balance: d("3000")},
			},
		})
	})
	r.GET("/entities/:id/pnl", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.PnLResponse{
			EntityID:      c.Param("id"),
			From:          c.Query("from"),
			To:            c.Query("to"),
			Revenue:       []models.PnLEntry{{AccountCode: "400", AccountName: "Crane Hire", Amount: d("10000")}},
			Cogs:          []models.PnLEntry{{AccountCode: "500", AccountName: "Supplier Costs", Amount: d("6000")}},
			Expenses:      []models.PnLEntry{},
			TotalRevenue:  d("10000"),
			TotalCogs:     d("6000"),
			TotalExpenses: d("0"),
			GrossMargin:   d("4000"),
			NetResult:     d("4000"),
		})
	})
	r.GET("/entities/:id/balance-sheet", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.BalanceSheetResponse{
			EntityID:         c.Param("id"),
			AsOf:             c.Query("asOf"),
			Assets:           []models.BalanceSheetEntry{{AccountCode: "110", AccountName: "Bank", Amount: d("15000")}},
			Liabilities:      []models.BalanceSheetEntry{{AccountCode: "800", AccountName: "Customer Deposits", Amount: d("3000")}},
			Equity:           []models.BalanceSheetEntry{{AccountCode: "300", AccountName: "Retained Earnings", Amount: d("12000")}},
			TotalAssets:      d("15000"),
			TotalLiabilities: d("3000"),
			TotalEquity:      d("12000"),
		})
	})
	r.GET("/bookings", func(c *gin.Context) {
		f.mu.Lock()
		f.BookingQueries = append(f.BookingQueries, c.Request.URL.RawQuery)
		raw := f.BookingsRaw
		f.mu.Unlock()

		if raw != "" {
			c.Data(http.StatusOK, "application/json", []byte(raw))
			return
		}
		c.JSON(http.StatusOK, []models.BookingSummary{{
			ID:             "b-1",
			Customer:       "Acme Builders",
			Supplier:       "Big Lift Cranes",
			Status:         models.BookingConfirmed,
			DepositAmount:  d("300"),
			BalanceAmount:  d("700"),
			TotalJobAmount: d("1000"),
			MarginAmount:   d("350"),
			CreatedAt:      "2025-03-01T09:00:00Z",
		}})
	})
	r.GET("/bookings/:id", func(c *gin.Context) {
		if c.Param("id") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, models.BookingDetails{
			BookingSummary: models.BookingSummary{ID: c.Param("id"), Status: models.BookingCompleted},
			Events: []models.BookingEvent{
				{ID: "e2", Type: "BALANCE_PAID", Date: "2025-03-10", Amount: d("700")},
				{ID: "e1", Type: "DEPOSIT_PAID", Date: "2025-03-01", Amount: d("300")},
			},
			Revenue:     d("1000"),
			Cogs:        d("650"),
			GrossMargin: d("350"),
		})
	})
	return r
}

func fakeAdvisory(f *FakeBackends) http.Handler {
	r := gin.New()

	writeFails := func(c *gin.Context) bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.WritesFail {
			c.Status(http.StatusInternalServerError)
			return true
		}
		return false
	}

	r.GET("/entities/:id/brief", func(c *gin.Context) {
		f.mu.Lock()
		fails := f.BriefFails
		f.mu.Unlock()
		if fails {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, models.CfoBrief{
			LedgerEntityID:    c.Param("id"),
			AsOf:              "2025-03-15",
			Cash:              d("20000"),
			RunwayDays:        45,
			DepositsHeld:      d("7500"),
			GstExposure:       d("1200"),
			MarginPctCurrent:  d("35"),
			MarginPctPrevious: d("32"),
			MarginTrendDelta:  d("3"),
			Narrative:         "Cash is healthy.",
		})
	})
	r.GET("/entities/:id/alerts", func(c *gin.Context) {
		c.JSON(http.StatusOK, []models.CfoAlert{
			{ID: "alert-1", Severity: models.SeverityCritical, Category: models.CategoryCashflow, Title: "Low cash"},
			{ID: "alert-2", Severity: models.SeverityInfo, Category: models.CategoryGST, Title: "GST due"},
		})
	})
	r.POST("/alerts/:id/ack", func(c *gin.Context) {
		if writeFails(c) {
			return
		}
		f.mu.Lock()
		f.Acked = append(f.Acked, c.Param("id"))
		f.mu.Unlock()
		c.Status(http.StatusNoContent)
	})
	r.GET("/entities/:id/recommendations", func(c *gin.Context) {
		status := models.RecommendationStatus(c.Query("status"))
		c.JSON(http.StatusOK, []models.CfoRecommendation{
			{ID: "rec-1", Type: models.RecommendationGSTReserve, Status: status, Title: "Reserve GST"},
			{ID: "rec-2", Type: models.RecommendationOther, Status: status, Title: "Review pricing"},
		})
	})
	r.POST("/recommendations/:id/approve", func(c *gin.Context) {
		if writeFails(c) {
			return
		}
		f.mu.Lock()
		f.Approved = append(f.Approved, c.Param("id"))
		f.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"status": "APPLIED"})
	})
	r.POST("/recommendations/:id/reject", func(c *gin.Context) {
		if writeFails(c) {
			return
		}
		body, _ := io.ReadAll(c.Request.Body)
		f.mu.Lock()
		f.RejectBodies[c.Param("id")] = string(body)
		f.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"status": "REJECTED"})
	})
	return r
}
