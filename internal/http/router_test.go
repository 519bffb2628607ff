package httpapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-failurelog-api/internal/config"
	"github.com/tbourn/go-failurelog-api/internal/domain"
	"github.com/tbourn/go-failurelog-api/internal/failure"
	"github.com/tbourn/go-failurelog-api/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		Env:           config.EnvProduction,
		APIBasePath:   "/api",
		MaxBodyBytes:  1 << 20,
		RecordTimeout: time.Second,
		Database:      config.DatabaseConfig{SocketTimeout: time.Second},
		CORS:          config.CORSConfig{AllowedOrigins: nil},
		OTEL:          config.OTELConfig{ServiceName: "test-svc"},
	}
}

type harness struct {
	r   *gin.Engine
	db  *gorm.DB
	rec *failure.Recorder
}

func newHarness(t *testing.T, cfg config.Config) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	svc := NewServices(db, cfg)
	rec := failure.NewRecorder(svc.Failures, cfg.Env, cfg.RecordTimeout)
	r := gin.New()
	RegisterRoutes(r, svc, rec, cfg)
	return harness{r: r, db: db, rec: rec}
}

func (h harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return body
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	h := newHarness(t, testConfig())

	w := h.do(http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Fatalf("expected CSP header")
	}

	w = h.do(http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	w = h.do(http.MethodGet, "/nope?x=1", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if body := decode(t, w); body["message"] != "Route /nope?x=1 not found" || body["success"] != false {
		t.Fatalf("unexpected 404 body: %v", body)
	}

	// Wrong method is a plain 404 too.
	w = h.do(http.MethodPost, "/health", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("POST /health expected 404, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	h := newHarness(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestScenario_CreateFailureLogWithToken(t *testing.T) {
	h := newHarness(t, testConfig())

	w := h.do(http.MethodPost, "/api/failure-logs",
		`{"message":"m","origin":"BE","trace":"t","path":"/x","type":"normal"}`, "abc")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["success"] != true || body["message"] != "Resource created successfully" {
		t.Fatalf("unexpected body: %v", body)
	}
	if data := body["data"].(map[string]any); data["message"] != "m" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestScenario_MissingTokenIs401(t *testing.T) {
	h := newHarness(t, testConfig())

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/failure-logs"},
		{http.MethodGet, "/api/failure-logs"},
		{http.MethodGet, "/api/failure-logs/stats"},
		{http.MethodPost, "/api/products"},
		{http.MethodGet, "/api/products"},
		{http.MethodGet, "/api/products/" + uuid.NewString()},
	} {
		w := h.do(tc.method, tc.path, "{}", "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s expected 401, got %d", tc.method, tc.path, w.Code)
		}
		body := decode(t, w)
		if body["success"] != false || body["message"] != "Access token is required" {
			t.Fatalf("unexpected body: %v", body)
		}
	}

	var n int64
	h.db.Model(&domain.FailureLog{}).Count(&n)
	if n != 0 {
		t.Fatalf("auth rejections must not be recorded, got %d logs", n)
	}
}

func TestErrorsAreRecordedThroughRecorder(t *testing.T) {
	h := newHarness(t, testConfig())

	w := h.do(http.MethodGet, "/api/products/not-a-uuid", "", "tok")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decode(t, w); body["message"] != "Invalid id: not-a-uuid" {
		t.Fatalf("unexpected body: %v", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.rec.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	logs, err := repo.ListFailureLogs(context.Background(), h.db, repo.FailureLogFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one recorded failure, got %d", len(logs))
	}
	fl := logs[0]
	if fl.Path != "/api/products/not-a-uuid" || fl.Type != domain.SeverityNormal || fl.Origin != domain.OriginBackend {
		t.Fatalf("unexpected record: %+v", fl)
	}
	if fl.Metadata["statusCode"] != float64(400) || fl.Metadata["environment"] != config.EnvProduction {
		t.Fatalf("unexpected metadata: %v", fl.Metadata)
	}
}

func TestProducts_ListThroughRouter(t *testing.T) {
	h := newHarness(t, testConfig())
	for i := 0; i < 3; i++ {
		p := &domain.Product{
			Name:        fmt.Sprintf("p%d", i),
			Category:    "c",
			Price:       decimal.NewNullDecimal(decimal.NewFromInt(int64(i))),
			Description: "d",
			IsOnSale:    i != 2,
		}
		if _, err := repo.CreateProduct(context.Background(), h.db, p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w := h.do(http.MethodGet, "/api/products", "", "tok")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if items, _ := body["data"].([]any); len(items) != 2 {
		t.Fatalf("expected 2 on-sale products, got %v", body["data"])
	}
	if _, ok := body["pagination"]; ok {
		t.Fatalf("unexpected pagination: %v", body["pagination"])
	}

	w = h.do(http.MethodGet, "/api/products?all=true", "", "tok")
	if items, _ := decode(t, w)["data"].([]any); len(items) != 3 {
		t.Fatalf("expected 3 products with all=true")
	}
}

func TestGzip_WrapsErrorResponses(t *testing.T) {
	h := newHarness(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", w.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("gunzip: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil || body["message"] != "Product not found" {
		t.Fatalf("unexpected body %q: %v", raw, err)
	}
}

func TestRegisterRoutes_BodyLimitIsInvalidRequest(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 16
	h := newHarness(t, cfg)

	w := h.do(http.MethodPost, "/api/failure-logs", `{"message":"`+strings.Repeat("x", 64)+`"}`, "tok")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := decode(t, w); body["message"] != "Invalid request data" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRegisterRoutes_SwaggerToggle(t *testing.T) {
	h := newHarness(t, testConfig())
	if w := h.do(http.MethodGet, "/swagger/index.html", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("swagger disabled expected 404, got %d", w.Code)
	}

	cfg := testConfig()
	cfg.SwaggerEnabled = true
	h = newHarness(t, cfg)
	if w := h.do(http.MethodGet, "/swagger/index.html", "", ""); w.Code != http.StatusOK {
		t.Fatalf("swagger enabled expected 200, got %d", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func Test_repoShims_Proxy(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	fs := failureLogRepoShim{}
	fl, err := fs.CreateFailureLog(ctx, db, &domain.FailureLog{
		Message: "m", Origin: domain.OriginFrontend, Trace: []byte(`"t"`), Path: "/p", Type: domain.SeverityInfo,
	})
	if err != nil || fl.ID == "" {
		t.Fatalf("CreateFailureLog: %v", err)
	}
	logs, err := fs.ListFailureLogs(ctx, db, repo.FailureLogFilter{Type: domain.SeverityInfo})
	if err != nil || len(logs) != 1 {
		t.Fatalf("ListFailureLogs: %d %v", len(logs), err)
	}
	counts, latest, err := fs.FailureLogStats(ctx, db)
	if err != nil || counts[domain.SeverityInfo] != 1 || latest == nil {
		t.Fatalf("FailureLogStats: %v %v %v", counts, latest, err)
	}

	ps := productRepoShim{}
	p, err := ps.CreateProduct(ctx, db, &domain.Product{
		Name: "n", Category: "c", Price: decimal.NewNullDecimal(decimal.NewFromInt(1)), Description: "d",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	f := repo.ProductFilter{IncludeNotOnSale: true}
	if items, err := ps.ListProducts(ctx, db, f); err != nil || len(items) != 1 {
		t.Fatalf("ListProducts: %d %v", len(items), err)
	}
	if got, err := ps.GetProduct(ctx, db, p.ID); err != nil || got.ID != p.ID {
		t.Fatalf("GetProduct: %v", err)
	}
}
