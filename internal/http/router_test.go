package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-integration-backend/internal/config"
	"github.com/tbourn/go-integration-backend/internal/repo"
)

// newBackend starts a stub external integration endpoint that accepts
// submissions and answers inquiries.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/requests":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"externalRequestId": "EXT-777",
				"status":            "Submitted",
				"submittedAt":       time.Now().UTC(),
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/requests/inquiry":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"requestId":         r.URL.Query().Get("requestId"),
				"externalRequestId": "EXT-777",
				"status":            "Processing",
				"submittedAt":       time.Now().UTC(),
				"additionalInfo":    map[string]any{},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEngine(t *testing.T, backendURL string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        1000,
		RateBurst:      1000,
		IdempotencyTTL: time.Hour,
		Integration: config.IntegrationConfig{
			BaseURL:        backendURL,
			AddRequestPath: "/api/requests",
			InquiryPath:    "/api/requests/inquiry",
			Timeout:        5 * time.Second,
		},
	}
	cfg.OTEL.ServiceName = "integration-backend-test"

	r := gin.New()
	RegisterRoutes(r, db, cfg)
	return r, db
}

func serve(r *gin.Engine, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestEngine(t, newBackend(t).URL)

	w := serve(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	r, _ := newTestEngine(t, newBackend(t).URL)

	w := serve(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRouter_NoRouteEnvelope(t *testing.T) {
	r, _ := newTestEngine(t, newBackend(t).URL)

	w := serve(r, http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestRouter_NoMethodEnvelope(t *testing.T) {
	r, _ := newTestEngine(t, newBackend(t).URL)

	w := serve(r, http.MethodDelete, "/api/v1/requests/inquiry", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRouter_RequestIDHeaderAlwaysPresent(t *testing.T) {
	r, _ := newTestEngine(t, newBackend(t).URL)

	w := serve(r, http.MethodGet, "/health", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID missing")
	}
}

func TestRouter_SubmitThenReadBack(t *testing.T) {
	r, _ := newTestEngine(t, newBackend(t).URL)

	w := serve(r, http.MethodPost, "/api/v1/requests",
		`{"request_type":"order","request_data":"{\"sku\":\"A-1\"}","metadata":{}}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body = %s", w.Code, w.Body.String())
	}
	var created struct {
		RequestID         string `json:"request_id"`
		ExternalRequestID string `json:"external_request_id"`
		Status            string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ExternalRequestID != "EXT-777" || created.Status != "Submitted" {
		t.Fatalf("created = %+v", created)
	}

	w = serve(r, http.MethodGet, "/api/v1/requests/"+created.RequestID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("read-back status = %d, body = %s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodGet, "/api/v1/requests?status=Submitted", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), created.RequestID) {
		t.Fatalf("list body = %s", w.Body.String())
	}
}

func TestRouter_InquiryRoute(t *testing.T) {
	r, _ := newTestEngine(t, newBackend(t).URL)

	w := serve(r, http.MethodGet, "/api/v1/requests/inquiry?external_request_id=EXT-777", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"status":"Processing"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestRouter_InvalidIdempotencyKeyRejected(t *testing.T) {
	r, _ := newTestEngine(t, newBackend(t).URL)

	w := serve(r, http.MethodPost, "/api/v1/requests",
		`{"request_type":"order","request_data":"{}","metadata":{}}`,
		map[string]string{"Idempotency-Key": "bad key"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
