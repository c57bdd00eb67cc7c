package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsRequests(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	before := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/ok", "200"))

	if w := doRequest(r, http.MethodGet, "/ok", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/ok", "200"))
	if after != before+1 {
		t.Fatalf("http_requests_total = %v, want %v", after, before+1)
	}
}

func TestMetrics_FallsBackToRawPathOnNoRoute(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())

	before := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/missing", "404"))

	if w := doRequest(r, http.MethodGet, "/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/missing", "404"))
	if after != before+1 {
		t.Fatalf("http_requests_total = %v, want %v", after, before+1)
	}
}

func TestMetrics_InflightReturnsToZero(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	doRequest(r, http.MethodGet, "/", nil)
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight = %v, want 0", got)
	}
}
