package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(100, 2, KeyByClientIP())
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := doRequest(r, http.MethodGet, "/", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
}

func TestRateLimiter_RejectsWhenExhausted(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, KeyByClientIP())
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doRequest(r, http.MethodGet, "/", nil); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", w.Code)
	}
	w := doRequest(r, http.MethodGet, "/", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After not set")
	}
}

func TestRateLimiter_BurstCoercedToOne(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByClientIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d, want 1", rl.burst)
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, KeyByClientIP())
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true) })
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w := doRequest(r, http.MethodGet, "/", nil); w.Code != http.StatusOK {
			t.Fatalf("bypassed request %d: status = %d", i, w.Code)
		}
	}
}

func TestIsRateBypass_DefaultFalse(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if IsRateBypass(c) {
		t.Fatal("bypass should default to false")
	}
}

func TestGetVisitor_ReusesBucketPerKey(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByClientIP())
	a := rl.getVisitor("ip:1.2.3.4")
	b := rl.getVisitor("ip:1.2.3.4")
	if a != b {
		t.Fatal("same key must share a bucket")
	}
	if c := rl.getVisitor("ip:5.6.7.8"); c == a {
		t.Fatal("different keys must not share a bucket")
	}
}
