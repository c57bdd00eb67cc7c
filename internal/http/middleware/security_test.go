package middleware

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func secRouter(opt SecurityOptions) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(opt))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	w := doRequest(secRouter(SecurityOptions{}), http.MethodGet, "/", nil)

	for hdr, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := w.Header().Get(hdr); got != want {
			t.Errorf("%s = %q, want %q", hdr, got, want)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS emitted without opt-in")
	}
}

func TestSecurityHeaders_NoStore(t *testing.T) {
	w := doRequest(secRouter(SecurityOptions{NoStore: true}), http.MethodGet, "/", nil)
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control = %q", got)
	}
}

func TestSecurityHeaders_PolicyOptIn(t *testing.T) {
	w := doRequest(secRouter(SecurityOptions{EnablePolicy: true}), http.MethodGet, "/", nil)
	if w.Header().Get("Permissions-Policy") == "" {
		t.Fatal("Permissions-Policy missing")
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	r := secRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour})

	w := doRequest(r, http.MethodGet, "/", nil)
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS emitted for plain HTTP")
	}

	w = doRequest(r, http.MethodGet, "/", map[string]string{"X-Forwarded-Proto": "https"})
	hsts := w.Header().Get("Strict-Transport-Security")
	if !strings.Contains(hsts, "max-age=86400") {
		t.Fatalf("HSTS = %q", hsts)
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	w := doRequest(secRouter(SecurityOptions{}), http.MethodGet, "/", nil)
	if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "X-Request-ID") {
		t.Fatalf("Access-Control-Expose-Headers = %q", got)
	}
}

func TestItoa(t *testing.T) {
	for in, want := range map[int]string{0: "0", 7: "7", 12345: "12345", -42: "-42"} {
		if got := itoa(in); got != want {
			t.Errorf("itoa(%d) = %q, want %q", in, got, want)
		}
	}
}
