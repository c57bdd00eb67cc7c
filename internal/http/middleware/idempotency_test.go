package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemRouter(lookup IdempotencyLookup, capture func(c *gin.Context)) *gin.Engine {
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/", func(c *gin.Context) {
		if capture != nil {
			capture(c)
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestIdempotencyValidator_NoHeaderIsNoop(t *testing.T) {
	r := idemRouter(nil, func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Error("key stashed without header")
		}
		if IsReplay(c) {
			t.Error("replay flagged without header")
		}
	})

	if w := doRequest(r, http.MethodPost, "/", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestIdempotencyValidator_StashesValidKey(t *testing.T) {
	var got string
	r := idemRouter(nil, func(c *gin.Context) {
		got, _ = GetIdempotencyKey(c)
	})

	w := doRequest(r, http.MethodPost, "/", map[string]string{
		HeaderIdempotencyKey: "order-2026.08.30:retry-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got != "order-2026.08.30:retry-1" {
		t.Fatalf("stashed key = %q", got)
	}
}

func TestIdempotencyValidator_RejectsMalformedKey(t *testing.T) {
	r := idemRouter(nil, nil)

	w := doRequest(r, http.MethodPost, "/", map[string]string{
		HeaderIdempotencyKey: "bad key with spaces",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestIdempotencyValidator_RejectsOverlongKey(t *testing.T) {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	r := idemRouter(nil, nil)

	w := doRequest(r, http.MethodPost, "/", map[string]string{
		HeaderIdempotencyKey: string(long),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestIdempotencyValidator_MarksReplay(t *testing.T) {
	lookup := func(_ context.Context, key string, _ time.Time) (bool, error) {
		return key == "seen-before", nil
	}
	r := idemRouter(lookup, func(c *gin.Context) {
		if !IsReplay(c) {
			t.Error("replay not flagged")
		}
		if !IsRateBypass(c) {
			t.Error("rate bypass not flagged")
		}
	})

	if w := doRequest(r, http.MethodPost, "/", map[string]string{HeaderIdempotencyKey: "seen-before"}); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestIdempotencyValidator_LookupErrorDoesNotBlock(t *testing.T) {
	lookup := func(context.Context, string, time.Time) (bool, error) {
		return false, errors.New("db down")
	}
	r := idemRouter(lookup, func(c *gin.Context) {
		if IsReplay(c) {
			t.Error("replay flagged on lookup error")
		}
	})

	if w := doRequest(r, http.MethodPost, "/", map[string]string{HeaderIdempotencyKey: "fresh"}); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
