package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIdempotencyHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(http.MethodPost, "/import", nil)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("key present by default")
	}
	if IsReplay(c) {
		t.Fatalf("replay by default")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key accepted")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("non-bool replay accepted")
	}

	if got := userIDFromCtx(c); got != demoUserID {
		t.Fatalf("fallback user = %q", got)
	}
	req.Header.Set("X-User-ID", " pilot-7 ")
	if got := userIDFromCtx(c); got != "pilot-7" {
		t.Fatalf("header user = %q", got)
	}
	c.Set("userID", 42)
	if got := userIDFromCtx(c); got != "pilot-7" {
		t.Fatalf("wrong-type ctx user should fall through, got %q", got)
	}
	c.Set("userID", "u1")
	if got := userIDFromCtx(c); got != "u1" {
		t.Fatalf("ctx user = %q", got)
	}
}

type lookupCall struct {
	user, key string
	calls     int
}

func idemRouter(opts IdempotencyOptions, lookup IdempotencyLookup, seen func(c *gin.Context)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(IdempotencyValidator(opts, lookup))
	h := func(c *gin.Context) {
		if seen != nil {
			seen(c)
		}
		c.Status(http.StatusCreated)
	}
	r.POST("/import", h)
	r.GET("/imports", h)
	return r
}

func TestIdempotencyValidator_SkipsWithoutHeaderOrOnSafeMethods(t *testing.T) {
	var got lookupCall
	lookup := func(_ context.Context, u, k string, _ time.Time) (bool, error) {
		got.calls++
		return true, nil
	}
	r := idemRouter(IdempotencyOptions{}, lookup, func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok || IsReplay(c) {
			t.Fatalf("key stashed where it should be ignored")
		}
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/import", nil))

	req := httptest.NewRequest(http.MethodGet, "/imports", nil)
	req.Header.Set(HeaderIdempotencyKey, "bad key!")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("GET with key = %d; header must be ignored", w.Code)
	}
	if got.calls != 0 {
		t.Fatalf("lookup called %d times", got.calls)
	}
}

func TestIdempotencyValidator_RejectsMalformedKeys(t *testing.T) {
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"default pattern", IdempotencyOptions{}, "bad key!"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc"},
		{"default max len", IdempotencyOptions{}, strings.Repeat("k", defaultIdemMaxLen+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			r := idemRouter(tc.opts, nil, func(*gin.Context) { called = true })
			req := httptest.NewRequest(http.MethodPost, "/import", nil)
			req.Header.Set(HeaderIdempotencyKey, tc.key)
			req.Header.Set(requestIDHeader, "rid-idem")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest || called {
				t.Fatalf("status=%d handler called=%v", w.Code, called)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json: %v", err)
			}
			if body["code"] != "bad_request" || body["request_id"] != "rid-idem" {
				t.Fatalf("body=%v", body)
			}
		})
	}
}

func TestIdempotencyValidator_LookupOutcomes(t *testing.T) {
	cases := []struct {
		name       string
		exists     bool
		err        error
		wantReplay bool
	}{
		{"miss", false, nil, false},
		{"hit", true, nil, true},
		{"error is a miss", false, errors.New("db down"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := withCapturedLogger(t)
			var got lookupCall
			lookup := func(_ context.Context, u, k string, now time.Time) (bool, error) {
				got = lookupCall{user: u, key: k, calls: got.calls + 1}
				if now.Location() != time.UTC {
					t.Fatalf("lookup time not UTC")
				}
				return tc.exists, tc.err
			}
			r := idemRouter(IdempotencyOptions{}, lookup, func(c *gin.Context) {
				if k, _ := GetIdempotencyKey(c); k != "upload-2025-04" {
					t.Fatalf("key=%q", k)
				}
				if IsReplay(c) != tc.wantReplay || IsRateBypass(c) != tc.wantReplay {
					t.Fatalf("replay=%v bypass=%v", IsReplay(c), IsRateBypass(c))
				}
			})

			req := httptest.NewRequest(http.MethodPost, "/import", nil)
			req.Header.Set(HeaderIdempotencyKey, "upload-2025-04")
			req.Header.Set("X-User-ID", "pilot-9")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusCreated {
				t.Fatalf("status=%d", w.Code)
			}
			if got.calls != 1 || got.user != "pilot-9" || got.key != "upload-2025-04" {
				t.Fatalf("lookup=%+v", got)
			}
			if logged := strings.Contains(buf.String(), "idempotency lookup failed"); logged != (tc.err != nil) {
				t.Fatalf("lookup failure logged=%v: %s", logged, buf.String())
			}
		})
	}
}

func TestIdempotencyValidator_CustomMethods(t *testing.T) {
	lookupCalled := false
	lookup := func(context.Context, string, string, time.Time) (bool, error) {
		lookupCalled = true
		return false, nil
	}
	r := idemRouter(IdempotencyOptions{Methods: []string{"get"}}, lookup, nil)

	req := httptest.NewRequest(http.MethodGet, "/imports", nil)
	req.Header.Set(HeaderIdempotencyKey, "k1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if !lookupCalled {
		t.Fatalf("custom method not checked")
	}
}
