package server

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func serve(config SecurityConfig, method, origin string) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := SecurityMiddleware(config, func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		_, _ = w.Write([]byte("scraped"))
	})
	req := httptest.NewRequest(method, "/metrics", http.NoBody)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec, reached
}

func TestDefaultSecurityConfig_ReadOnly(t *testing.T) {
	c := DefaultSecurityConfig()
	if !c.EnableCORS || !slices.Equal(c.AllowedOrigins, []string{"*"}) {
		t.Errorf("default CORS = %v %v", c.EnableCORS, c.AllowedOrigins)
	}
	if !slices.Equal(c.AllowedMethods, []string{http.MethodGet, http.MethodOptions}) {
		t.Errorf("AllowedMethods = %v, want GET and OPTIONS only", c.AllowedMethods)
	}
}

func TestSecurityMiddleware_HardeningHeaders(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodPost} {
		rec, reached := serve(DefaultSecurityConfig(), method, "")
		if !reached {
			t.Errorf("%s: next handler not called", method)
		}
		want := map[string]string{
			"X-Content-Type-Options":  "nosniff",
			"X-Frame-Options":         "DENY",
			"X-XSS-Protection":        "1; mode=block",
			"Referrer-Policy":         "strict-origin-when-cross-origin",
			"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		}
		for k, v := range want {
			if got := rec.Header().Get(k); got != v {
				t.Errorf("%s: %s = %q, want %q", method, k, got, v)
			}
		}
	}
}

func TestSecurityMiddleware_CORSOrigins(t *testing.T) {
	pinned := SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"http://grafana.local", "http://prom.local"},
		AllowedMethods: []string{http.MethodGet},
	}
	tests := []struct {
		name   string
		config SecurityConfig
		origin string
		want   string
	}{
		{"disabled", SecurityConfig{}, "http://grafana.local", ""},
		{"wildcard", DefaultSecurityConfig(), "http://anywhere", "*"},
		{"wildcard without origin", DefaultSecurityConfig(), "", "*"},
		{"pinned first", pinned, "http://grafana.local", "http://grafana.local"},
		{"pinned second", pinned, "http://prom.local", "http://prom.local"},
		{"pinned mismatch", pinned, "http://evil.local", ""},
		{"pinned without origin", pinned, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := serve(tt.config, http.MethodGet, tt.origin)
			h := rec.Header()
			if got := h.Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Fatalf("Allow-Origin = %q, want %q", got, tt.want)
			}
			if tt.want != "" && (h.Get("Access-Control-Allow-Methods") == "" || h.Get("Access-Control-Max-Age") != "3600") {
				t.Errorf("incomplete CORS headers: %v", h)
			}
		})
	}
}

func TestSecurityMiddleware_Preflight(t *testing.T) {
	rec, reached := serve(DefaultSecurityConfig(), http.MethodOptions, "http://grafana.local")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if reached {
		t.Error("preflight must not reach the handler")
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != "GET, OPTIONS" {
		t.Errorf("Allow-Methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestSecurityMiddleware_PassesBody(t *testing.T) {
	rec, _ := serve(DefaultSecurityConfig(), http.MethodGet, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "scraped" {
		t.Errorf("response = %d %q", rec.Code, rec.Body.String())
	}
}
