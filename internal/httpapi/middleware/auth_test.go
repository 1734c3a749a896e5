package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, header, value string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAny(t *testing.T) {
	h := RequireAny(Keys{Public: []string{"pub_key"}, Admin: []string{"adm_key"}})(okHandler)

	cases := []struct {
		name, header, value string
		want                int
	}{
		{"public key", "X-API-Key", "pub_key", http.StatusOK},
		{"admin bearer", "Authorization", "Bearer adm_key", http.StatusOK},
		{"lowercase bearer", "Authorization", "bearer pub_key", http.StatusOK},
		{"wrong key", "X-API-Key", "nope", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := serve(h, c.header, c.value); got != c.want {
				t.Fatalf("got %d want %d", got, c.want)
			}
		})
	}
}

func TestRequireAny_NoKeysAllowsAll(t *testing.T) {
	if got := serve(RequireAny(Keys{})(okHandler), "", ""); got != http.StatusOK {
		t.Fatalf("got %d want 200", got)
	}
}

func TestRequireAdmin_AllowsAdminKey_BlocksPublicKey(t *testing.T) {
	h := RequireAdmin(Keys{Public: []string{"pub_key"}, Admin: []string{"adm_key"}})(okHandler)

	if got := serve(h, "X-API-Key", "adm_key"); got != http.StatusOK {
		t.Fatalf("admin key should pass; got %d", got)
	}
	if got := serve(h, "X-API-Key", "pub_key"); got != http.StatusForbidden {
		t.Fatalf("public key should be forbidden; got %d", got)
	}
	if got := serve(h, "", ""); got != http.StatusUnauthorized {
		t.Fatalf("missing key should be 401; got %d", got)
	}
}
