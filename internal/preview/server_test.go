package preview

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nothsreports/internal/catalog"
	"nothsreports/internal/snapshot"
)

func get(t *testing.T, h http.Handler, target string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res := rec.Result()
	b, _ := io.ReadAll(res.Body)
	return res, string(b)
}

func TestServesTree(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sellers", "a"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sellers", "a", "acme.html"), []byte("<h1>Acme</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	sitemap := `<urlset><url><loc>https://example.com/noths/sellers/a/acme.html</loc></url></urlset>`
	if err := os.WriteFile(filepath.Join(root, "sitemap.xml"), []byte(sitemap), 0o644); err != nil {
		t.Fatal(err)
	}

	h := New(root, "https://example.com/noths/", nil, nil).Routes()

	res, body := get(t, h, "/health")
	if res.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("health = %d %q", res.StatusCode, body)
	}
	res, body = get(t, h, "/sellers/a/acme.html")
	if res.StatusCode != http.StatusOK || body != "<h1>Acme</h1>" {
		t.Fatalf("page = %d %q", res.StatusCode, body)
	}
	res, body = get(t, h, "/sitemap.xml")
	if res.StatusCode != http.StatusOK || !strings.Contains(body, "<loc>http://example.com/sellers/a/acme.html</loc>") {
		t.Fatalf("sitemap = %d %q", res.StatusCode, body)
	}
	res, _ = get(t, h, "/api/top-products")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("top products without a store = %d", res.StatusCode)
	}
}

func TestTopProductsAPI(t *testing.T) {
	store, err := snapshot.Open(filepath.Join(t.TempDir(), "top.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	err = store.SaveTopProducts(context.Background(), "run-1", time.Now(), []catalog.Product{
		{SKU: "1", Name: "Mug", SellerSlug: "acme", ReviewCount: 9, Rank: 1},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	h := New(t.TempDir(), "", store, nil).Routes()
	res, body := get(t, h, "/api/top-products")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var payload struct {
		RunID    string         `json:"run_id"`
		Products []snapshot.Row `json:"products"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	if payload.RunID != "run-1" || len(payload.Products) != 1 || payload.Products[0].SellerSlug != "acme" {
		t.Fatalf("payload = %+v", payload)
	}
}
