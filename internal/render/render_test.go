package render

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"nothsreports/internal/catalog"
	"nothsreports/internal/rank"
)

func TestMissingVariableRendersEmpty(t *testing.T) {
	fsys := fstest.MapFS{
		"page.html": {Data: []byte(`<p>[{{.present}}][{{.absent}}]</p><a href="{{.link}}">x</a>`)},
	}
	out, err := New(fsys).Render("page.html", Context{"present": "yes"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != `<p>[yes][]</p><a href="">x</a>` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderEscapes(t *testing.T) {
	fsys := fstest.MapFS{
		"page.html": {Data: []byte(`<h1>{{.name}}</h1>`)},
	}
	out, err := New(fsys).Render("page.html", Context{"name": "Tom & Jerry <Ltd>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<h1>Tom &amp; Jerry &lt;Ltd&gt;</h1>" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMissingTemplate(t *testing.T) {
	_, err := New(fstest.MapFS{}).Render("nope.html", nil)
	if !errors.Is(err, ErrTemplateMissing) {
		t.Fatalf("expected ErrTemplateMissing, got %v", err)
	}
}

func TestExecutionErrorIsReturned(t *testing.T) {
	fsys := fstest.MapFS{
		"page.html": {Data: []byte(`{{.seller.Name}}`)},
	}
	if _, err := New(fsys).Render("page.html", Context{"seller": 3}); err == nil {
		t.Fatal("expected an execution error")
	}
}

func TestPartialsAreShared(t *testing.T) {
	fsys := fstest.MapFS{
		"partials/title.html": {Data: []byte(`{{define "title"}}<title>{{.title}}</title>{{end}}`)},
		"a.html":              {Data: []byte(`{{template "title" .}}A`)},
		"b.html":              {Data: []byte(`{{template "title" .}}B`)},
	}
	r := New(fsys)
	for _, name := range []string{"a.html", "b.html"} {
		out, err := r.Render(name, Context{"title": "T"})
		if err != nil {
			t.Fatalf("render %s: %v", name, err)
		}
		if !strings.HasPrefix(out, "<title>T</title>") {
			t.Fatalf("%s: unexpected output %q", name, out)
		}
	}
	names, err := r.Names()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != 2 || names[0] != "a.html" || names[1] != "b.html" {
		t.Fatalf("names = %v", names)
	}
}

func TestEmbeddedTemplatesRender(t *testing.T) {
	r := New(Embedded())
	partners := []catalog.Partner{
		{Slug: "acme", Name: "Acme & Sons", Active: true, Since: "May 2019", ReviewCount: 12345, ProductCount: 80},
		{Slug: "bee", Name: "Bee Things", Active: true, Since: "", ReviewCount: 20, ProductCount: 3},
	}
	groups := rank.ByLetter(partners, func(p catalog.Partner) string { return p.Name })

	cases := []struct {
		name string
		ctx  Context
		want string
	}{
		{"index.html", Context{"title": "Home", "seller_count": 2}, "Browse 2 sellers"},
		{"sellers/seller.html", Context{"name": "Acme & Sons", "reviews": 12345, "url": "https://example.com/"}, "12,345"},
		{"sellers/index.html", Context{"letters": rank.Keys(groups), "groups": groups}, `/sellers/a/acme.html`},
		{"sellers/seller-most-reviews.html", Context{"sellers": rank.TopN(partners, func(p catalog.Partner) int { return p.ReviewCount }, func(p catalog.Partner) string { return p.Name }, 100)}, "<td>12,345</td>"},
		{"sellers/review-bands.html", Context{"buckets": rank.Assign(rank.NewBands(10000, 10), partners, func(p catalog.Partner) int { return p.ReviewCount })}, "<h2>10,000&#43; reviews</h2>"},
		{"products/product-list.html", Context{"title": "Best", "products": []catalog.Product{{Name: "Mug", ReviewCount: 1500, Price: "12.5"}}}, "£12.50"},
		{"partners/index.html", Context{"title": "Directory", "letters": rank.Keys(groups), "groups": groups}, "Acme &amp; Sons"},
	}
	for _, tc := range cases {
		out, err := r.Render(tc.name, tc.ctx)
		if err != nil {
			t.Fatalf("render %s: %v", tc.name, err)
		}
		if !strings.Contains(out, tc.want) {
			t.Errorf("%s: output missing %q", tc.name, tc.want)
		}
	}
}

func TestPrice(t *testing.T) {
	cases := map[[2]string]string{
		{"12.5", ""}:      "£12.50",
		{"£1,200", "GBP"}: "£1200.00",
		{"9.99", "usd"}:   "$9.99",
		{"4", "CHF"}:      "4.00 CHF",
		{"", "GBP"}:       "",
		{"n/a", "GBP"}:    "n/a",
	}
	for in, want := range cases {
		if got := Price(in[0], in[1]); got != want {
			t.Errorf("Price(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestCount(t *testing.T) {
	if got := Count(1234567); got != "1,234,567" {
		t.Fatalf("Count(int) = %q", got)
	}
	if got := Count("9,876"); got != "9,876" {
		t.Fatalf("Count(string) = %q", got)
	}
	if got := Count(nil); got != "0" {
		t.Fatalf("Count(nil) = %q", got)
	}
}
