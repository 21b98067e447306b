package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownYear groups partners whose join date has no readable year.
const UnknownYear = "Unknown"

// Partner is a marketplace storefront (seller).
type Partner struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	URL          string `json:"url,omitempty"`
	Awin         string `json:"awin,omitempty"`
	Active       bool   `json:"active"`
	Since        string `json:"since,omitempty"`
	ReviewCount  int    `json:"review_count"`
	ProductCount int    `json:"product_count"`
	// Logo is resolved by the site builder; it is never read from input.
	Logo string `json:"-"`
}

// Letter is the A–Z index key: the upper-cased first character of the name,
// or "#" when that character is not a letter.
func (p Partner) Letter() string {
	return IndexLetter(p.Name)
}

// Dir is the output directory component for the partner's detail page.
func (p Partner) Dir() string {
	r, _ := utf8.DecodeRuneInString(p.Slug)
	if r == utf8.RuneError {
		return "_"
	}
	return string(unicode.ToLower(r))
}

// JoinYear returns the trailing four characters of Since when they are all
// digits, otherwise UnknownYear.
func (p Partner) JoinYear() string {
	return YearSuffix(p.Since)
}

// IndexLetter returns the A–Z grouping key for a display name.
func IndexLetter(name string) string {
	name = strings.TrimSpace(name)
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return "#"
	}
	return string(unicode.ToUpper(r))
}

// YearSuffix extracts a four digit year from the end of a free-text date.
func YearSuffix(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) < 4 {
		return UnknownYear
	}
	tail := runes[len(runes)-4:]
	for _, r := range tail {
		if r < '0' || r > '9' {
			return UnknownYear
		}
	}
	return string(tail)
}

// Product is a single product snapshot row.
type Product struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	SellerSlug    string `json:"seller_slug,omitempty"`
	ReviewCount   int    `json:"review_count"`
	Available     bool   `json:"available"`
	ProductURL    string `json:"product_url,omitempty"`
	Awin          string `json:"awin,omitempty"`
	Price         string `json:"price,omitempty"`
	PriceCurrency string `json:"price_currency,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Rank          int    `json:"rank,omitempty"`
}

type partnerJSON struct {
	Slug         Text   `json:"slug"`
	Name         Text   `json:"name"`
	URL          Text   `json:"url"`
	Awin         Text   `json:"awin"`
	Active       *bool  `json:"active"`
	IsActive     *bool  `json:"is_active"`
	Since        Text   `json:"since"`
	ReviewCount  *Count `json:"review_count"`
	Reviews      *Count `json:"reviews"`
	ProductCount Count  `json:"product_count"`
}

func (j partnerJSON) partner() Partner {
	p := Partner{
		Slug:         strings.ToLower(j.Slug.String()),
		Name:         j.Name.String(),
		URL:          j.URL.String(),
		Awin:         j.Awin.String(),
		Active:       true,
		Since:        j.Since.String(),
		ProductCount: int(j.ProductCount),
	}
	switch {
	case j.Active != nil:
		p.Active = *j.Active
	case j.IsActive != nil:
		p.Active = *j.IsActive
	}
	switch {
	case j.ReviewCount != nil:
		p.ReviewCount = int(*j.ReviewCount)
	case j.Reviews != nil:
		p.ReviewCount = int(*j.Reviews)
	}
	return p
}

type productJSON struct {
	SKU           Text  `json:"sku"`
	Name          Text  `json:"name"`
	SellerSlug    Text  `json:"seller_slug"`
	PartnerSlug   Text  `json:"partner_slug"`
	ReviewCount   Count `json:"review_count"`
	Available     *bool `json:"available"`
	ProductURL    Text  `json:"product_url"`
	Awin          Text  `json:"awin"`
	Price         Text  `json:"price"`
	PriceCurrency Text  `json:"price_currency"`
	ImageURL      Text  `json:"image_url"`
	Rank          Count `json:"rank"`
}

func (j productJSON) product() Product {
	p := Product{
		SKU:           j.SKU.String(),
		Name:          j.Name.String(),
		SellerSlug:    strings.ToLower(j.SellerSlug.String()),
		ReviewCount:   int(j.ReviewCount),
		Available:     true,
		ProductURL:    j.ProductURL.String(),
		Awin:          j.Awin.String(),
		Price:         j.Price.String(),
		PriceCurrency: j.PriceCurrency.String(),
		ImageURL:      j.ImageURL.String(),
		Rank:          int(j.Rank),
	}
	if p.SellerSlug == "" {
		p.SellerSlug = strings.ToLower(j.PartnerSlug.String())
	}
	if j.Available != nil {
		p.Available = *j.Available
	}
	return p
}
