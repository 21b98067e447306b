// Package feefo pages through the Feefo product ratings API and exports the
// result as a spreadsheet.
package feefo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const ratingsPath = "/api/20/products/ratings"

// Period is the since_period window accepted by the ratings API.
type Period string

const (
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
	All   Period = "all"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Week, Month, Year, All:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q (want week, month, year or all)", s)
}

// StatusError is returned when a page request does not answer 200. Rows
// fetched before it are still returned.
type StatusError struct {
	Page   int
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feefo page %d: status %d: %s", e.Page, e.Status, e.Body)
}

// Client talks to the Feefo product ratings API for one merchant.
type Client struct {
	BaseURL  string
	Token    string
	Merchant string
	PageSize int
	HTTP     *http.Client
	Log      *zap.Logger
}

// NewClient returns a Client with a 60 second HTTP timeout.
func NewClient(baseURL, token, merchant string, pageSize int, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Token:    token,
		Merchant: merchant,
		PageSize: pageSize,
		HTTP:     &http.Client{Timeout: 60 * time.Second},
		Log:      log,
	}
}

type ratingsPage struct {
	Products []json.RawMessage `json:"products"`
}

// Ratings requests pages 1, 2, ... until one comes back empty. On a non-200
// answer it stops and returns what it has together with a *StatusError.
func (c *Client) Ratings(ctx context.Context, period Period) (*Table, error) {
	table := &Table{}
	for page := 1; ; page++ {
		products, err := c.page(ctx, period, page)
		if err != nil {
			c.Log.Error("feefo request failed", zap.Int("page", page), zap.Error(err))
			return table, err
		}
		if len(products) == 0 {
			break
		}
		for _, raw := range products {
			if err := table.add(raw); err != nil {
				c.Log.Warn("skipping malformed product", zap.Int("page", page), zap.Error(err))
			}
		}
		c.Log.Debug("feefo page fetched", zap.Int("page", page), zap.Int("products", len(products)))
	}
	c.Log.Info("feefo ratings fetched", zap.String("period", string(period)), zap.Int("rows", len(table.Rows)))
	return table, nil
}

func (c *Client) page(ctx context.Context, period Period, page int) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("review_count", "true")
	q.Set("since_period", string(period))
	q.Set("page_size", strconv.Itoa(c.PageSize))
	q.Set("merchant_identifier", c.Merchant)
	q.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+ratingsPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Token "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Page: page, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var out ratingsPage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	return out.Products, nil
}
