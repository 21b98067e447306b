package site

import (
	"nothsreports/internal/catalog"
	"nothsreports/internal/rank"
)

// DefaultMinReviews is the review floor for the top-product leaderboard.
const DefaultMinReviews = 5

// TopProductPerPartner keeps each partner's most reviewed product with at
// least minReviews reviews, orders the winners by review count and stamps
// their rank. Products without a partner slug are ignored.
func TopProductPerPartner(products []catalog.Product, minReviews int) []catalog.Product {
	best := rank.BestPerKey(products,
		func(p catalog.Product) string { return p.SellerSlug },
		func(p catalog.Product) int { return p.ReviewCount },
		minReviews,
	)
	out := make([]catalog.Product, len(best))
	for i, r := range best {
		out[i] = r.Item
		out[i].Rank = r.Rank
	}
	return out
}
