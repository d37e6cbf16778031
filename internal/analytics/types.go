package analytics

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Growth is a month-over-month change. A seller whose metric appeared this
// month with no prior history is "new" rather than infinite growth; that
// case serializes as JSON null.
type Growth struct {
	Value int
	IsNew bool
}

// ComputeGrowth derives the change percentage. Both months zero is zero
// growth; a zero last month with activity this month is the new sentinel;
// otherwise the rounded percent change.
func ComputeGrowth(thisMonth, lastMonth int64) Growth {
	if lastMonth == 0 {
		if thisMonth == 0 {
			return Growth{Value: 0}
		}
		return Growth{IsNew: true}
	}
	pct := math.Round(float64(thisMonth-lastMonth) / float64(lastMonth) * 100)
	return Growth{Value: int(pct)}
}

// MarshalJSON renders the sentinel as null and everything else as an int.
func (g Growth) MarshalJSON() ([]byte, error) {
	if g.IsNew {
		return []byte("null"), nil
	}
	return json.Marshal(g.Value)
}

// UnmarshalJSON accepts null as the sentinel.
func (g *Growth) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = Growth{IsNew: true}
		return nil
	}
	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*g = Growth{Value: value}
	return nil
}

// TopListing is the seller's most viewed listing reduced to card shape.
type TopListing struct {
	Title     string  `json:"title"`
	Views     int64   `json:"views"`
	Messages  int64   `json:"messages"`
	Favorites int64   `json:"favorites"`
	ImageURL  *string `json:"image_url"`
}

// ActivityItem is one row of the recent-activity feed.
type ActivityItem struct {
	Action       string    `json:"action"`
	ListingTitle string    `json:"listing_title"`
	Timestamp    time.Time `json:"timestamp"`
}

// Summary is the seller dashboard payload.
type Summary struct {
	ViewsThisMonth     int64 `json:"views_this_month"`
	ViewsLastMonth     int64 `json:"views_last_month"`
	ViewsTotal         int64 `json:"views_total"`
	MessagesThisMonth  int64 `json:"messages_this_month"`
	MessagesLastMonth  int64 `json:"messages_last_month"`
	MessagesTotal      int64 `json:"messages_total"`
	FavoritesThisMonth int64 `json:"favorites_this_month"`
	FavoritesLastMonth int64 `json:"favorites_last_month"`
	FavoritesTotal     int64 `json:"favorites_total"`
	ListingsThisMonth  int64 `json:"listings_this_month"`
	ListingsLastMonth  int64 `json:"listings_last_month"`
	ListingsTotal      int64 `json:"listings_total"`

	EarningsThisMonth decimal.Decimal `json:"earnings_this_month"`
	EarningsLastMonth decimal.Decimal `json:"earnings_last_month"`

	// favorites over views, rounded percent, zero when nobody has looked
	ConversionRate int `json:"conversion_rate"`

	ViewsGrowth     Growth `json:"views_growth"`
	MessagesGrowth  Growth `json:"messages_growth"`
	FavoritesGrowth Growth `json:"favorites_growth"`
	ListingsGrowth  Growth `json:"listings_growth"`

	TopListing     TopListing     `json:"top_listing"`
	RecentActivity []ActivityItem `json:"recent_activity"`
}
