package analytics

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

const recentActivityLimit = 5

// ServiceParams groups dependencies for the analytics service.
type ServiceParams struct {
	AnalyticsRepo *Repository
}

// Service aggregates the seller dashboard numbers.
type Service interface {
	Summarize(ctx context.Context, sellerID uuid.UUID, now time.Time) (*Summary, error)
}

type service struct {
	analyticsRepo *Repository
}

// NewService builds an analytics service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.AnalyticsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "analytics repo is required")
	}
	return &service{analyticsRepo: params.AnalyticsRepo}, nil
}

// Summarize computes the seller dashboard. Months are calendar months in
// UTC: this month runs from its first instant to now, last month is the
// full preceding month.
func (s *service) Summarize(ctx context.Context, sellerID uuid.UUID, now time.Time) (*Summary, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}

	thisMonthStart := startOfMonth(now.UTC())
	lastMonthStart := startOfMonth(thisMonthStart.AddDate(0, 0, -1))

	summary := &Summary{}

	type window struct {
		from *time.Time
		to   *time.Time
	}
	thisMonth := window{from: &thisMonthStart}
	lastMonth := window{from: &lastMonthStart, to: &thisMonthStart}
	allTime := window{}

	counts := []struct {
		dest  *int64
		query func(context.Context, uuid.UUID, *time.Time, *time.Time) (int64, error)
		win   window
	}{
		{&summary.ViewsThisMonth, s.analyticsRepo.CountViews, thisMonth},
		{&summary.ViewsLastMonth, s.analyticsRepo.CountViews, lastMonth},
		{&summary.ViewsTotal, s.analyticsRepo.CountViews, allTime},
		{&summary.MessagesThisMonth, s.analyticsRepo.CountMessages, thisMonth},
		{&summary.MessagesLastMonth, s.analyticsRepo.CountMessages, lastMonth},
		{&summary.MessagesTotal, s.analyticsRepo.CountMessages, allTime},
		{&summary.FavoritesThisMonth, s.analyticsRepo.CountFavorites, thisMonth},
		{&summary.FavoritesLastMonth, s.analyticsRepo.CountFavorites, lastMonth},
		{&summary.FavoritesTotal, s.analyticsRepo.CountFavorites, allTime},
		{&summary.ListingsThisMonth, s.analyticsRepo.CountListings, thisMonth},
		{&summary.ListingsLastMonth, s.analyticsRepo.CountListings, lastMonth},
		{&summary.ListingsTotal, s.analyticsRepo.CountListings, allTime},
	}
	for _, c := range counts {
		value, err := c.query(ctx, sellerID, c.win.from, c.win.to)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregating seller metrics")
		}
		*c.dest = value
	}

	var err error
	summary.EarningsThisMonth, err = s.analyticsRepo.SumListingPrices(ctx, sellerID, thisMonth.from, thisMonth.to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing earnings")
	}
	summary.EarningsLastMonth, err = s.analyticsRepo.SumListingPrices(ctx, sellerID, lastMonth.from, lastMonth.to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing earnings")
	}

	if summary.ViewsTotal > 0 {
		summary.ConversionRate = int(math.Round(float64(summary.FavoritesTotal) / float64(summary.ViewsTotal) * 100))
	}

	summary.ViewsGrowth = ComputeGrowth(summary.ViewsThisMonth, summary.ViewsLastMonth)
	summary.MessagesGrowth = ComputeGrowth(summary.MessagesThisMonth, summary.MessagesLastMonth)
	summary.FavoritesGrowth = ComputeGrowth(summary.FavoritesThisMonth, summary.FavoritesLastMonth)
	summary.ListingsGrowth = ComputeGrowth(summary.ListingsThisMonth, summary.ListingsLastMonth)

	top, found, err := s.analyticsRepo.TopListingByViews(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finding top listing")
	}
	if found {
		summary.TopListing = *top
	} else {
		summary.TopListing = TopListing{Title: "No listings"}
	}

	summary.RecentActivity, err = s.analyticsRepo.RecentViews(ctx, sellerID, recentActivityLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading recent activity")
	}

	return summary, nil
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
