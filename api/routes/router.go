package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmarin/marketloop-backend/api/controllers"
	"github.com/nmarin/marketloop-backend/api/middleware"
	"github.com/nmarin/marketloop-backend/internal/analytics"
	"github.com/nmarin/marketloop-backend/internal/categories"
	"github.com/nmarin/marketloop-backend/internal/favorites"
	"github.com/nmarin/marketloop-backend/internal/listings"
	"github.com/nmarin/marketloop-backend/internal/media"
	"github.com/nmarin/marketloop-backend/internal/messages"
	"github.com/nmarin/marketloop-backend/internal/users"
	"github.com/nmarin/marketloop-backend/internal/views"
	"github.com/nmarin/marketloop-backend/pkg/config"
	"github.com/nmarin/marketloop-backend/pkg/logger"
	"github.com/nmarin/marketloop-backend/pkg/metrics"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Cfg         *config.Config
	Logg        *logger.Logger
	HTTPMetrics *metrics.HTTPMetrics
	Readiness   map[string]controllers.Pinger

	Categories categories.Service
	Listings   listings.Service
	Favorites  favorites.Service
	Messages   messages.Service
	Views      views.Service
	Analytics  analytics.Service
	Users      users.Service
	Media      media.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Cfg
	logg := deps.Logg

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface.
		r.Get("/categories", controllers.CategoryList(deps.Categories, logg))
		r.Get("/listings", controllers.ListingBrowse(deps.Listings, deps.Categories, logg))
		r.Get("/listings/{listingId}", controllers.ListingDetail(deps.Listings, logg))
		r.With(middleware.OptionalAuth(cfg.Auth, logg)).
			Post("/listings/{listingId}/view", controllers.ListingView(deps.Views, logg))
		r.Post("/users", controllers.UserUpsert(deps.Users, logg))

		// Everything below needs a signed-in user.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth, logg))

			r.Post("/listings", controllers.ListingCreate(deps.Listings, deps.Media, logg))
			r.Patch("/listings/{listingId}", controllers.ListingUpdate(deps.Listings, deps.Media, logg))
			r.Post("/listings/{listingId}/sold", controllers.ListingMarkSold(deps.Listings, logg))
			r.Delete("/listings/{listingId}", controllers.ListingDelete(deps.Listings, logg))
			r.Get("/seller/listings", controllers.SellerListings(deps.Listings, logg))

			r.Post("/listings/{listingId}/favorite", controllers.FavoriteAdd(deps.Favorites, logg))
			r.Delete("/listings/{listingId}/favorite", controllers.FavoriteRemove(deps.Favorites, logg))
			r.Get("/listings/{listingId}/favorite", controllers.FavoriteStatus(deps.Favorites, logg))
			r.Get("/favorites", controllers.FavoriteList(deps.Favorites, logg))

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", controllers.MessageSend(deps.Messages, logg))
				r.Get("/inbox", controllers.MessageInbox(deps.Messages, logg))
				r.Get("/conversations", controllers.MessageConversations(deps.Messages, logg))
				r.Get("/listings/{listingId}/conversation", controllers.MessageConversation(deps.Messages, logg))
				r.Post("/read", controllers.MessagesMarkRead(deps.Messages, logg))
			})

			r.Get("/analytics/summary", controllers.AnalyticsSummary(deps.Analytics, logg))

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", controllers.UserProfile(deps.Users, logg))
				r.Patch("/", controllers.UserUpdateProfile(deps.Users, deps.Media, logg))
				r.Delete("/", controllers.UserDelete(deps.Users, logg))
			})

			r.Post("/media/upload", controllers.MediaUpload(deps.Media, logg))
		})
	})

	return r
}
