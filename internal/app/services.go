package app

import (
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-stock/internal/catalog"
	"github.com/noah-isme/backend-stock/internal/client"
	"github.com/noah-isme/backend-stock/internal/config"
	"github.com/noah-isme/backend-stock/internal/discount"
	"github.com/noah-isme/backend-stock/internal/events"
	"github.com/noah-isme/backend-stock/internal/lock"
	"github.com/noah-isme/backend-stock/internal/order"
	"github.com/noah-isme/backend-stock/internal/payterm"
)

// Services are the domain services built on top of Dependencies.
type Services struct {
	Products  *catalog.Service
	Discounts *discount.Service
	Terms     *payterm.Service
	Clients   *client.Service
	Orders    *order.Service
	Events    *events.Bus
}

// NewServices wires every domain service against the shared connections.
func NewServices(deps *Dependencies) *Services {
	cfg := deps.Config
	logger := deps.Logger

	bus := &events.Bus{
		Store:     events.PGStore{DB: deps.DB},
		Notifiers: Notifiers(cfg, logger),
	}
	products := &catalog.Service{
		Store:  catalog.PGStore{DB: deps.DB},
		Cache:  catalog.NewCache(deps.Redis, cfg.ProductCacheTTL),
		Logger: logger.With().Str("component", "catalog").Logger(),
	}
	discounts := &discount.Service{Store: discount.PGStore{DB: deps.DB}}
	terms := &payterm.Service{Store: payterm.PGStore{DB: deps.DB}}
	clients := &client.Service{Store: client.PGStore{DB: deps.DB}, Conditions: terms}

	orders := &order.Service{
		Store:      order.PGStore{DB: deps.DB},
		Products:   products,
		Discounts:  discounts,
		Clients:    clients,
		Conditions: terms,
		Events:     bus,
		Lock: lock.Locker{
			R:            deps.Redis,
			RetryBackoff: cfg.LockRetryBackoff,
			MaxWait:      cfg.OrderLockTTL,
		},
		LockTTL:         cfg.OrderLockTTL,
		UnknownDiscount: cfg.UnknownDiscount,
		Logger:          logger.With().Str("component", "order").Logger(),
	}

	return &Services{
		Products:  products,
		Discounts: discounts,
		Terms:     terms,
		Clients:   clients,
		Orders:    orders,
		Events:    bus,
	}
}

// Notifiers returns the event notifiers enabled by cfg. Events are always
// logged; a webhook is added when EVENTS_WEBHOOK_URL is set.
func Notifiers(cfg *config.Config, logger zerolog.Logger) []events.Notifier {
	out := []events.Notifier{events.LogNotifier{Logger: logger.With().Str("component", "events").Logger()}}
	if cfg.EventsWebhookURL != "" {
		out = append(out, events.NewWebhookNotifier(cfg.EventsWebhookURL, cfg.EventsWebhookSecret, cfg.EventsWebhookTimeout))
	}
	return out
}
