// Package app contains the application setup for the shop service.
package app

import (
	"log/slog"
	"net/http"
	"time"

	cartservice "github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/service"
	cartstore "github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/store"
	cartrest "github.com/SauloAssisEngMec/API-shopping-cart/internal/cart/transport/rest"
	"github.com/SauloAssisEngMec/API-shopping-cart/internal/config"
	productservice "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/service"
	productstore "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/store"
	productrest "github.com/SauloAssisEngMec/API-shopping-cart/internal/product/transport/rest"
	purchaseservice "github.com/SauloAssisEngMec/API-shopping-cart/internal/purchase/service"
	purchasestore "github.com/SauloAssisEngMec/API-shopping-cart/internal/purchase/store"
	purchaserest "github.com/SauloAssisEngMec/API-shopping-cart/internal/purchase/transport/rest"
	"github.com/SauloAssisEngMec/API-shopping-cart/pkg/messaging"
	"github.com/SauloAssisEngMec/API-shopping-cart/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Dependencies struct {
	ProductService  productservice.ProductService
	CartService     cartservice.CartService
	PurchaseService purchaseservice.PurchaseService
	Logger          *slog.Logger
}

func SetupDependencies(dbPool *pgxpool.Pool, publisher messaging.Publisher, storeTimeout time.Duration, logger *slog.Logger) *Dependencies {
	productStore := productstore.NewPgStore(dbPool)
	cartStore := cartstore.NewPgStore(dbPool)
	purchaseStore := purchasestore.NewPgStore(dbPool)

	return &Dependencies{
		ProductService:  productservice.NewService(productStore),
		CartService:     cartservice.NewService(cartStore, productStore),
		PurchaseService: purchaseservice.NewService(purchaseStore, cartStore, productStore, publisher, storeTimeout),
		Logger:          logger,
	}
}

// SetupHttpHandler initializes the HTTP server and routes for the shop service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, "shop_service")
}

// wireRoutes sets up the HTTP routes for the shop service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := productrest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux)

	cartHandler := cartrest.NewHandler(deps.CartService, deps.Logger)
	cartHandler.RegisterRoutes(mux)

	purchaseHandler := purchaserest.NewHandler(deps.PurchaseService, deps.Logger)
	purchaseHandler.RegisterRoutes(mux)

	mux.Handle("/metrics", promhttp.Handler())
}

// SetupHttpServer creates and configures an HTTP server for the shop service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
