package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront/internal/blobstore"
	"storefront/internal/config"
	applog "storefront/internal/logger"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies are the external resources the server is built on
type Dependencies struct {
	DB      *sql.DB
	Redis   *redis.Client
	Photos  blobstore.Store
	Gateway payment.Gateway
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", healthHandler(deps.DB))
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<h1>Welcome to ecommerce app</h1>"))
	})

	// Repositories
	userRepo := repository.NewUserRepository(deps.DB)
	categoryRepo := repository.NewCategoryRepository(deps.DB)
	productRepo := repository.NewProductRepository(deps.DB)
	orderRepo := repository.NewOrderRepository(deps.DB)

	// Services
	photos := service.NewPhotoStore(deps.Photos, cfg.Storage.MaxPhotoBytes)
	userService := service.NewUserService(userRepo, photos, cfg.JWT.Secret, cfg.JWT.Expiry())
	catalogService := service.NewCatalogService(categoryRepo, productRepo, photos, applog.Component(logger, "catalog"))
	orderService := service.NewOrderService(orderRepo, deps.Gateway, applog.Component(logger, "orders"))

	gates := transport.Gates{
		Auth:  custommiddleware.AuthMiddleware(cfg.JWT.Secret, userService, logger),
		Admin: custommiddleware.RequireAdmin(logger),
	}
	if deps.Redis != nil {
		gates.RateLimit = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window(),
			KeyPrefix:         "rl:auth",
		}, logger)
	}

	// Handlers
	authHandler := transport.NewAuthHandler(userService, cfg.Storage.MaxPhotoBytes, applog.Component(logger, "auth"))
	orderHandler := transport.NewOrderHandler(orderService, applog.Component(logger, "orders"))
	categoryHandler := transport.NewCategoryHandler(catalogService, applog.Component(logger, "catalog"))
	productHandler := transport.NewProductHandler(catalogService, cfg.Storage.MaxPhotoBytes, applog.Component(logger, "catalog"))
	paymentHandler := transport.NewPaymentHandler(orderService, applog.Component(logger, "payment"))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			authHandler.RegisterRoutes(r, gates)
			orderHandler.RegisterRoutes(r, gates)
		})
		r.Route("/category", func(r chi.Router) {
			categoryHandler.RegisterRoutes(r, gates)
		})
		r.Route("/product", func(r chi.Router) {
			productHandler.RegisterRoutes(r, gates)
			paymentHandler.RegisterRoutes(r, gates)
		})
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	return server
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":   "degraded",
					"database": "down",
				})
				return
			}
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Close releases the database, Redis and photo store. Errors are logged and the first is returned.
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	var first error
	record := func(resource string, err error) {
		if err == nil {
			return
		}
		s.logger.Error("Failed to close "+resource, zap.Error(err))
		if first == nil {
			first = err
		}
	}

	if s.deps.DB != nil {
		record("database connection", s.deps.DB.Close())
	}
	if s.deps.Redis != nil {
		record("redis client", s.deps.Redis.Close())
	}
	if closer, ok := s.deps.Photos.(io.Closer); ok {
		record("photo store", closer.Close())
	}

	s.logger.Sync()
	return first
}
