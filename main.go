package main

import (
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/coinfolio/backend/src/config"
	"github.com/username/coinfolio/backend/src/database"
	"github.com/username/coinfolio/backend/src/handlers"
	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/pollers"
	"github.com/username/coinfolio/backend/src/services"
	"github.com/username/coinfolio/backend/src/store"
	"github.com/username/coinfolio/backend/src/utils"
)

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				logger.L.Warn("Rate limit exceeded",
					"method", r.Method,
					"path", r.URL.Path,
					"remoteAddr", r.RemoteAddr)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// buildPollers wires up a poller for every exchange whose API credentials
// are configured.
func buildPollers() map[string]pollers.Poller {
	exchangePollers := make(map[string]pollers.Poller)
	if config.Cfg.BittrexAPIKey != "" && config.Cfg.BittrexAPISecret != "" {
		exchangePollers["bittrex"] = pollers.NewBittrexPoller(config.Cfg.BittrexAPIKey, config.Cfg.BittrexAPISecret)
		logger.L.Info("Bittrex poller configured")
	}
	if config.Cfg.GeminiAPIKey != "" && config.Cfg.GeminiAPISecret != "" {
		exchangePollers["gemini"] = pollers.NewGeminiPoller(config.Cfg.GeminiAPIKey, config.Cfg.GeminiAPISecret)
		logger.L.Info("Gemini poller configured")
	}
	return exchangePollers
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Coinfolio backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	db, err := database.Open(config.Cfg.DatabasePath)
	if err != nil {
		logger.L.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(config.Cfg.ReportCacheExpiry, config.Cfg.ReportCacheCleanup)

	logger.L.Info("Initializing services and handlers...")
	portfolioStore := store.NewSQLiteStore(db)
	portfolioService := services.NewPortfolioService(portfolioStore, buildPollers(), reportCache)

	uploadHandler := handlers.NewUploadHandler(portfolioService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	positionHandler := handlers.NewPositionHandler(portfolioService)

	logger.L.Info("Configuring routes...")
	limiter := rate.NewLimiter(rate.Limit(config.Cfg.RequestsPerSecond), config.Cfg.RequestBurst)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(enableCORS)
	router.Use(rateLimitMiddleware(limiter))

	router.Route("/api", func(r chi.Router) {
		r.Post("/upload", uploadHandler.HandleUpload)
		r.Post("/poll/{source}", uploadHandler.HandlePoll)

		r.Get("/orders", portfolioHandler.HandleGetOrders)
		r.Get("/balances", portfolioHandler.HandleGetBalances)
		r.Get("/positions/open", portfolioHandler.HandleGetOpenPositions)
		r.Get("/positions/closed", portfolioHandler.HandleGetClosedPositions)
		r.Get("/offers", portfolioHandler.HandleGetOffers)

		r.Post("/positions/{id}/close", positionHandler.HandleClosePosition)
		r.Post("/positions/{id}/split", positionHandler.HandleSplitPosition)
		r.Post("/offers/accept", positionHandler.HandleAcceptOffer)
	})

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSONResponse(w, map[string]string{"message": "COINFOLIO Backend is running"}, http.StatusOK)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
