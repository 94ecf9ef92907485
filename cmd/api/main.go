package main

import (
	"context"
	"os"
	"strings"

	_ "backoffice/api/swagger" // swagger docs
	"backoffice/internal/database"
	"backoffice/internal/handler"
	"backoffice/internal/metrics"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           POS Back Office API
// @version         1.0
// @description     Back-office API for order pricing, settlement, stock and reservations.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info().Msg("no configs/.env file found")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("GIN_MODE") != "release" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	dsn := buildDSN()
	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	redisClient := redis.NewClient(&redis.Options{
		Addr: envOr("REDIS_ADDR", "localhost:6379"),
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, fx rates will be fetched on every request")
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTxManager(db)
	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	taxRepo := repository.NewTaxRuleRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	giftCardRepo := repository.NewGiftCardRepository(db)
	stockRepo := repository.NewStockRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Services
	userService := service.NewUserService(userRepo, businessRepo, txManager)
	taxService := service.NewTaxService(taxRepo, txManager)
	catalogService := service.NewCatalogService(catalogRepo, txManager)
	orderService := service.NewOrderService(orderRepo, catalogRepo, businessRepo, paymentRepo, taxService, txManager)
	stockService := service.NewStockService(stockRepo, catalogRepo, txManager, wsHub)
	paymentService := service.NewPaymentService(orderRepo, paymentRepo, giftCardRepo, catalogRepo, businessRepo, stockService, orderService, txManager)
	giftCardService := service.NewGiftCardService(giftCardRepo)
	discountService := service.NewDiscountService(discountRepo, orderRepo, catalogRepo, txManager)
	reservationService := service.NewReservationService(reservationRepo, catalogRepo, txManager)
	fxService := service.NewFxService(redisClient, staticRateSource())
	reportService := service.NewReportService(reportRepo, businessRepo, fxService)

	// Handlers
	authHandler := handler.NewAuthHandler(userService)
	taxHandler := handler.NewTaxHandler(taxService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	orderHandler := handler.NewOrderHandler(orderService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	giftCardHandler := handler.NewGiftCardHandler(giftCardService)
	discountHandler := handler.NewDiscountHandler(discountService)
	stockHandler := handler.NewStockHandler(stockService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	reportHandler := handler.NewReportHandler(reportService)

	// Set up Gin Router
	router := gin.Default()
	router.Use(metrics.GinMiddleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	root := router.Group("")
	authHandler.RegisterRoutes(root)
	taxHandler.RegisterRoutes(root)
	catalogHandler.RegisterRoutes(root)
	orderHandler.RegisterRoutes(root)
	paymentHandler.RegisterRoutes(root)
	giftCardHandler.RegisterRoutes(root)
	discountHandler.RegisterRoutes(root)
	stockHandler.RegisterRoutes(root)
	reservationHandler.RegisterRoutes(root)
	reportHandler.RegisterRoutes(root)

	port := envOr("PORT", "8080")
	log.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func buildDSN() string {
	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "5432")
	user := envOr("DB_USER", "postgres")
	password := envOr("DB_PASSWORD", "postgres")
	name := envOr("DB_NAME", "postgres")
	sslMode := envOr("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + name + "?sslmode=" + sslMode
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// staticRateSource reads pinned rates from FX_RATES, e.g.
// "EUR:USD=1.08,GBP:USD=1.27". A real deployment would swap in a provider
// client; the cache layer is identical either way.
func staticRateSource() service.RateSource {
	rates := map[string]decimal.Decimal{}
	for _, pair := range strings.Split(os.Getenv("FX_RATES"), ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			continue
		}
		rates[key] = rate
	}

	return service.RateSourceFunc(func(_ context.Context, from, to string) (decimal.Decimal, error) {
		if rate, ok := rates[from+":"+to]; ok {
			return rate, nil
		}
		if inverse, ok := rates[to+":"+from]; ok && inverse.IsPositive() {
			return decimal.NewFromInt(1).DivRound(inverse, 8), nil
		}
		return decimal.Zero, service.ErrNotFound
	})
}
