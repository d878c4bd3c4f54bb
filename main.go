package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/controllers"
	"github.com/listing-radar/app/services"
	"github.com/listing-radar/internal/feed"
	"github.com/listing-radar/internal/geocode"
	"github.com/listing-radar/internal/matcher"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/parser"
	"github.com/listing-radar/internal/search"
	"github.com/listing-radar/routes"
)

func main() {
	loadEnv()

	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting Listing Radar Service")

	cfg, err := config.Load(viper.GetString("config_file"))
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	mongoDB := initMongoDB(cfg, logger)
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			logger.Error("Error disconnecting MongoDB", zap.Error(err))
		}
	}()

	// Core components.
	norm := normalizer.NewDefault()
	extractor := parser.NewExtractor(norm)
	engine := matcher.NewEngine(extractor, cfg.Matcher)

	// Cache tiers: Redis in front of MongoDB.
	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	redisCache, err := services.NewRedisCacheService(cfg.Cache.RedisURL, ttl, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
	}

	mongoCache, err := services.NewMongoCacheService(mongoDB, cfg.Cache.L1Size, logger)
	if err != nil {
		logger.Fatal("Failed to initialize MongoDB cache", zap.Error(err))
	}

	cacheService := services.NewHybridCacheService(redisCache, mongoCache, logger)
	defer cacheService.Close()

	if err := cacheService.WarmUpFromMongoDB(context.Background(), cfg.Cache.L1Size/2); err != nil {
		logger.Warn("Failed to warm up cache", zap.Error(err))
	}

	// Street catalog index; the service runs without it if Meilisearch is
	// down, losing only the street review and seed endpoints.
	var streetIndex *search.StreetIndex
	streetIndex, err = search.NewStreetIndex(cfg.Search.Host, cfg.Search.APIKey, cfg.Search.IndexName, logger)
	if err != nil {
		logger.Warn("Meilisearch unavailable, street catalog disabled", zap.Error(err))
		streetIndex = nil
	}

	// Services.
	parseService := services.NewParseService(norm, extractor, cacheService, logger)
	catalogService := services.NewCatalogService(extractor, logger)
	compareService := services.NewCompareService(catalogService, engine, cfg, logger)

	reader := feed.NewReportCSVReader(norm, extractor, logger)
	fileCache := geocode.LoadFileCache(cfg.Geocode.CachePath)
	var lookup geocode.DistrictLookup
	if cfg.Geocode.Enabled {
		lookup = geocode.NewNominatimClient(cfg.Geocode, norm, logger)
	}
	enricher := geocode.NewEnricher(cfg.Geocode, lookup, fileCache, norm, logger)
	unionService := services.NewUnionService(cfg, reader, enricher, norm, logger)

	reviewService, err := services.NewReviewService(cfg.Review, logger)
	if err != nil {
		logger.Fatal("Failed to open vote database", zap.Error(err))
	}
	defer reviewService.Close()

	adminService := services.NewAdminService(catalogService, cacheService, streetIndex, mongoDB, logger)

	// Controllers and routes.
	parseController := controllers.NewParseController(parseService, logger)
	compareController := controllers.NewCompareController(catalogService, compareService, logger)
	reviewController := controllers.NewReviewController(unionService, reviewService, logger)
	adminController := controllers.NewAdminController(adminService, logger)

	router := gin.New()
	routes.SetupAllRoutes(router, parseController, compareController, reviewController, adminController)

	// Preload the catalog when a feed path is configured.
	if catalogPath := viper.GetString("catalog_file"); catalogPath != "" {
		if _, err := catalogService.Load(catalogPath); err != nil {
			logger.Warn("Initial catalog load failed", zap.Error(err))
		}
	}

	port := viper.GetString("app_port")
	logger.Info("Listing Radar Service starting", zap.String("port", port))

	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// loadEnv sets the runtime knobs that live outside the domain config file.
func loadEnv() {
	viper.SetDefault("app_port", "8080")
	viper.SetDefault("app_env", "development")
	viper.SetDefault("config_file", "config.yaml")
	viper.SetDefault("catalog_file", "")

	viper.AutomaticEnv()
}

// initLogger builds the structured logger.
func initLogger() *zap.Logger {
	env := viper.GetString("app_env")
	if env == "" {
		env = os.Getenv("APP_ENV")
	}

	var zcfg zap.Config
	if env == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	logger, err := zcfg.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	return logger
}

// initMongoDB connects and pings MongoDB.
func initMongoDB(cfg *config.Config, logger *zap.Logger) *mongo.Database {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.Cache.MongoURL))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	db := client.Database("listing_radar")
	logger.Info("Connected to MongoDB", zap.String("database", "listing_radar"))
	return db
}
