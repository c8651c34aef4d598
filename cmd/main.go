package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"stockplan/internal/caching"
	"stockplan/internal/handlers"
	"stockplan/internal/jobs"
	"stockplan/internal/jobs/background"
	"stockplan/internal/middleware"
	"stockplan/internal/repositories"
	"stockplan/internal/services"
	"stockplan/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	objectStore, err := services.NewMinioStore(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	// Create repositories
	materialRepo := repositories.NewMaterialRepo(pool)
	lotRepo := repositories.NewLotRepo(pool)
	locationRepo := repositories.NewLocationRepo(pool)
	valuationRepo := repositories.NewValuationRepo(pool)
	demandRepo := repositories.NewDemandRepo(pool)
	requirementRepo := repositories.NewRequirementRepo(pool)
	runRepo := repositories.NewMRPRunRepo(pool)
	vendorRepo := repositories.NewVendorRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	valuationSvc := services.NewValuationService(valuationRepo, materialRepo, lotRepo, cacheSvc)
	catalogSvc := services.NewCatalogService(materialRepo, locationRepo)
	lotSvc := services.NewLotService(pool, lotRepo, materialRepo, valuationSvc)
	locationSvc := services.NewLocationService(locationRepo, lotRepo)
	demandSvc := services.NewDemandService(demandRepo, materialRepo)
	vendorSvc := services.NewVendorService(vendorRepo)
	mrpSvc := services.NewMRPService(pool, demandRepo, requirementRepo, runRepo, materialRepo, lotRepo, cacheSvc)
	reportSvc := services.NewReportService(runRepo, requirementRepo, objectStore)

	// Create handlers
	materialHandlers := handlers.NewMaterialHandlers(catalogSvc, valuationSvc)
	lotHandlers := handlers.NewLotHandlers(lotSvc)
	locationHandlers := handlers.NewLocationHandlers(locationSvc)
	demandHandlers := handlers.NewDemandHandlers(demandSvc)
	vendorHandlers := handlers.NewVendorHandlers(vendorSvc)
	mrpHandlers := handlers.NewMRPHandlers(mrpSvc, reportSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background jobs
	expirySvc := jobs.NewExpirySweepService(lotRepo)
	reorderSvc := jobs.NewReorderAlertService(materialRepo)
	scheduler := background.NewJobScheduler(expirySvc, reorderSvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no tenant required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/detailed", healthHandlers.DetailedHealth)

	// API routes: everything under /v1 is tenant-scoped
	v1 := e.Group("/v1")
	v1.Use(middleware.TenantMiddleware())

	// Material catalog and valuation routes
	v1.GET("/materials", materialHandlers.ListMaterials)
	v1.POST("/materials", materialHandlers.UpsertMaterial)
	v1.GET("/materials/:id", materialHandlers.GetMaterial)
	v1.DELETE("/materials/:id", materialHandlers.DeleteMaterial)
	v1.POST("/materials/:id/valuations", materialHandlers.RecordValuation)
	v1.GET("/materials/:id/valuations", materialHandlers.GetCurrentValuation)

	// Storage hierarchy routes
	v1.GET("/locations", locationHandlers.ListLocations)
	v1.POST("/locations", locationHandlers.CreateLocation)
	v1.GET("/locations/:id", locationHandlers.GetLocation)
	v1.DELETE("/locations/:id", locationHandlers.DeleteLocation)
	v1.GET("/locations/:id/utilization", locationHandlers.GetUtilization)

	// Lot ledger routes
	v1.GET("/lots", lotHandlers.ListLots)
	v1.POST("/lots", lotHandlers.ReceiveLot)
	v1.GET("/lots/:id", lotHandlers.GetLot)
	v1.POST("/lots/:id/reserve", lotHandlers.Reserve)
	v1.POST("/lots/:id/consume", lotHandlers.Consume)
	v1.POST("/lots/:id/quarantine", lotHandlers.Quarantine)
	v1.POST("/lots/:id/release", lotHandlers.Release)
	v1.POST("/lots/:id/reject", lotHandlers.Reject)
	v1.POST("/lots/:id/recall", lotHandlers.Recall)
	v1.POST("/lots/allocate", lotHandlers.Allocate)

	// Demand book routes
	v1.GET("/demands", demandHandlers.ListDemands)
	v1.POST("/demands", demandHandlers.CreateDemand)
	v1.GET("/demands/:id", demandHandlers.GetDemand)
	v1.DELETE("/demands/:id", demandHandlers.DeleteDemand)

	// Vendor routes
	v1.GET("/vendors", vendorHandlers.ListVendors)
	v1.POST("/vendors", vendorHandlers.CreateVendor)
	v1.GET("/vendors/:id", vendorHandlers.GetVendor)
	v1.PUT("/vendors/:id", vendorHandlers.UpdateVendor)
	v1.DELETE("/vendors/:id", vendorHandlers.DeleteVendor)

	// Planning routes
	v1.POST("/mrp/runs", mrpHandlers.RunPlanning)
	v1.GET("/mrp/runs", mrpHandlers.ListRuns)
	v1.GET("/mrp/runs/:id", mrpHandlers.GetRun)
	v1.GET("/mrp/runs/:id/report", mrpHandlers.ExportRunReport)
	v1.GET("/mrp/requirements", mrpHandlers.ListRequirements)
	v1.POST("/mrp/requirements/:id/convert", mrpHandlers.ConvertRequirement)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Stockplan server v%s starting on port %d", version, port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
