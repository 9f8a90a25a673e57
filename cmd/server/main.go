package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/adck872/ReceiptScanningAI/config"
	httpDelivery "github.com/adck872/ReceiptScanningAI/internal/delivery/http"
	"github.com/adck872/ReceiptScanningAI/internal/domain"
	"github.com/adck872/ReceiptScanningAI/internal/infrastructure/cache"
	"github.com/adck872/ReceiptScanningAI/internal/infrastructure/imageprep"
	"github.com/adck872/ReceiptScanningAI/internal/infrastructure/ocr"
	pgstore "github.com/adck872/ReceiptScanningAI/internal/infrastructure/postgres"
	"github.com/adck872/ReceiptScanningAI/internal/usecase"
)

func main() {
	// .env is optional; real deployments set environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ReceiptScan v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("OCR engine: %s", cfg.OCR.Engine)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&domain.CatalogEntry{}, &domain.PantryItem{}); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	catalogStore := pgstore.NewCatalogStore(db)
	pantryStore := pgstore.NewPantryStore(db)
	catalogCache := cache.NewMemoryCache()

	debug := cfg.Matching.EnableDebugLogging || cfg.Server.Environment == "development"

	var extractor domain.TextExtractor
	switch cfg.OCR.Engine {
	case "azure":
		extractor = ocr.NewAzureExtractor(cfg.OCR.AzureEndpoint, cfg.OCR.AzureAPIKey, debug)
	default:
		extractor = ocr.NewTesseractExtractor(ocr.TesseractConfig{
			Language:    cfg.OCR.Language,
			PageSegMode: cfg.OCR.PageSegMode,
			Debug:       debug,
		})
	}

	preprocessor := imageprep.NewPreprocessor(imageprep.Config{})

	receiptService := usecase.NewReceiptService(
		preprocessor,
		extractor,
		catalogStore,
		pantryStore,
		catalogCache,
		usecase.ReceiptServiceConfig{
			CatalogCacheTTL:    cfg.Cache.CatalogTTL,
			MatchThreshold:     cfg.Matching.Threshold,
			ExtractionTimeout:  cfg.OCR.Timeout,
			EnableDebugLogging: debug,
		},
	)
	expiryService := usecase.NewExpiryService(pantryStore, nil)

	log.Printf("Matching: threshold=%.0f, notify window=%dd, debug=%v",
		cfg.Matching.Threshold, cfg.Notify.Days, debug)

	handler := httpDelivery.NewHandler(receiptService, expiryService, preprocessor, cfg.Notify.Days)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
