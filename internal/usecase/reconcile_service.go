package usecase

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

// catalogCacheKey is the cache key under which the loaded catalog
// snapshot is stored between reconciliation passes.
const catalogCacheKey = "catalog"

// Preprocessor converts a raw receipt photo into a bilevel image
// suitable for text extraction.
type Preprocessor interface {
	Preprocess(img image.Image) image.Image
}

// ReceiptServiceConfig holds configuration for the receipt service
type ReceiptServiceConfig struct {
	CatalogCacheTTL    time.Duration
	MatchThreshold     float64
	ExtractionTimeout  time.Duration
	FilterKeywords     []string
	Abbreviations      map[string]string
	EnableDebugLogging bool
}

// ReceiptService runs the receipt-to-pantry reconciliation pipeline:
// preprocess -> extract text -> parse line items -> match against the
// catalog -> insert accepted matches into the pantry. It also exposes
// pantry reads and mutations to the delivery layer.
type ReceiptService struct {
	preprocessor      Preprocessor
	extractor         domain.TextExtractor
	catalog           domain.CatalogStore
	pantry            domain.PantryStore
	cache             domain.CacheRepository
	parser            *LineParser
	matcher           *MatchingService
	catalogCacheTTL   time.Duration
	extractionTimeout time.Duration
	debug             bool
}

// NewReceiptService creates a new receipt service with dependencies
func NewReceiptService(
	preprocessor Preprocessor,
	extractor domain.TextExtractor,
	catalog domain.CatalogStore,
	pantry domain.PantryStore,
	cache domain.CacheRepository,
	config ReceiptServiceConfig,
) *ReceiptService {
	cacheTTL := config.CatalogCacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	extractionTimeout := config.ExtractionTimeout
	if extractionTimeout == 0 {
		extractionTimeout = 30 * time.Second
	}

	return &ReceiptService{
		preprocessor: preprocessor,
		extractor:    extractor,
		catalog:      catalog,
		pantry:       pantry,
		cache:        cache,
		parser: NewLineParser(ParserConfig{
			FilterKeywords:     config.FilterKeywords,
			Abbreviations:      config.Abbreviations,
			EnableDebugLogging: config.EnableDebugLogging,
		}),
		matcher: NewMatchingService(MatchConfig{
			Threshold:          config.MatchThreshold,
			EnableDebugLogging: config.EnableDebugLogging,
		}),
		catalogCacheTTL:   cacheTTL,
		extractionTimeout: extractionTimeout,
		debug:             config.EnableDebugLogging,
	}
}

// ProcessReceipt runs one receipt image through the full pipeline.
// Flow: preprocess -> extract -> parse -> load catalog -> match -> insert.
// Accepted matches are inserted independently; if processing fails
// mid-receipt, already-inserted records remain (partial application).
func (s *ReceiptService) ProcessReceipt(ctx context.Context, img image.Image) (*domain.ReceiptResult, error) {
	if img == nil {
		return nil, domain.ErrInvalidRequest
	}

	prepared := s.preprocessor.Preprocess(img)

	text, err := s.extractWithRetry(ctx, prepared)
	if err != nil {
		return nil, err
	}

	candidates := s.parser.Parse(text)
	if s.debug {
		log.Printf("[RECEIPT] Extracted %d candidate item(s)", len(candidates))
	}

	entries, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	result := &domain.ReceiptResult{}
	for _, candidate := range candidates {
		match := s.matcher.FindBestMatch(candidate, entries)
		if !match.Matched {
			result.Unmatched = append(result.Unmatched, candidate)
			continue
		}

		item := &domain.PantryItem{Name: match.MatchedName, ExpiryDate: match.ExpiryDate}
		if err := s.pantry.Insert(ctx, item); err != nil {
			return result, fmt.Errorf("inserting %q: %w", match.MatchedName, err)
		}
		result.Matched = append(result.Matched, match)
	}

	return result, nil
}

// extractWithRetry calls the text extractor with a bounded timeout and
// retries once on failure.
func (s *ReceiptService) extractWithRetry(ctx context.Context, img image.Image) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		extractCtx, cancel := context.WithTimeout(ctx, s.extractionTimeout)
		text, err := s.extractor.ExtractText(extractCtx, img)
		cancel()

		if err == nil {
			return text, nil
		}
		lastErr = err
		if s.debug {
			log.Printf("[RECEIPT] Extraction attempt %d failed: %v", attempt, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", domain.ErrExtraction, lastErr)
}

// loadCatalog reads the full catalog, serving from cache when a fresh
// snapshot is available.
func (s *ReceiptService) loadCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	if s.cache != nil {
		if entries, err := s.cache.Get(ctx, catalogCacheKey); err == nil {
			return entries, nil
		}
	}

	entries, err := s.catalog.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, catalogCacheKey, entries, s.catalogCacheTTL); err != nil && s.debug {
			log.Printf("[RECEIPT] Catalog cache write failed: %v", err)
		}
	}

	return entries, nil
}

// ListPantry returns the full inventory ordered by ascending expiry date.
func (s *ReceiptService) ListPantry(ctx context.Context) ([]domain.PantryItem, error) {
	return s.pantry.ListAll(ctx)
}

// UpdateItem changes the name and expiry date of one pantry record.
// Returns ErrNotFound for an unknown id and ErrDateParse when the new
// expiry date is not a valid YYYY-MM-DD date.
func (s *ReceiptService) UpdateItem(ctx context.Context, id uint, name, expiryDate string) error {
	if name == "" {
		return domain.ErrInvalidRequest
	}
	if _, err := time.Parse(domain.DateLayout, expiryDate); err != nil {
		return fmt.Errorf("%w: %q", domain.ErrDateParse, expiryDate)
	}
	return s.pantry.Update(ctx, id, name, expiryDate)
}

// DeleteItem removes one pantry record. Returns ErrNotFound for an
// unknown id.
func (s *ReceiptService) DeleteItem(ctx context.Context, id uint) error {
	return s.pantry.Delete(ctx, id)
}
