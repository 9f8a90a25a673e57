package usecase

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

// passthroughPreprocessor returns the input unchanged.
type passthroughPreprocessor struct{}

func (passthroughPreprocessor) Preprocess(img image.Image) image.Image { return img }

// stubExtractor returns canned OCR text and counts calls.
type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) ExtractText(ctx context.Context, img image.Image) (string, error) {
	s.calls++
	return s.text, s.err
}

// stubCatalog serves a fixed catalog and counts reads.
type stubCatalog struct {
	entries []domain.CatalogEntry
	calls   int
}

func (s *stubCatalog) ListEntries(ctx context.Context) ([]domain.CatalogEntry, error) {
	s.calls++
	return s.entries, nil
}

// stubCache is a single-key cache without expiry.
type stubCache struct {
	entries []domain.CatalogEntry
	loaded  bool
}

func (s *stubCache) Get(ctx context.Context, key string) ([]domain.CatalogEntry, error) {
	if !s.loaded {
		return nil, domain.ErrCacheMiss
	}
	return s.entries, nil
}

func (s *stubCache) Set(ctx context.Context, key string, entries []domain.CatalogEntry, ttl time.Duration) error {
	s.entries = entries
	s.loaded = true
	return nil
}

func (s *stubCache) Delete(ctx context.Context, key string) error {
	s.loaded = false
	return nil
}

func testImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 10, 10))
}

func newTestService(extractor domain.TextExtractor, catalog domain.CatalogStore, pantry domain.PantryStore, cache domain.CacheRepository) *ReceiptService {
	return NewReceiptService(passthroughPreprocessor{}, extractor, catalog, pantry, cache, ReceiptServiceConfig{
		ExtractionTimeout: time.Second,
	})
}

func TestProcessReceipt(t *testing.T) {
	ctx := context.Background()
	catalogEntries := []domain.CatalogEntry{
		{Name: "Cadbury Caramel Finger", ExpiryDate: "2025-01-01"},
		{Name: "Whole Milk", ExpiryDate: "2025-01-10"},
	}

	t.Run("accepted match inserts a pantry record with catalog name and expiry", func(t *testing.T) {
		extractor := &stubExtractor{text: "*CDBY CRML FNGER 250G £1.50\nTOTAL £1.50\n"}
		pantry := &fakePantryStore{}
		svc := newTestService(extractor, &stubCatalog{entries: catalogEntries}, pantry, nil)

		result, err := svc.ProcessReceipt(ctx, testImage())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Matched) != 1 {
			t.Fatalf("Matched = %v, want 1 entry", result.Matched)
		}
		match := result.Matched[0]
		if match.MatchedName != "Cadbury Caramel Finger" || match.Score != 100 {
			t.Errorf("match = %+v, want Cadbury Caramel Finger at score 100", match)
		}
		if len(result.Unmatched) != 0 {
			t.Errorf("Unmatched = %v, want empty", result.Unmatched)
		}

		if len(pantry.items) != 1 {
			t.Fatalf("pantry has %d items, want 1", len(pantry.items))
		}
		if pantry.items[0].Name != "Cadbury Caramel Finger" || pantry.items[0].ExpiryDate != "2025-01-01" {
			t.Errorf("pantry record = %+v, want catalog name and expiry", pantry.items[0])
		}
	})

	t.Run("rejected candidates surface as unmatched and never insert", func(t *testing.T) {
		extractor := &stubExtractor{text: "GARDEN HOSE £9.99\n"}
		pantry := &fakePantryStore{}
		svc := newTestService(extractor, &stubCatalog{entries: catalogEntries}, pantry, nil)

		result, err := svc.ProcessReceipt(ctx, testImage())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Unmatched) != 1 || result.Unmatched[0] != "garden hose" {
			t.Errorf("Unmatched = %v, want [garden hose]", result.Unmatched)
		}
		if len(pantry.items) != 0 {
			t.Errorf("pantry has %d items, want 0", len(pantry.items))
		}
	})

	t.Run("duplicate lines produce independent records", func(t *testing.T) {
		extractor := &stubExtractor{text: "WHOLE MILK £1.20\nWHOLE MILK £1.20\n"}
		pantry := &fakePantryStore{}
		svc := newTestService(extractor, &stubCatalog{entries: catalogEntries}, pantry, nil)

		result, err := svc.ProcessReceipt(ctx, testImage())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Matched) != 2 || len(pantry.items) != 2 {
			t.Errorf("matched %d, inserted %d, want 2 and 2", len(result.Matched), len(pantry.items))
		}
	})

	t.Run("extraction failure retries once then wraps ErrExtraction", func(t *testing.T) {
		extractor := &stubExtractor{err: errors.New("engine crashed")}
		svc := newTestService(extractor, &stubCatalog{entries: catalogEntries}, &fakePantryStore{}, nil)

		_, err := svc.ProcessReceipt(ctx, testImage())
		if !errors.Is(err, domain.ErrExtraction) {
			t.Errorf("error = %v, want ErrExtraction", err)
		}
		if extractor.calls != 2 {
			t.Errorf("extractor called %d times, want 2", extractor.calls)
		}
	})

	t.Run("catalog is served from cache after first load", func(t *testing.T) {
		extractor := &stubExtractor{text: "WHOLE MILK £1.20\n"}
		catalog := &stubCatalog{entries: catalogEntries}
		svc := newTestService(extractor, catalog, &fakePantryStore{}, &stubCache{})

		for i := 0; i < 3; i++ {
			if _, err := svc.ProcessReceipt(ctx, testImage()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if catalog.calls != 1 {
			t.Errorf("catalog read %d times, want 1", catalog.calls)
		}
	})

	t.Run("nil image is rejected", func(t *testing.T) {
		svc := newTestService(&stubExtractor{}, &stubCatalog{}, &fakePantryStore{}, nil)
		if _, err := svc.ProcessReceipt(ctx, nil); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})
}

func TestPantryMutations(t *testing.T) {
	ctx := context.Background()

	t.Run("update validates the new expiry date", func(t *testing.T) {
		svc := newTestService(&stubExtractor{}, &stubCatalog{}, &fakePantryStore{}, nil)
		err := svc.UpdateItem(ctx, 1, "milk", "31/12/2025")
		if !errors.Is(err, domain.ErrDateParse) {
			t.Errorf("error = %v, want ErrDateParse", err)
		}
	})

	t.Run("update requires a name", func(t *testing.T) {
		svc := newTestService(&stubExtractor{}, &stubCatalog{}, &fakePantryStore{}, nil)
		if err := svc.UpdateItem(ctx, 1, "", "2025-12-31"); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("update changes exactly the targeted record", func(t *testing.T) {
		pantry := &fakePantryStore{}
		svc := newTestService(&stubExtractor{}, &stubCatalog{}, pantry, nil)
		pantry.Insert(ctx, &domain.PantryItem{Name: "milk", ExpiryDate: "2025-01-10"})
		pantry.Insert(ctx, &domain.PantryItem{Name: "butter", ExpiryDate: "2025-02-14"})

		if err := svc.UpdateItem(ctx, 1, "oat milk", "2025-03-01"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pantry.items[0].Name != "oat milk" || pantry.items[0].ExpiryDate != "2025-03-01" {
			t.Errorf("record 1 = %+v, want oat milk / 2025-03-01", pantry.items[0])
		}
		if pantry.items[1].Name != "butter" || pantry.items[1].ExpiryDate != "2025-02-14" {
			t.Errorf("record 2 = %+v, want untouched", pantry.items[1])
		}
	})

	t.Run("mutations on unknown ids signal ErrNotFound", func(t *testing.T) {
		svc := newTestService(&stubExtractor{}, &stubCatalog{}, &fakePantryStore{}, nil)
		if err := svc.UpdateItem(ctx, 99, "milk", "2025-12-31"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("update error = %v, want ErrNotFound", err)
		}
		if err := svc.DeleteItem(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete removes the record from subsequent listings", func(t *testing.T) {
		pantry := &fakePantryStore{}
		svc := newTestService(&stubExtractor{}, &stubCatalog{}, pantry, nil)
		pantry.Insert(ctx, &domain.PantryItem{Name: "milk", ExpiryDate: "2025-01-10"})
		pantry.Insert(ctx, &domain.PantryItem{Name: "butter", ExpiryDate: "2025-02-14"})

		if err := svc.DeleteItem(ctx, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		items, err := svc.ListPantry(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 || items[0].Name != "butter" {
			t.Errorf("ListPantry = %v, want only butter", items)
		}
	})
}
