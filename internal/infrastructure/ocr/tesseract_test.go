package ocr

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

// gatedClient blocks inside Text until released and records whether
// Close ran while Text was still in flight.
type gatedClient struct {
	mu                   sync.Mutex
	entered              chan struct{}
	release              chan struct{}
	closed               chan struct{}
	textDone             bool
	closedBeforeTextDone bool
}

func newGatedClient() *gatedClient {
	return &gatedClient{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		closed:  make(chan struct{}),
	}
}

func (c *gatedClient) SetLanguage(languages ...string) error           { return nil }
func (c *gatedClient) SetPageSegMode(mode gosseract.PageSegMode) error { return nil }
func (c *gatedClient) SetImageFromBytes(data []byte) error             { return nil }

func (c *gatedClient) Text() (string, error) {
	close(c.entered)
	<-c.release
	c.mu.Lock()
	c.textDone = true
	c.mu.Unlock()
	return "receipt text", nil
}

func (c *gatedClient) Close() error {
	c.mu.Lock()
	c.closedBeforeTextDone = !c.textDone
	c.mu.Unlock()
	close(c.closed)
	return nil
}

func newGatedExtractor(client *gatedClient) *TesseractExtractor {
	extractor := NewTesseractExtractor(TesseractConfig{})
	extractor.newClient = func() tesseractClient { return client }
	return extractor
}

func TestTesseractExtractorReturnsEngineText(t *testing.T) {
	client := newGatedClient()
	close(client.release)
	extractor := newGatedExtractor(client)

	text, err := extractor.ExtractText(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	assert.Equal(t, "receipt text", text)

	select {
	case <-client.closed:
	default:
		t.Fatal("client not closed after extraction")
	}
	assert.False(t, client.closedBeforeTextDone, "client closed before Text finished")
}

func TestTesseractExtractorCancellationLeavesClientOpen(t *testing.T) {
	client := newGatedClient()
	extractor := newGatedExtractor(client)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := extractor.ExtractText(ctx, image.NewGray(image.Rect(0, 0, 4, 4)))
		errCh <- err
	}()

	// Cancel only once the engine call is in flight.
	select {
	case <-client.entered:
	case <-time.After(time.Second):
		t.Fatal("Text never started")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, domain.ErrExtraction)
	case <-time.After(time.Second):
		t.Fatal("ExtractText did not return after cancellation")
	}

	// The engine is still running; its handle must stay open until the
	// call finishes.
	select {
	case <-client.closed:
		t.Fatal("client closed while Text was still running")
	default:
	}

	close(client.release)
	select {
	case <-client.closed:
	case <-time.After(time.Second):
		t.Fatal("client never closed after Text finished")
	}
	assert.False(t, client.closedBeforeTextDone, "client closed before Text finished")
}
