// Package ocr provides text extraction engines behind the
// domain.TextExtractor interface. The engine itself is a black box:
// bilevel image in, raw multi-line text out.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log"

	"github.com/otiai10/gosseract/v2"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

// defaultPageSegMode assumes a single column of vertically stacked
// text of variable sizes, which is how receipts read.
const defaultPageSegMode = 4

// TesseractConfig holds configuration for the tesseract extractor
type TesseractConfig struct {
	Language    string
	PageSegMode int
	Debug       bool
}

// tesseractClient is the slice of gosseract.Client the extractor uses,
// injectable for lifetime tests.
type tesseractClient interface {
	SetLanguage(languages ...string) error
	SetPageSegMode(mode gosseract.PageSegMode) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	Close() error
}

// TesseractExtractor extracts text using a local tesseract engine.
type TesseractExtractor struct {
	language    string
	pageSegMode gosseract.PageSegMode
	debug       bool
	newClient   func() tesseractClient
}

// NewTesseractExtractor creates a tesseract-backed extractor.
func NewTesseractExtractor(config TesseractConfig) *TesseractExtractor {
	language := config.Language
	if language == "" {
		language = "eng"
	}

	psm := config.PageSegMode
	if psm <= 0 {
		psm = defaultPageSegMode
	}

	return &TesseractExtractor{
		language:    language,
		pageSegMode: gosseract.PageSegMode(psm),
		debug:       config.Debug,
		newClient:   func() tesseractClient { return gosseract.NewClient() },
	}
}

// ExtractText runs OCR against the image and returns the raw
// multi-line text. A fresh client is used per call; gosseract clients
// are not safe for concurrent reuse.
func (e *TesseractExtractor) ExtractText(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("%w: encoding image: %v", domain.ErrExtraction, err)
	}

	client := e.newClient()

	if err := client.SetLanguage(e.language); err != nil {
		client.Close()
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	if err := client.SetPageSegMode(e.pageSegMode); err != nil {
		client.Close()
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		client.Close()
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	type textResult struct {
		text string
		err  error
	}
	done := make(chan textResult, 1)

	// The goroutine owns the client from here: closing the cgo handle
	// while Text() is still running would free it under the C API, so
	// a timed-out call leaves cleanup to the goroutine.
	go func() {
		text, err := client.Text()
		client.Close()
		done <- textResult{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrExtraction, res.err)
		}
		if e.debug {
			log.Printf("[OCR] Tesseract extracted %d bytes of text", len(res.text))
		}
		return res.text, nil
	}
}
