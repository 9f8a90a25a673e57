package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
)

// AzureExtractor extracts text using the Azure Computer Vision OCR
// endpoint. Useful when no local tesseract install is available.
type AzureExtractor struct {
	client *computervision.BaseClient
	debug  bool
}

// NewAzureExtractor creates an Azure-backed extractor.
func NewAzureExtractor(endpoint, apiKey string, debug bool) *AzureExtractor {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)

	return &AzureExtractor{
		client: &client,
		debug:  debug,
	}
}

// ExtractText sends the image to the Azure OCR endpoint and joins the
// recognized lines top to bottom with newlines, matching the raw text
// shape the line parser expects.
func (e *AzureExtractor) ExtractText(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("%w: encoding image: %v", domain.ErrExtraction, err)
	}

	result, err := e.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(buf.Bytes())),
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	var sb strings.Builder
	if result.Regions != nil {
		for _, region := range *result.Regions {
			if region.Lines == nil {
				continue
			}
			for _, line := range *region.Lines {
				if line.Words == nil {
					continue
				}
				var words []string
				for _, word := range *line.Words {
					if word.Text != nil {
						words = append(words, *word.Text)
					}
				}
				sb.WriteString(strings.Join(words, " "))
				sb.WriteString("\n")
			}
		}
	}

	text := sb.String()
	if e.debug {
		log.Printf("[OCR] Azure extracted %d bytes of text", len(text))
	}
	return text, nil
}
