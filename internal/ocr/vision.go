// Package ocr implements the OCR capability using the Google Cloud Vision API.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/service"
)

const providerName = "vision"

// Vision's synchronous file annotation reads at most five pages per request.
const maxSyncPDFPages = 5

// VisionOCR implements service.OCRProvider against the Cloud Vision API.
type VisionOCR struct {
	svc         *vision.Service
	minTextLen  int
	callTimeout time.Duration
}

// Config holds Vision client settings.
type Config struct {
	APIKey      string
	MinTextLen  int
	CallTimeout time.Duration
}

// NewVisionOCR creates a Vision-backed OCR provider.
func NewVisionOCR(ctx context.Context, cfg Config) (*VisionOCR, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: vision API key", common.ErrMissingConfig)
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = 80
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}

	svc, err := vision.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create vision service: %w", err)
	}

	return &VisionOCR{
		svc:         svc,
		minTextLen:  cfg.MinTextLen,
		callTimeout: cfg.CallTimeout,
	}, nil
}

// ExtractText runs document text detection on a single image.
func (v *VisionOCR) ExtractText(ctx context.Context, image []byte) (service.OCRResult, error) {
	ctx, cancel := context.WithTimeout(ctx, v.callTimeout)
	defer cancel()

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image: &vision.Image{
				Content: base64.StdEncoding.EncodeToString(image),
			},
			Features: []*vision.Feature{{
				Type: "DOCUMENT_TEXT_DETECTION",
			}},
		}},
	}

	resp, err := v.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return service.OCRResult{}, wrapCallError(ctx, "ExtractText", err)
	}

	if len(resp.Responses) == 0 {
		return service.OCRResult{}, common.NewProviderError(providerName, "ExtractText", common.ProviderUnavailable, fmt.Errorf("empty response"))
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return service.OCRResult{}, common.NewProviderError(providerName, "ExtractText", common.ProviderUnavailable, fmt.Errorf("%s", annotation.Error.Message))
	}

	result := v.toResult(annotation)
	if len(result.Text) < v.minTextLen {
		return result, common.NewProviderError(providerName, "ExtractText", common.ProviderLowConfidence,
			fmt.Errorf("recognized %d chars, need %d", len(result.Text), v.minTextLen))
	}

	return result, nil
}

// ProcessMultiPagePDF runs document text detection over a PDF without
// rasterizing, reading up to the provider's synchronous page limit.
func (v *VisionOCR) ProcessMultiPagePDF(ctx context.Context, pdf []byte, maxPages int) (service.OCRResult, error) {
	ctx, cancel := context.WithTimeout(ctx, v.callTimeout)
	defer cancel()

	if maxPages <= 0 || maxPages > maxSyncPDFPages {
		maxPages = maxSyncPDFPages
	}
	pages := make([]int64, 0, maxPages)
	for i := 1; i <= maxPages; i++ {
		pages = append(pages, int64(i))
	}

	req := &vision.BatchAnnotateFilesRequest{
		Requests: []*vision.AnnotateFileRequest{{
			InputConfig: &vision.InputConfig{
				Content:  base64.StdEncoding.EncodeToString(pdf),
				MimeType: "application/pdf",
			},
			Features: []*vision.Feature{{
				Type: "DOCUMENT_TEXT_DETECTION",
			}},
			Pages: pages,
		}},
	}

	resp, err := v.svc.Files.Annotate(req).Context(ctx).Do()
	if err != nil {
		return service.OCRResult{}, wrapCallError(ctx, "ProcessMultiPagePDF", err)
	}

	if len(resp.Responses) == 0 || len(resp.Responses[0].Responses) == 0 {
		return service.OCRResult{}, common.NewProviderError(providerName, "ProcessMultiPagePDF", common.ProviderUnavailable, fmt.Errorf("empty response"))
	}

	var sb strings.Builder
	var confidenceSum float64
	var pagesRead int
	for _, pageResp := range resp.Responses[0].Responses {
		if pageResp.Error != nil {
			continue
		}
		result := v.toResult(pageResp)
		if result.Text == "" {
			continue
		}
		sb.WriteString(result.Text)
		sb.WriteString("\n")
		confidenceSum += result.Confidence
		pagesRead++
	}

	text := strings.TrimSpace(sb.String())
	if len(text) < v.minTextLen {
		return service.OCRResult{Text: text}, common.NewProviderError(providerName, "ProcessMultiPagePDF", common.ProviderLowConfidence,
			fmt.Errorf("recognized %d chars across %d pages", len(text), pagesRead))
	}

	return service.OCRResult{
		Text:       text,
		Confidence: confidenceSum / float64(pagesRead),
	}, nil
}

func (v *VisionOCR) toResult(resp *vision.AnnotateImageResponse) service.OCRResult {
	if resp.FullTextAnnotation == nil {
		return service.OCRResult{}
	}

	var confidenceSum float64
	var pages int
	for _, page := range resp.FullTextAnnotation.Pages {
		confidenceSum += page.Confidence
		pages++
	}
	confidence := 0.0
	if pages > 0 {
		confidence = confidenceSum / float64(pages)
	}

	return service.OCRResult{
		Text:       strings.TrimSpace(resp.FullTextAnnotation.Text),
		Confidence: confidence,
	}
}

func wrapCallError(ctx context.Context, op string, err error) error {
	kind := common.ProviderUnavailable
	if ctx.Err() != nil {
		kind = common.ProviderTimeout
	}
	return common.NewProviderError(providerName, op, kind, err)
}
