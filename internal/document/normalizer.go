package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"log/slog"
	"strings"
	"unicode"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"

	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/service"
)

// Config holds the normalization heuristics. Zero values fall back to the
// defaults from DefaultConfig.
type Config struct {
	MaxPages       int
	MinTextChars   int
	MinTextDensity float64
	MinOCRLength   int
}

// DefaultConfig returns the default normalization settings.
func DefaultConfig() Config {
	return Config{
		MaxPages:       50,
		MinTextChars:   100,
		MinTextDensity: 0.40,
		MinOCRLength:   80,
	}
}

// Normalizer detects the document kind and produces uniform Content.
type Normalizer struct {
	ocr service.OCRProvider
	cfg Config
}

// NewNormalizer creates a normalizer backed by the given OCR capability.
func NewNormalizer(ocr service.OCRProvider, cfg Config) *Normalizer {
	def := DefaultConfig()
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = def.MinTextChars
	}
	if cfg.MinTextDensity <= 0 {
		cfg.MinTextDensity = def.MinTextDensity
	}
	if cfg.MinOCRLength <= 0 {
		cfg.MinOCRLength = def.MinOCRLength
	}
	return &Normalizer{ocr: ocr, cfg: cfg}
}

// Normalize turns raw uploaded bytes into extractable content. Strategy
// order: PDF text layer, provider-native multi-page OCR, rasterization with
// per-page OCR, single-image OCR, raw image fallback. Only total failure of
// every strategy is fatal.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte, mediaType string) (*Content, error) {
	if len(raw) == 0 {
		return nil, common.NewExtractionError("empty document", nil)
	}

	if isPDF(raw) {
		return n.normalizePDF(ctx, raw)
	}

	return n.normalizeImage(ctx, raw, mediaType)
}

func (n *Normalizer) normalizePDF(ctx context.Context, raw []byte) (*Content, error) {
	doc, err := fitz.NewFromMemory(raw)
	if err != nil {
		return nil, common.NewExtractionError("cannot open PDF", err)
	}
	defer func() { _ = doc.Close() }()

	pageCount := doc.NumPage()
	if pageCount > n.cfg.MaxPages {
		slog.Warn("PDF exceeds page limit, truncating",
			"pages", pageCount,
			"max_pages", n.cfg.MaxPages)
		pageCount = n.cfg.MaxPages
	}

	// Text-layer first: cheap and exact for digitally-generated statements.
	text := n.extractTextLayer(doc, pageCount)
	if len(text) >= n.cfg.MinTextChars && textDensity(text) >= n.cfg.MinTextDensity {
		return &Content{
			Kind:       KindText,
			Text:       text,
			PageCount:  pageCount,
			Confidence: 0.99,
		}, nil
	}

	slog.Info("No usable text layer, treating as scanned PDF",
		"extracted_chars", len(text),
		"pages", pageCount)

	// Opportunistic provider-native multi-page path before rasterizing.
	if result, ocrErr := n.ocr.ProcessMultiPagePDF(ctx, raw, n.cfg.MaxPages); ocrErr == nil {
		if len(result.Text) >= n.cfg.MinOCRLength {
			return &Content{
				Kind:       KindText,
				Text:       result.Text,
				PageCount:  pageCount,
				Confidence: result.Confidence,
				ScannedPDF: true,
			}, nil
		}
	} else if !isLowConfidence(ocrErr) {
		slog.Warn("Multi-page OCR failed, falling back to rasterization", "error", ocrErr)
	}

	pages, err := n.rasterize(doc, pageCount)
	if err != nil {
		return nil, common.NewExtractionError("cannot rasterize PDF", err)
	}

	content := n.recognizePages(ctx, pages)
	content.ScannedPDF = true
	return content, nil
}

// recognizePages runs OCR over each rasterized page. Pages with usable text
// contribute to the combined text; the rest are kept as images for vision
// interpretation, each with a warning so the fallback shows up downstream.
func (n *Normalizer) recognizePages(ctx context.Context, pages [][]byte) *Content {
	var texts []string
	var imagePages [][]byte
	var warnings []string
	var confidenceSum float64

	for i, page := range pages {
		result, err := n.ocr.ExtractText(ctx, page)
		if err == nil && len(result.Text) >= n.cfg.MinOCRLength {
			texts = append(texts, result.Text)
			confidenceSum += result.Confidence
			continue
		}

		if err != nil && !isLowConfidence(err) {
			slog.Warn("Page OCR failed, keeping page image for vision interpretation",
				"page", i+1,
				"error", err)
		}
		warnings = append(warnings, fmt.Sprintf("page %d: low-confidence text recognition, interpreting page image directly", i+1))
		imagePages = append(imagePages, page)
	}

	content := &Content{
		Text:      strings.Join(texts, "\n"),
		Pages:     imagePages,
		PageCount: len(pages),
		Warnings:  warnings,
	}
	if len(texts) > 0 {
		content.Confidence = confidenceSum / float64(len(texts))
	}

	switch {
	case len(imagePages) == 0:
		content.Kind = KindText
	case len(texts) == 0:
		content.Kind = KindImages
	default:
		content.Kind = KindMixed
	}
	return content
}

func (n *Normalizer) normalizeImage(ctx context.Context, raw []byte, mediaType string) (*Content, error) {
	pngData, err := toPNG(raw, mediaType)
	if err != nil {
		return nil, common.NewExtractionError("unsupported image format", err)
	}

	result, ocrErr := n.ocr.ExtractText(ctx, pngData)
	if ocrErr == nil && len(result.Text) >= n.cfg.MinOCRLength {
		return &Content{
			Kind:       KindText,
			Text:       result.Text,
			PageCount:  1,
			Confidence: result.Confidence,
		}, nil
	}
	if ocrErr != nil && !isLowConfidence(ocrErr) {
		slog.Warn("OCR failed, falling back to vision interpretation", "error", ocrErr)
	} else {
		slog.Info("OCR text below threshold, falling back to vision interpretation",
			"chars", len(result.Text))
	}

	return &Content{
		Kind:      KindImages,
		Pages:     [][]byte{pngData},
		PageCount: 1,
	}, nil
}

func (n *Normalizer) extractTextLayer(doc *fitz.Document, pageCount int) string {
	var sb strings.Builder
	for i := 0; i < pageCount; i++ {
		text, err := doc.Text(i)
		if err != nil {
			slog.Warn("Failed to read PDF text layer", "page", i, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func (n *Normalizer) rasterize(doc *fitz.Document, pageCount int) ([][]byte, error) {
	pages := make([][]byte, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding page %d: %w", i, err)
		}
		pages = append(pages, buf.Bytes())
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages rendered")
	}
	return pages, nil
}

// isPDF checks the byte signature for a PDF header.
func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// textDensity is the fraction of letter/digit runes in s. Scanned PDFs with
// a garbage text layer score low and get routed through OCR instead.
func textDensity(s string) float64 {
	if s == "" {
		return 0
	}
	var useful, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			useful++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(useful) / float64(total)
}

func isLowConfidence(err error) bool {
	var providerErr *common.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Kind == common.ProviderLowConfidence
	}
	return false
}

// toPNG converts any supported image format to PNG. HEIC gets its own
// decoder since Go's image package does not register one.
func toPNG(data []byte, mediaType string) ([]byte, error) {
	if mediaType == "image/png" && !isHEIC(data) {
		return data, nil
	}

	var img image.Image
	var err error

	if isHEIC(data) || strings.Contains(strings.ToLower(mediaType), "hei") {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEIC checks the ftyp box brands used by HEIC/HEIF files.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
