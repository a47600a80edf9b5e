package document

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adesina-io/kudiflow/internal/common"
	"github.com/adesina-io/kudiflow/internal/service"
)

type fakeOCR struct {
	result service.OCRResult
	err    error
}

func (f *fakeOCR) ExtractText(_ context.Context, _ []byte) (service.OCRResult, error) {
	return f.result, f.err
}

func (f *fakeOCR) ProcessMultiPagePDF(_ context.Context, _ []byte, _ int) (service.OCRResult, error) {
	return f.result, f.err
}

// pageOCR scripts one OCR outcome per call, in order.
type pageOCR struct {
	results []service.OCRResult
	errs    []error
	call    int
}

func (p *pageOCR) ExtractText(_ context.Context, _ []byte) (service.OCRResult, error) {
	i := p.call
	p.call++
	var res service.OCRResult
	if i < len(p.results) {
		res = p.results[i]
	}
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	return res, err
}

func (p *pageOCR) ProcessMultiPagePDF(_ context.Context, _ []byte, _ int) (service.OCRResult, error) {
	return service.OCRResult{}, common.NewProviderError("vision", "files.annotate", common.ProviderUnavailable, nil)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestNormalizeEmptyDocumentIsFatal(t *testing.T) {
	n := NewNormalizer(&fakeOCR{}, Config{})

	_, err := n.Normalize(context.Background(), nil, "application/pdf")
	require.Error(t, err)
	assert.True(t, common.IsFatalExtraction(err))
}

func TestNormalizeImageWithGoodOCR(t *testing.T) {
	text := strings.Repeat("GTB 01/05 TRANSFER TO CHIDI 50,000.00 \n", 5)
	n := NewNormalizer(&fakeOCR{result: service.OCRResult{Text: text, Confidence: 0.92}}, Config{})

	content, err := n.Normalize(context.Background(), testPNG(t), "image/png")
	require.NoError(t, err)
	assert.Equal(t, KindText, content.Kind)
	assert.Equal(t, text, content.Text)
	assert.InDelta(t, 0.92, content.Confidence, 0.0001)
	assert.Equal(t, 1, content.PageCount)
}

func TestNormalizeImageShortOCRFallsBackToImages(t *testing.T) {
	n := NewNormalizer(&fakeOCR{result: service.OCRResult{Text: "GTB", Confidence: 0.4}}, Config{})

	content, err := n.Normalize(context.Background(), testPNG(t), "image/png")
	require.NoError(t, err)
	assert.Equal(t, KindImages, content.Kind)
	require.Len(t, content.Pages, 1)
}

func TestNormalizeImageOCRErrorFallsBackToImages(t *testing.T) {
	providerErr := common.NewProviderError("vision", "images.annotate", common.ProviderUnavailable, nil)
	n := NewNormalizer(&fakeOCR{err: providerErr}, Config{})

	content, err := n.Normalize(context.Background(), testPNG(t), "image/png")
	require.NoError(t, err)
	assert.Equal(t, KindImages, content.Kind)
}

func TestNormalizeRejectsGarbageImage(t *testing.T) {
	n := NewNormalizer(&fakeOCR{}, Config{})

	_, err := n.Normalize(context.Background(), []byte("definitely not an image"), "image/jpeg")
	require.Error(t, err)
	assert.True(t, common.IsFatalExtraction(err))
}

func TestRecognizePagesAllText(t *testing.T) {
	page := strings.Repeat("GTB 01/05 TRANSFER TO CHIDI 50,000.00 ", 3)
	ocr := &pageOCR{results: []service.OCRResult{
		{Text: page, Confidence: 0.9},
		{Text: page, Confidence: 0.7},
	}}
	n := NewNormalizer(ocr, Config{})

	content := n.recognizePages(context.Background(), [][]byte{[]byte("p1"), []byte("p2")})
	assert.Equal(t, KindText, content.Kind)
	assert.Equal(t, page+"\n"+page, content.Text)
	assert.Equal(t, 2, content.PageCount)
	assert.InDelta(t, 0.8, content.Confidence, 0.0001)
	assert.Empty(t, content.Pages)
	assert.Empty(t, content.Warnings)
}

func TestRecognizePagesMixedFallback(t *testing.T) {
	// Page 1 reads cleanly; page 2 comes back low-confidence and is kept as
	// an image for vision interpretation, with a warning recorded.
	page := strings.Repeat("GTB 01/05 TRANSFER TO CHIDI 50,000.00 ", 3)
	ocr := &pageOCR{
		results: []service.OCRResult{{Text: page, Confidence: 0.9}, {}},
		errs:    []error{nil, common.NewProviderError("vision", "images.annotate", common.ProviderLowConfidence, nil)},
	}
	n := NewNormalizer(ocr, Config{})

	content := n.recognizePages(context.Background(), [][]byte{[]byte("p1"), []byte("p2")})
	assert.Equal(t, KindMixed, content.Kind)
	assert.Equal(t, page, content.Text)
	require.Len(t, content.Pages, 1)
	assert.Equal(t, []byte("p2"), content.Pages[0])
	assert.Equal(t, 2, content.PageCount)
	assert.InDelta(t, 0.9, content.Confidence, 0.0001)
	require.Len(t, content.Warnings, 1)
	assert.Contains(t, content.Warnings[0], "page 2")
}

func TestRecognizePagesAllFallBackToImages(t *testing.T) {
	providerErr := common.NewProviderError("vision", "images.annotate", common.ProviderUnavailable, nil)
	ocr := &pageOCR{errs: []error{providerErr, providerErr}}
	n := NewNormalizer(ocr, Config{})

	content := n.recognizePages(context.Background(), [][]byte{[]byte("p1"), []byte("p2")})
	assert.Equal(t, KindImages, content.Kind)
	assert.Len(t, content.Pages, 2)
	assert.Len(t, content.Warnings, 2)
}

func TestTextDensity(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"empty", "", 0},
		{"all useful", "abc123", 1.0},
		{"half useful", "ab!?", 0.5},
		{"whitespace ignored", "a b", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, textDensity(tt.text), 0.0001)
		})
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF([]byte("%PDF-1.7 ...")))
	assert.False(t, isPDF([]byte("PNG...")))
	assert.False(t, isPDF(nil))
}

func TestIsHEIC(t *testing.T) {
	heicHeader := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	heicHeader = append(heicHeader, make([]byte, 8)...)
	assert.True(t, isHEIC(heicHeader))

	assert.False(t, isHEIC([]byte("%PDF-1.7 with enough bytes here")))
	assert.False(t, isHEIC([]byte("short")))
}
