// Package document normalizes uploaded statements into extractable content.
package document

// ContentKind says what the normalizer produced for downstream extraction.
type ContentKind string

// Content kind constants.
const (
	KindText ContentKind = "text"
	// KindImages carries PNG page images for vision interpretation.
	KindImages ContentKind = "images"
	// KindMixed carries recognized text for some pages plus page images for
	// the pages whose recognition fell below threshold.
	KindMixed ContentKind = "mixed"
)

// Content is the uniform output of normalization. Text and Pages are both
// populated for KindMixed; Warnings records pages that fell back to vision
// interpretation.
type Content struct {
	Kind       ContentKind
	Text       string
	Pages      [][]byte
	PageCount  int
	Confidence float64
	ScannedPDF bool
	Warnings   []string
}
