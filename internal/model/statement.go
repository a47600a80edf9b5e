package model

import (
	"fmt"
	"time"
)

// DocumentType identifies what kind of financial document was uploaded.
type DocumentType string

// Document type constants.
const (
	DocumentBankStatement DocumentType = "bank_statement"
	DocumentInvoice       DocumentType = "invoice"
	DocumentReceipt       DocumentType = "receipt"
)

// ValidDocumentType reports whether t is an accepted upload type.
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentBankStatement, DocumentInvoice, DocumentReceipt:
		return true
	}
	return false
}

// DocumentKind records how the normalizer ended up reading the document.
type DocumentKind string

// Document kind constants.
const (
	KindTextPDF    DocumentKind = "text_pdf"
	KindScannedPDF DocumentKind = "scanned_pdf"
	KindImage      DocumentKind = "image"
	KindOFX        DocumentKind = "ofx"
)

// ProcessingStatus tracks a statement through the pipeline.
type ProcessingStatus string

// Processing status constants.
const (
	StatusQueued     ProcessingStatus = "queued"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Statement represents one uploaded financial document undergoing processing.
type Statement struct {
	CreatedAt     time.Time
	CompletedAt   *time.Time
	PeriodStart   *time.Time
	PeriodEnd     *time.Time
	ID            string
	OwnerID       string
	SourceURL     string
	BankName      string
	AccountNumber string
	DocumentType  DocumentType
	Kind          DocumentKind
	Status        ProcessingStatus
	Flags         []ComplianceFlag
	PageCount     int
}

// TransitionTo enforces the append-only status lifecycle:
// queued -> processing -> completed|failed.
func (s *Statement) TransitionTo(next ProcessingStatus) error {
	allowed := map[ProcessingStatus][]ProcessingStatus{
		StatusQueued:     {StatusProcessing, StatusFailed},
		StatusProcessing: {StatusCompleted, StatusFailed},
	}

	for _, status := range allowed[s.Status] {
		if status == next {
			s.Status = next
			if next == StatusCompleted || next == StatusFailed {
				now := time.Now()
				s.CompletedAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("invalid statement transition %s -> %s", s.Status, next)
}
