package llm

import (
	"fmt"
	"strings"

	"github.com/adesina-io/kudiflow/internal/service"
)

// extractionPrompt is the shared contract for statement interpretation.
// The schema mirrors one physical ledger row: ISO date, free-text
// description, at most one of debit/credit, optional balance and reference.
const extractionPrompt = `You are reading a Nigerian bank statement. Extract every transaction row.

Return ONLY a valid JSON array in this exact format:
[
  {
    "date": "YYYY-MM-DD",
    "description": "transaction narration as printed",
    "debit": 1500.00,
    "credit": null,
    "balance": 25000.00,
    "reference": "NIP/xxx"
  }
]

Rules:
- date must be ISO 8601 (YYYY-MM-DD)
- exactly one of debit/credit is a number; the other must be null
- debit and credit are positive numbers (naira), never strings
- balance and reference are optional; use null when absent
- keep rows in the order they appear on the statement
- do not invent rows; skip headers, footers and summary lines
- do not include any text before or after the JSON array
- do not use markdown code blocks`

// strictReminder is appended when the first attempt returned malformed JSON.
const strictReminder = `

REMINDER: your previous answer was not valid JSON. Respond with NOTHING but
the JSON array described above. No prose, no markdown fences, no trailing
commentary.`

func textExtractionPrompt(text string, strict bool) string {
	var sb strings.Builder
	sb.WriteString(extractionPrompt)
	if strict {
		sb.WriteString(strictReminder)
	}
	sb.WriteString("\n\nStatement text:\n")
	sb.WriteString(text)
	return sb.String()
}

func imageExtractionPrompt(pageCount int, strict bool) string {
	var sb strings.Builder
	sb.WriteString(extractionPrompt)
	if strict {
		sb.WriteString(strictReminder)
	}
	fmt.Fprintf(&sb, "\n\nThe %d attached images are consecutive pages of one statement.", pageCount)
	return sb.String()
}

func classifyPrompt(req service.ClassifyRequest) string {
	direction := "credit (money in)"
	if req.IsDebit {
		direction = "debit (money out)"
	}

	var sb strings.Builder
	sb.WriteString("Categorize this Nigerian business bank transaction.\n\n")
	fmt.Fprintf(&sb, "Description: %s\n", req.Description)
	fmt.Fprintf(&sb, "Amount: NGN %.2f (%s)\n", req.Amount, direction)
	if req.Business.Sector != "" {
		fmt.Fprintf(&sb, "Business sector: %s\n", req.Business.Sector)
	}
	if len(req.Business.RecentCorrections) > 0 {
		sb.WriteString("Recent corrections by this business owner:\n")
		for _, c := range req.Business.RecentCorrections {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}
	sb.WriteString(`
Respond with ONLY a JSON object:
{"category": "...", "confidence": 0.0}

confidence is your own calibrated estimate between 0 and 1. Prefer specific
business expense categories (e.g. "Office Supplies", "Transport & Logistics",
"Bank Charges", "Salaries", "Utilities", "Personal") over generic ones.`)
	return sb.String()
}
