package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"invoiceai/internal/parser"
)

func TestBuildSystemPrompt_ContainsRules(t *testing.T) {
	p := parser.BuildSystemPrompt()

	for _, field := range []string{
		"supplier_name", "supplier_tax_id", "supplier_address", "invoice_number",
		"issue_date", "due_date", "currency", "subtotal", "tax_amount", "tax_rate",
		"total_amount", "line_items", "notes",
	} {
		assert.Contains(t, p, field)
	}
	assert.Contains(t, p, "line_total = quantity × unit_price")
	assert.Contains(t, p, "subtotal = sum of all line_total values")
	assert.Contains(t, p, "tax_amount = subtotal × (tax_rate / 100)")
	assert.Contains(t, p, "total_amount = subtotal + tax_amount")
	assert.Contains(t, p, "use null")
	assert.Contains(t, p, "Return ONLY a valid JSON object")
}

func TestBuildSystemPrompt_Deterministic(t *testing.T) {
	assert.Equal(t, parser.BuildSystemPrompt(), parser.BuildSystemPrompt())
}

func TestBuildUserPrompt_EmbedsTextVerbatim(t *testing.T) {
	text := "ACME Corp\nInvoice # INV-42\nTotal: $1,100.00 {not json}"
	p := parser.BuildUserPrompt(text)

	assert.Contains(t, p, "OCR TEXT:\n"+text)
	assert.Contains(t, p, `"line_items": [`)
	assert.Contains(t, p, `"supplier_tax_id": "string or null"`)

	// Text comes before the target shape.
	assert.Less(t, strings.Index(p, text), strings.Index(p, `"supplier_name"`))
}

func TestBuildUserPrompt_EmptyText(t *testing.T) {
	p := parser.BuildUserPrompt("")
	assert.Contains(t, p, "OCR TEXT:\n\n")
	assert.Equal(t, p, parser.BuildUserPrompt(""))
}
