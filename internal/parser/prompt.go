package parser

import "strings"

const systemPrompt = `You are an expert invoice analysis AI. Your task is to extract structured information from invoice text that has been obtained via OCR.

CRITICAL REQUIREMENTS:
1. You MUST perform ALL calculations yourself (subtotals, tax amounts, totals, line item totals)
2. Verify that all numbers are mathematically correct and consistent
3. If a field is not present in the invoice, use null. Never guess or invent values
4. Return ONLY a valid JSON object with no additional text, markdown or explanation
5. Support any currency and tax format (GST, VAT, Sales Tax, etc.)

FIELD DESCRIPTIONS:
- supplier_name: The name of the company/vendor issuing the invoice
- supplier_tax_id: Tax identification number of the supplier (ABN, VAT, GST, EIN, etc.)
- supplier_address: Full address of the supplier
- invoice_number: Unique invoice identifier
- issue_date: Date when the invoice was issued (YYYY-MM-DD if it can be determined, otherwise as written)
- due_date: Payment due date (YYYY-MM-DD if it can be determined, otherwise as written)
- currency: ISO 4217 currency code (USD, EUR, AUD, GBP, etc.)
- subtotal: Total before tax (YOU must calculate this)
- tax_amount: Total tax amount (YOU must calculate this)
- tax_rate: Tax percentage rate, e.g. 10 for 10%
- total_amount: Final amount due (YOU must calculate this)
- line_items: Array of items, in the order they appear, each with:
  - description: Item name/description
  - quantity: Number of units (null if not stated)
  - unit_price: Price per unit
  - line_total: Total for this line (YOU must calculate this)
- notes: Any additional terms, conditions or notes

CALCULATION RULES:
- line_total = quantity × unit_price
- subtotal = sum of all line_total values
- tax_amount = subtotal × (tax_rate / 100)
- total_amount = subtotal + tax_amount

Ensure all calculations are accurate and the numbers reconcile.`

const targetShape = `{
  "supplier_name": "string or null",
  "supplier_tax_id": "string or null",
  "supplier_address": "string or null",
  "invoice_number": "string or null",
  "issue_date": "string or null",
  "due_date": "string or null",
  "currency": "string",
  "subtotal": number or null,
  "tax_amount": number or null,
  "tax_rate": number or null,
  "total_amount": number or null,
  "line_items": [
    {
      "description": "string or null",
      "quantity": number or null,
      "unit_price": number or null,
      "line_total": number or null
    }
  ],
  "notes": "string or null"
}`

// BuildSystemPrompt returns the fixed instruction block: field schema,
// self-calculation rules, the null-instead-of-guessing rule and JSON-only output.
func BuildSystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt embeds the recognized text followed by the exact JSON
// shape the model must return.
func BuildUserPrompt(ocrText string) string {
	var b strings.Builder
	b.WriteString("Extract all invoice information from the following OCR text and return it as a JSON object.\n\n")
	b.WriteString("OCR TEXT:\n")
	b.WriteString(ocrText)
	b.WriteString("\n\nReturn ONLY the JSON object with this exact structure (use null for missing fields):\n")
	b.WriteString(targetShape)
	b.WriteString("\n\nRemember: perform ALL calculations yourself and ensure mathematical consistency.")
	return b.String()
}
