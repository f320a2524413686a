package domain

// DefaultCurrency is applied when the model leaves currency empty.
const DefaultCurrency = "USD"

// PreviewLength is the number of OCR characters echoed back in the envelope.
const PreviewLength = 500

// LineItem is a single row of an invoice. Identity is its position.
type LineItem struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	LineTotal   *float64 `json:"line_total"`
}

// InvoiceRecord is the structured result of an extraction. Every field except
// Currency and LineItems may be absent.
type InvoiceRecord struct {
	SupplierName    *string `json:"supplier_name"`
	SupplierTaxID   *string `json:"supplier_tax_id"`
	SupplierAddress *string `json:"supplier_address"`

	InvoiceNumber *string `json:"invoice_number"`
	IssueDate     *string `json:"issue_date"`
	DueDate       *string `json:"due_date"`

	Currency    string   `json:"currency"`
	Subtotal    *float64 `json:"subtotal"`
	TaxAmount   *float64 `json:"tax_amount"`
	TaxRate     *float64 `json:"tax_rate"`
	TotalAmount *float64 `json:"total_amount"`

	LineItems []LineItem `json:"line_items"`

	Notes *string `json:"notes"`
}

// ApplyDefaults fills the fields that have a non-null default.
func (r *InvoiceRecord) ApplyDefaults() {
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if r.LineItems == nil {
		r.LineItems = []LineItem{}
	}
}

// ResultEnvelope is the uniform outcome of one extraction request.
type ResultEnvelope struct {
	Success  bool           `json:"success"`
	Data     *InvoiceRecord `json:"data"`
	Error    string         `json:"error,omitempty"`
	OCRText  string         `json:"ocr_text,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// NewSuccessEnvelope wraps a record together with a truncated OCR preview.
func NewSuccessEnvelope(record *InvoiceRecord, ocrText string) *ResultEnvelope {
	return &ResultEnvelope{Success: true, Data: record, OCRText: TruncatePreview(ocrText)}
}

// NewFailureEnvelope converts any stage error into the failure shape.
func NewFailureEnvelope(err error) *ResultEnvelope {
	return &ResultEnvelope{Success: false, Error: err.Error()}
}

// TruncatePreview keeps the first PreviewLength characters and marks truncation.
func TruncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + "..."
}
