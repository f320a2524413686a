package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns the JSON Schema the model output must satisfy.
// Every field is optional; when present it must have the right type.
func BuildInvoiceJSONSchema() map[string]any {
	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": nullable("string"),
			"quantity":    nullable("number"),
			"unit_price":  nullable("number"),
			"line_total":  nullable("number"),
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"supplier_name":    nullable("string"),
			"supplier_tax_id":  nullable("string"),
			"supplier_address": nullable("string"),
			"invoice_number":   nullable("string"),
			"issue_date":       nullable("string"),
			"due_date":         nullable("string"),
			"currency":         nullable("string"),
			"subtotal":         nullable("number"),
			"tax_amount":       nullable("number"),
			"tax_rate":         nullable("number"),
			"total_amount":     nullable("number"),
			"line_items": map[string]any{
				"type":  []string{"array", "null"},
				"items": lineItem,
			},
			"notes": nullable("string"),
		},
	}
}

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}}
}

var (
	invoiceSchemaOnce sync.Once
	invoiceSchema     *jsonschema.Schema
	invoiceSchemaErr  error
)

// compiledInvoiceSchema compiles the invoice schema once per process.
func compiledInvoiceSchema() (*jsonschema.Schema, error) {
	invoiceSchemaOnce.Do(func() {
		invoiceSchema, invoiceSchemaErr = CompileSchema(BuildInvoiceJSONSchema())
	})
	return invoiceSchema, invoiceSchemaErr
}

// CompileSchema compiles a schema expressed as a generic map.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("invoice.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateInvoice checks an already-decoded JSON value against the invoice schema.
func ValidateInvoice(v any) error {
	schema, err := compiledInvoiceSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
