// Package reconcile checks the arithmetic consistency of an extracted invoice.
// Findings are advisory: they are reported alongside a successful extraction
// and never reject it.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"invoiceai/internal/domain"
)

// DefaultTolerance is the largest absolute difference accepted between a
// reported amount and the amount recomputed from its operands.
const DefaultTolerance = 0.01

var hundred = decimal.NewFromInt(100)

// Discrepancy is one failed arithmetic relationship.
type Discrepancy struct {
	RuleKey   string
	FieldPath string
	Expected  string
	Actual    string
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", d.FieldPath, d.Expected, d.Actual)
}

type rule struct {
	key   string
	check func(r *domain.InvoiceRecord, tol decimal.Decimal) []Discrepancy
}

var rules = []rule{
	{key: "math.line_item.total", check: checkLineTotals},
	{key: "math.subtotal", check: checkSubtotal},
	{key: "math.tax_amount", check: checkTaxAmount},
	{key: "math.total_amount", check: checkTotalAmount},
}

// Check runs every arithmetic rule against rec. A rule is skipped when any
// of its operands is absent. tolerance <= 0 falls back to DefaultTolerance.
func Check(rec *domain.InvoiceRecord, tolerance float64) []Discrepancy {
	if rec == nil {
		return nil
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	tol := decimal.NewFromFloat(tolerance)

	var out []Discrepancy
	for _, r := range rules {
		for _, d := range r.check(rec, tol) {
			d.RuleKey = r.key
			out = append(out, d)
		}
	}
	return out
}

// Messages renders discrepancies for the result envelope.
func Messages(ds []Discrepancy) []string {
	if len(ds) == 0 {
		return nil
	}
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

func checkLineTotals(r *domain.InvoiceRecord, tol decimal.Decimal) []Discrepancy {
	var out []Discrepancy
	for i, item := range r.LineItems {
		if item.Quantity == nil || item.UnitPrice == nil || item.LineTotal == nil {
			continue
		}
		expected := dec(item.Quantity).Mul(dec(item.UnitPrice))
		if d, ok := compare(fmt.Sprintf("line_items[%d].line_total", i), expected, dec(item.LineTotal), tol); !ok {
			out = append(out, d)
		}
	}
	return out
}

func checkSubtotal(r *domain.InvoiceRecord, tol decimal.Decimal) []Discrepancy {
	if r.Subtotal == nil || len(r.LineItems) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, item := range r.LineItems {
		if item.LineTotal == nil {
			return nil
		}
		sum = sum.Add(dec(item.LineTotal))
	}
	if d, ok := compare("subtotal", sum, dec(r.Subtotal), tol); !ok {
		return []Discrepancy{d}
	}
	return nil
}

func checkTaxAmount(r *domain.InvoiceRecord, tol decimal.Decimal) []Discrepancy {
	if r.Subtotal == nil || r.TaxRate == nil || r.TaxAmount == nil {
		return nil
	}
	expected := dec(r.Subtotal).Mul(dec(r.TaxRate)).Div(hundred)
	if d, ok := compare("tax_amount", expected, dec(r.TaxAmount), tol); !ok {
		return []Discrepancy{d}
	}
	return nil
}

func checkTotalAmount(r *domain.InvoiceRecord, tol decimal.Decimal) []Discrepancy {
	if r.Subtotal == nil || r.TaxAmount == nil || r.TotalAmount == nil {
		return nil
	}
	expected := dec(r.Subtotal).Add(dec(r.TaxAmount))
	if d, ok := compare("total_amount", expected, dec(r.TotalAmount), tol); !ok {
		return []Discrepancy{d}
	}
	return nil
}

func compare(field string, expected, actual, tol decimal.Decimal) (Discrepancy, bool) {
	if expected.Sub(actual).Abs().LessThanOrEqual(tol) {
		return Discrepancy{}, true
	}
	return Discrepancy{
		FieldPath: field,
		Expected:  expected.StringFixed(2),
		Actual:    actual.StringFixed(2),
	}, false
}

func dec(f *float64) decimal.Decimal {
	return decimal.NewFromFloat(*f)
}
