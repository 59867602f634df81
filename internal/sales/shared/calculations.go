package shared

import (
	"math"
	"strings"
)

// LineItem is an ordered entry embedded in a quotation or invoice. It is never
// independently addressable; the JSON field names are part of the stored
// document contract.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// Round2 rounds a monetary value to two decimal places. Applied uniformly to
// line totals and aggregates at write time.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NormalizeItems trims descriptions and computes each line's rounded total.
func NormalizeItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		item.Description = strings.TrimSpace(item.Description)
		item.Total = Round2(item.Quantity * item.UnitPrice)
		out[i] = item
	}
	return out
}

// ComputeTotals derives subtotal, tax and total for a list of line items at
// the given tax rate percentage. Pure; no I/O.
func ComputeTotals(items []LineItem, taxRatePercent float64) (subtotal, tax, total float64) {
	for _, item := range items {
		subtotal += item.Quantity * item.UnitPrice
	}
	subtotal = Round2(subtotal)
	tax = Round2(subtotal * (taxRatePercent / 100))
	total = Round2(subtotal + tax)
	return subtotal, tax, total
}
