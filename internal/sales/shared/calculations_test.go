package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	items := []LineItem{
		{Description: "Pump inspection", Quantity: 2, UnitPrice: 50},
		{Description: "Seal kit", Quantity: 1, UnitPrice: 100},
	}

	subtotal, tax, total := ComputeTotals(items, 15)
	assert.Equal(t, 200.0, subtotal)
	assert.Equal(t, 30.0, tax)
	assert.Equal(t, 230.0, total)
}

func TestComputeTotalsRoundsToCents(t *testing.T) {
	items := []LineItem{
		{Description: "Fractional", Quantity: 3, UnitPrice: 33.335},
	}

	subtotal, tax, total := ComputeTotals(items, 15)
	assert.Equal(t, 100.01, subtotal)
	assert.Equal(t, 15.0, tax)
	assert.Equal(t, 115.01, total)
}

func TestComputeTotalsZeroTaxRate(t *testing.T) {
	items := []LineItem{{Description: "Labor", Quantity: 1, UnitPrice: 500}}

	subtotal, tax, total := ComputeTotals(items, 0)
	assert.Equal(t, 500.0, subtotal)
	assert.Equal(t, 0.0, tax)
	assert.Equal(t, 500.0, total)
}

func TestNormalizeItems(t *testing.T) {
	items := NormalizeItems([]LineItem{
		{Description: "  Impeller  ", Quantity: 2, UnitPrice: 10.018},
	})

	assert.Equal(t, "Impeller", items[0].Description)
	assert.Equal(t, 20.04, items[0].Total)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.1, Round2(0.1))
	assert.Equal(t, 2.68, Round2(2.675000001))
	assert.Equal(t, 100.0, Round2(99.999))
	assert.Equal(t, -1.5, Round2(-1.499999999))
}

func TestCheckItems(t *testing.T) {
	errs := ErrorMap{}
	CheckItems(nil, errs)
	assert.Equal(t, "Please add at least one line item", errs["items"])

	errs = ErrorMap{}
	CheckItems([]LineItem{
		{Description: "ok", Quantity: 1, UnitPrice: 10},
		{Description: "  ", Quantity: 0, UnitPrice: 0},
	}, errs)
	assert.NotContains(t, errs, "item_0_description")
	assert.Equal(t, "Description is required", errs["item_1_description"])
	assert.Equal(t, "Quantity must be greater than 0", errs["item_1_quantity"])
	assert.Equal(t, "Unit price must be greater than 0", errs["item_1_unitPrice"])
}

func TestErrorMapFirstMessageWins(t *testing.T) {
	errs := ErrorMap{}
	errs.Add("date", "first")
	errs.Add("date", "second")
	assert.Equal(t, "first", errs["date"])
	assert.True(t, errs.Any())
}
