package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSaleRecord_Recompute(t *testing.T) {
	rec := SaleRecord{
		Quantity:   3,
		UnitPrice:  decimal.RequireFromString("19.90"),
		TotalPrice: decimal.RequireFromString("1000"),
	}
	rec.Recompute()
	assert.True(t, rec.TotalPrice.Equal(decimal.RequireFromString("59.70")), "got %s", rec.TotalPrice)
}

func TestSaleRecord_HasDate(t *testing.T) {
	assert.False(t, SaleRecord{}.HasDate())
	assert.True(t, SaleRecord{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}.HasDate())
}

func TestCollection_CloneIsIndependent(t *testing.T) {
	orig := Collection{{ID: "a", Item: "Mouse"}, {ID: "b", Item: "Teclado"}}
	clone := orig.Clone()
	clone[0].Item = "Monitor"

	assert.Equal(t, "Mouse", orig[0].Item)
	assert.Nil(t, Collection(nil).Clone())
}

func TestCollection_IndexOfAndRevenue(t *testing.T) {
	c := Collection{
		{ID: "a", TotalPrice: decimal.RequireFromString("10.50")},
		{ID: "b", TotalPrice: decimal.RequireFromString("4.50")},
	}
	assert.Equal(t, 1, c.IndexOf("b"))
	assert.Equal(t, -1, c.IndexOf("zzz"))
	assert.True(t, c.Revenue().Equal(decimal.NewFromInt(15)))
}
