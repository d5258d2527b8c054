package lirashield

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/yaman-yucel/lirashield/date"
)

func TestTransaction_Validate(t *testing.T) {
	valid := NewBuy(d("2024-01-01"), "MAC", Fund, Q(1), 10, 15)
	assert.NoError(t, valid.Validate())

	tests := map[string]func(*Transaction){
		"zero date":         func(tx *Transaction) { tx.Date = date.Date{} },
		"empty ticker":      func(tx *Transaction) { tx.Ticker = "" },
		"zero quantity":     func(tx *Transaction) { tx.Quantity = Q(0) },
		"negative quantity": func(tx *Transaction) { tx.Quantity = Q(-2) },
		"unknown direction": func(tx *Transaction) { tx.Direction = 0 },
		"unknown class":     func(tx *Transaction) { tx.AssetClass = 7 },
		"negative tax":      func(tx *Transaction) { tx.TaxRate = -1 },
		"tax above 100":     func(tx *Transaction) { tx.TaxRate = 100.5 },
		"zero price":        func(tx *Transaction) { tx.Price = decimal.NewNullDecimal(decimal.Zero) },
		"unknown cash":      func(tx *Transaction) { tx.AssetClass, tx.Ticker = Cash, "EUR" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			tx := valid
			mutate(&tx)
			assert.ErrorIs(t, tx.Validate(), ErrValidation)
		})
	}
}

func TestTransaction_Currency(t *testing.T) {
	assert.Equal(t, TRY, NewBuy(d("2024-01-01"), "MAC", Fund, Q(1), 1, 0).Currency())
	assert.Equal(t, USD, NewBuy(d("2024-01-01"), "AAPL", Stock, Q(1), 1, 0).Currency())
	assert.Equal(t, USD, NewBuy(d("2024-01-01"), "usd", Cash, Q(1), 0, 0).Currency())

	cash := NewBuy(d("2024-01-01"), "TRY", Cash, Q(100), 0, 0)
	assert.True(t, cash.HasPrice())
	assert.Equal(t, "1", cash.UnitPrice().String())
	assert.False(t, NewBuy(d("2024-01-01"), "MAC", Fund, Q(1), 0, 0).HasPrice())
}

func TestSortTransactions(t *testing.T) {
	txs := []Transaction{
		withID(NewSell(d("2024-01-02"), "MAC", Fund, Q(1), 1), 1),
		withID(NewBuy(d("2024-01-02"), "MAC", Fund, Q(1), 1, 0), 4),
		withID(NewBuy(d("2024-01-02"), "MAC", Fund, Q(1), 1, 0), 2),
		withID(NewBuy(d("2024-01-01"), "MAC", Fund, Q(1), 1, 0), 3),
	}
	SortTransactions(txs)
	var ids []int64
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []int64{3, 2, 4, 1}, ids)
}

func TestParseEnums(t *testing.T) {
	w, err := ParseWeighting(" Cost")
	assert.NoError(t, err)
	assert.Equal(t, ByCost, w)
	w, err = ParseWeighting("")
	assert.NoError(t, err)
	assert.Equal(t, ByQuantity, w)

	class, err := ParseAssetClass("tefas")
	assert.NoError(t, err)
	assert.Equal(t, Fund, class)

	_, err = ParseWeighting("value")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseAssetClass("bond")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ParseDirection("hold")
	assert.ErrorIs(t, err, ErrValidation)
}
