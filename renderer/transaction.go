package renderer

import (
	"fmt"

	"github.com/yaman-yucel/lirashield"
)

// Transaction renders a transaction to a one line sentence.
func Transaction(tx lirashield.Transaction) string {
	var s string
	switch {
	case tx.AssetClass == lirashield.Cash && tx.Direction == lirashield.Buy:
		s = fmt.Sprintf("Deposited %s", lirashield.M(tx.Quantity.Decimal(), tx.Ticker))
	case tx.AssetClass == lirashield.Cash:
		s = fmt.Sprintf("Withdrew %s", lirashield.M(tx.Quantity.Decimal(), tx.Ticker))
	case tx.Direction == lirashield.Buy:
		s = fmt.Sprintf("Bought %s of %s", quantity(tx.Quantity), tx.Ticker)
	default:
		s = fmt.Sprintf("Sold %s of %s", quantity(tx.Quantity), tx.Ticker)
	}
	if tx.AssetClass != lirashield.Cash {
		if tx.Price.Valid {
			s += fmt.Sprintf(" at %s %s", price(tx.Price.Decimal.InexactFloat64()), tx.Currency())
		} else {
			s += " at the market price"
		}
	}
	if tx.Direction == lirashield.Buy && tx.TaxRate > 0 {
		s += fmt.Sprintf(", %v withholding tax", tx.TaxRate)
	}
	return fmt.Sprintf("#%d %s: %s", tx.ID, tx.Date, s)
}
