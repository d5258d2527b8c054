package lirashield

import "fmt"

// Percent is a percentage, 12.5 meaning 12.5%.
type Percent float64

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" || res == "-0.00%" {
		return "-"
	}
	return res
}

// Factor returns the growth factor of p, so that 25% gives 1.25.
func (p Percent) Factor() float64 { return 1 + float64(p)/100 }

// PercentOf returns the percentage change matching a growth factor.
func PercentOf(factor float64) Percent { return Percent((factor - 1) * 100) }

// Ptr returns a pointer to a copy of p, for optional fields.
func (p Percent) Ptr() *Percent { return &p }
