package scylla

import (
	"github.com/shopspring/decimal"
	"gopkg.in/inf.v0"
)

// gocql lit et écrit le type CQL decimal via *inf.Dec.

func toDec(d decimal.Decimal) *inf.Dec {
	return inf.NewDecBig(d.Coefficient(), inf.Scale(-d.Exponent()))
}

func fromDec(d *inf.Dec) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(d.UnscaledBig(), -int32(d.Scale()))
}

func toDecPtr(d *decimal.Decimal) *inf.Dec {
	if d == nil {
		return nil
	}
	return toDec(*d)
}

func fromDecPtr(d *inf.Dec) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := fromDec(d)
	return &v
}
