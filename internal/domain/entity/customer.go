package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer cliente con saldo de puntos bonus (nunca negativo).
type Customer struct {
	ID          string
	Name        string
	BonusPoints decimal.Decimal
	UpdatedAt   time.Time
}
