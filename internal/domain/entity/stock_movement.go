package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del libro de stock.
type MovementType string

const (
	MovementReceiving        MovementType = "RECEIVING"
	MovementWriteOff         MovementType = "WRITE_OFF"
	MovementTransfer         MovementType = "TRANSFER"
	MovementOrderReservation MovementType = "ORDER_RESERVATION"
	MovementOrderReturn      MovementType = "ORDER_RETURN"
)

// Tipos de documento origen de un movimiento.
const (
	DocumentWriteOff  = "WRITE_OFF"
	DocumentReceiving = "RECEIVING"
	DocumentTransfer  = "TRANSFER"
	DocumentAudit     = "INVENTORY_AUDIT"
	DocumentOrder     = "ORDER"
)

// StockMovement fila inmutable del libro: BalanceAfter = BalanceBefore + Quantity.
type StockMovement struct {
	ID            string
	Type          MovementType
	ShopProductID string
	ShopID        string
	Quantity      decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Actor         Actor
	DocumentType  string
	DocumentID    string
	Comment       string
	CreatedAt     time.Time
}

// IsBalanced verifica la invariante de saldo de la fila.
func (m *StockMovement) IsBalanced() bool {
	return m.BalanceBefore.Add(m.Quantity).Equal(m.BalanceAfter)
}
