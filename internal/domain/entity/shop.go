package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShopStatus estado operativo de una tienda.
type ShopStatus string

const (
	ShopStatusOpened  ShopStatus = "OPENED"
	ShopStatusClosed  ShopStatus = "CLOSED"
	ShopStatusBlocked ShopStatus = "BLOCKED"
)

// Shop tienda del marketplace. CurrentShiftID vacío = sin turno activo.
type Shop struct {
	ID             string
	SellerID       string
	ShopAccountID  string
	Name           string
	Status         ShopStatus
	CurrentShiftID string
	MinOrderSum    decimal.Decimal
	DeliveryPrice  decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
