package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentStatus ciclo de vida común de los documentos de inventario.
// Solo la confirmación (confirm/send/receive/complete) toca stock y libro.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusConfirmed DocumentStatus = "CONFIRMED"
	DocumentStatusSent      DocumentStatus = "SENT"
	DocumentStatusReceived  DocumentStatus = "RECEIVED"
	DocumentStatusCompleted DocumentStatus = "COMPLETED"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"
)

// Prefijos de numeración legible por tipo de documento.
const (
	WriteOffNumberPrefix  = "WO"
	ReceivingNumberPrefix = "RC"
	TransferNumberPrefix  = "TR"
	AuditNumberPrefix     = "AU"
)

// WriteOffItem línea de un acta de baja.
type WriteOffItem struct {
	ShopProductID string
	Quantity      decimal.Decimal
	Comment       string
}

// WriteOff acta de baja de mercancía (merma, vencimiento, daño).
type WriteOff struct {
	ID          string
	Number      string
	ShopID      string
	Status      DocumentStatus
	Reason      string
	Comment     string
	Items       []WriteOffItem
	CreatedBy   Actor
	ConfirmedBy *Actor
	CreatedAt   time.Time
	ConfirmedAt *time.Time
	UpdatedAt   time.Time
}

// ReceivingItem línea de recepción. ActualQuantity es lo que entra a stock.
type ReceivingItem struct {
	ShopProductID    string
	ExpectedQuantity decimal.Decimal
	ActualQuantity   decimal.Decimal
}

// Receiving recepción de mercancía de proveedor.
type Receiving struct {
	ID          string
	Number      string
	ShopID      string
	Supplier    string
	Status      DocumentStatus
	Comment     string
	Items       []ReceivingItem
	CreatedBy   Actor
	ConfirmedBy *Actor
	CreatedAt   time.Time
	ConfirmedAt *time.Time
	UpdatedAt   time.Time
}

// TotalActual suma de cantidades realmente recibidas.
func (r *Receiving) TotalActual() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.ActualQuantity)
	}
	return total
}

// TransferItem línea de traslado. Los ShopProduct de origen y destino se resuelven al enviar/recibir.
type TransferItem struct {
	ProductID           string
	Quantity            decimal.Decimal
	ReceivedQuantity    decimal.Decimal
	// LostQuantity enviado y no recibido: salió del origen sin entrar al destino.
	LostQuantity        decimal.Decimal
	SourceShopProductID string
	TargetShopProductID string
}

// Transfer traslado de mercancía entre dos tiendas (draft -> sent -> received).
type Transfer struct {
	ID           string
	Number       string
	SourceShopID string
	TargetShopID string
	Status       DocumentStatus
	Comment      string
	Items        []TransferItem
	CreatedBy    Actor
	SentBy       *Actor
	ReceivedBy   *Actor
	CreatedAt    time.Time
	SentAt       *time.Time
	ReceivedAt   *time.Time
	UpdatedAt    time.Time
}

// AuditItem línea de inventario físico. Difference = ActualQuantity - ExpectedQuantity.
type AuditItem struct {
	ShopProductID    string
	ExpectedQuantity decimal.Decimal
	ActualQuantity   decimal.Decimal
	Difference       decimal.Decimal
	Counted          bool
}

// InventoryAudit inventario físico (conteo) de una tienda.
type InventoryAudit struct {
	ID             string
	Number         string
	ShopID         string
	Status         DocumentStatus
	Comment        string
	Items          []AuditItem
	ResultsApplied bool
	CreatedBy      Actor
	CompletedBy    *Actor
	CreatedAt      time.Time
	CompletedAt    *time.Time
	UpdatedAt      time.Time
}

// Discrepancies líneas con diferencia distinta de cero.
func (a *InventoryAudit) Discrepancies() []AuditItem {
	var out []AuditItem
	for _, it := range a.Items {
		if !it.Difference.IsZero() {
			out = append(out, it)
		}
	}
	return out
}
