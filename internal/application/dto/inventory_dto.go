package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// DocumentCommandRequest cuerpo opcional de confirmar/cancelar/enviar.
type DocumentCommandRequest struct {
	Comment string `json:"comment"`
}

// WriteOffItemRequest línea de baja.
type WriteOffItemRequest struct {
	ShopProductID string          `json:"shop_product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Comment       string          `json:"comment"`
}

// CreateWriteOffRequest body para POST /api/inventory/write-offs.
type CreateWriteOffRequest struct {
	ShopID  string                `json:"shop_id" validate:"required"`
	Reason  string                `json:"reason"`
	Comment string                `json:"comment"`
	Items   []WriteOffItemRequest `json:"items" validate:"required,min=1"`
}

// Entities líneas del dominio.
func (r CreateWriteOffRequest) Entities() []entity.WriteOffItem {
	out := make([]entity.WriteOffItem, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, entity.WriteOffItem{ShopProductID: it.ShopProductID, Quantity: it.Quantity, Comment: it.Comment})
	}
	return out
}

// ReceivingItemRequest línea de recepción; sin actual_quantity se toma la esperada.
type ReceivingItemRequest struct {
	ShopProductID    string           `json:"shop_product_id"`
	ExpectedQuantity decimal.Decimal  `json:"expected_quantity"`
	ActualQuantity   *decimal.Decimal `json:"actual_quantity,omitempty"`
}

// CreateReceivingRequest body para POST /api/inventory/receivings.
type CreateReceivingRequest struct {
	ShopID   string                 `json:"shop_id" validate:"required"`
	Supplier string                 `json:"supplier"`
	Comment  string                 `json:"comment"`
	Items    []ReceivingItemRequest `json:"items" validate:"required,min=1"`
}

// Entities líneas del dominio.
func (r CreateReceivingRequest) Entities() []entity.ReceivingItem {
	out := make([]entity.ReceivingItem, 0, len(r.Items))
	for _, it := range r.Items {
		actual := it.ExpectedQuantity
		if it.ActualQuantity != nil {
			actual = *it.ActualQuantity
		}
		out = append(out, entity.ReceivingItem{ShopProductID: it.ShopProductID, ExpectedQuantity: it.ExpectedQuantity, ActualQuantity: actual})
	}
	return out
}

// QuantitiesRequest cantidades por id (producto de tienda o producto de catálogo según el documento).
type QuantitiesRequest struct {
	Comment    string                     `json:"comment"`
	Quantities map[string]decimal.Decimal `json:"quantities"`
}

// TransferItemRequest línea de traslado por producto de catálogo.
type TransferItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateTransferRequest body para POST /api/inventory/transfers.
type CreateTransferRequest struct {
	SourceShopID string                `json:"source_shop_id" validate:"required"`
	TargetShopID string                `json:"target_shop_id" validate:"required"`
	Comment      string                `json:"comment"`
	Items        []TransferItemRequest `json:"items" validate:"required,min=1"`
}

// CreateAuditRequest body para POST /api/inventory/audits. Sin productos se cuentan todos los activos.
type CreateAuditRequest struct {
	ShopID         string   `json:"shop_id" validate:"required"`
	ShopProductIDs []string `json:"shop_product_ids"`
	Comment        string   `json:"comment"`
}

// CompleteAuditRequest cierre del inventario.
type CompleteAuditRequest struct {
	Comment      string `json:"comment"`
	ApplyResults bool   `json:"apply_results"`
}

// WriteOffResponse acta de baja.
type WriteOffResponse struct {
	ID          string                `json:"id"`
	Number      string                `json:"number"`
	ShopID      string                `json:"shop_id"`
	Status      string                `json:"status"`
	Reason      string                `json:"reason,omitempty"`
	Comment     string                `json:"comment,omitempty"`
	Items       []WriteOffItemRequest `json:"items"`
	CreatedBy   ActorResponse         `json:"created_by"`
	ConfirmedBy *ActorResponse        `json:"confirmed_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	ConfirmedAt *time.Time            `json:"confirmed_at,omitempty"`
}

// WriteOffFromEntity convierte el acta del dominio.
func WriteOffFromEntity(d *entity.WriteOff) WriteOffResponse {
	items := make([]WriteOffItemRequest, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, WriteOffItemRequest{ShopProductID: it.ShopProductID, Quantity: it.Quantity, Comment: it.Comment})
	}
	return WriteOffResponse{
		ID: d.ID, Number: d.Number, ShopID: d.ShopID, Status: string(d.Status),
		Reason: d.Reason, Comment: d.Comment, Items: items,
		CreatedBy: actorResponse(d.CreatedBy), ConfirmedBy: actorPtr(d.ConfirmedBy),
		CreatedAt: d.CreatedAt.UTC(), ConfirmedAt: timePtr(d.ConfirmedAt),
	}
}

// ReceivingItemResponse línea de recepción.
type ReceivingItemResponse struct {
	ShopProductID    string          `json:"shop_product_id"`
	ExpectedQuantity decimal.Decimal `json:"expected_quantity"`
	ActualQuantity   decimal.Decimal `json:"actual_quantity"`
}

// ReceivingResponse recepción de proveedor.
type ReceivingResponse struct {
	ID          string                  `json:"id"`
	Number      string                  `json:"number"`
	ShopID      string                  `json:"shop_id"`
	Supplier    string                  `json:"supplier,omitempty"`
	Status      string                  `json:"status"`
	Comment     string                  `json:"comment,omitempty"`
	Items       []ReceivingItemResponse `json:"items"`
	CreatedBy   ActorResponse           `json:"created_by"`
	ConfirmedBy *ActorResponse          `json:"confirmed_by,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	ConfirmedAt *time.Time              `json:"confirmed_at,omitempty"`
}

// ReceivingFromEntity convierte la recepción del dominio.
func ReceivingFromEntity(d *entity.Receiving) ReceivingResponse {
	items := make([]ReceivingItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, ReceivingItemResponse(it))
	}
	return ReceivingResponse{
		ID: d.ID, Number: d.Number, ShopID: d.ShopID, Supplier: d.Supplier, Status: string(d.Status),
		Comment: d.Comment, Items: items,
		CreatedBy: actorResponse(d.CreatedBy), ConfirmedBy: actorPtr(d.ConfirmedBy),
		CreatedAt: d.CreatedAt.UTC(), ConfirmedAt: timePtr(d.ConfirmedAt),
	}
}

// TransferItemResponse línea de traslado con los productos resueltos en origen y destino.
type TransferItemResponse struct {
	ProductID           string          `json:"product_id"`
	Quantity            decimal.Decimal `json:"quantity"`
	ReceivedQuantity    decimal.Decimal `json:"received_quantity"`
	LostQuantity        decimal.Decimal `json:"lost_quantity"`
	SourceShopProductID string          `json:"source_shop_product_id,omitempty"`
	TargetShopProductID string          `json:"target_shop_product_id,omitempty"`
}

// TransferResponse traslado entre tiendas.
type TransferResponse struct {
	ID           string                 `json:"id"`
	Number       string                 `json:"number"`
	SourceShopID string                 `json:"source_shop_id"`
	TargetShopID string                 `json:"target_shop_id"`
	Status       string                 `json:"status"`
	Comment      string                 `json:"comment,omitempty"`
	Items        []TransferItemResponse `json:"items"`
	CreatedBy    ActorResponse          `json:"created_by"`
	SentBy       *ActorResponse         `json:"sent_by,omitempty"`
	ReceivedBy   *ActorResponse         `json:"received_by,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	SentAt       *time.Time             `json:"sent_at,omitempty"`
	ReceivedAt   *time.Time             `json:"received_at,omitempty"`
}

// TransferFromEntity convierte el traslado del dominio.
func TransferFromEntity(d *entity.Transfer) TransferResponse {
	items := make([]TransferItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, TransferItemResponse(it))
	}
	return TransferResponse{
		ID: d.ID, Number: d.Number, SourceShopID: d.SourceShopID, TargetShopID: d.TargetShopID,
		Status: string(d.Status), Comment: d.Comment, Items: items,
		CreatedBy: actorResponse(d.CreatedBy), SentBy: actorPtr(d.SentBy), ReceivedBy: actorPtr(d.ReceivedBy),
		CreatedAt: d.CreatedAt.UTC(), SentAt: timePtr(d.SentAt), ReceivedAt: timePtr(d.ReceivedAt),
	}
}

// AuditItemResponse línea de inventario físico.
type AuditItemResponse struct {
	ShopProductID    string          `json:"shop_product_id"`
	ExpectedQuantity decimal.Decimal `json:"expected_quantity"`
	ActualQuantity   decimal.Decimal `json:"actual_quantity"`
	Difference       decimal.Decimal `json:"difference"`
	Counted          bool            `json:"counted"`
}

// AuditResponse inventario físico.
type AuditResponse struct {
	ID             string              `json:"id"`
	Number         string              `json:"number"`
	ShopID         string              `json:"shop_id"`
	Status         string              `json:"status"`
	Comment        string              `json:"comment,omitempty"`
	Items          []AuditItemResponse `json:"items"`
	ResultsApplied bool                `json:"results_applied"`
	CreatedBy      ActorResponse       `json:"created_by"`
	CompletedBy    *ActorResponse      `json:"completed_by,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
}

// AuditFromEntity convierte el inventario del dominio.
func AuditFromEntity(d *entity.InventoryAudit) AuditResponse {
	items := make([]AuditItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, AuditItemResponse(it))
	}
	return AuditResponse{
		ID: d.ID, Number: d.Number, ShopID: d.ShopID, Status: string(d.Status), Comment: d.Comment,
		Items: items, ResultsApplied: d.ResultsApplied,
		CreatedBy: actorResponse(d.CreatedBy), CompletedBy: actorPtr(d.CompletedBy),
		CreatedAt: d.CreatedAt.UTC(), CompletedAt: timePtr(d.CompletedAt),
	}
}

// StockMovementResponse fila del libro de stock.
type StockMovementResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	ShopProductID string          `json:"shop_product_id"`
	ShopID        string          `json:"shop_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Actor         ActorResponse   `json:"actor"`
	DocumentType  string          `json:"document_type"`
	DocumentID    string          `json:"document_id"`
	Comment       string          `json:"comment,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StockMovementFromEntity convierte el movimiento del dominio.
func StockMovementFromEntity(m *entity.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID: m.ID, Type: string(m.Type), ShopProductID: m.ShopProductID, ShopID: m.ShopID,
		Quantity: m.Quantity, BalanceBefore: m.BalanceBefore, BalanceAfter: m.BalanceAfter,
		Actor: actorResponse(m.Actor), DocumentType: m.DocumentType, DocumentID: m.DocumentID,
		Comment: m.Comment, CreatedAt: m.CreatedAt.UTC(),
	}
}
