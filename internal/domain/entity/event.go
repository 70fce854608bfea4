package entity

import "time"

// Tipos de evento emitidos tras el commit (consumidos fuera del núcleo).
const (
	EventShiftOpened        = "shift.opened"
	EventShiftPaused        = "shift.paused"
	EventShiftResumed       = "shift.resumed"
	EventShiftClosingStart  = "shift.closing_started"
	EventShiftClosed        = "shift.closed"
	EventShiftForceClosed   = "shift.force_closed"
	EventWriteOffConfirmed  = "inventory.write_off.confirmed"
	EventReceivingConfirmed = "inventory.receiving.confirmed"
	EventTransferSent       = "inventory.transfer.sent"
	EventTransferReceived   = "inventory.transfer.received"
	EventTransferLoss       = "inventory.transfer.loss"
	EventAuditCompleted     = "inventory.audit.completed"
	EventOrderCreated       = "order.created"
	EventOrderAccepted      = "order.accepted"
	EventOrderAssembled     = "order.assembled"
	EventOrderInDelivery    = "order.in_delivery"
	EventOrderDelivered     = "order.delivered"
	EventOrderCancelled     = "order.cancelled"
	EventOrderDeclined      = "order.declined"
	EventOrderRated         = "order.rated"
	EventOrderFinanceError  = "order.finance.error"
	EventPeriodClosed       = "finance.period.closed"
	EventPeriodApproved     = "finance.period.approved"
	EventOrderIncome        = "finance.order_income.recorded"
	EventWithdrawalCreated  = "finance.withdrawal.created"
	EventWithdrawalApproved = "finance.withdrawal.approved"
	EventWithdrawalRejected = "finance.withdrawal.rejected"
	EventRefundProcessed    = "finance.refund.processed"
	EventPenaltyApplied     = "finance.penalty.applied"
)

// DomainEvent evento de negocio (fire-and-forget, al menos una vez).
type DomainEvent struct {
	ID          string         `json:"event_id"`
	Type        string         `json:"type"`
	AggregateID string         `json:"aggregate_id"`
	Actor       Actor          `json:"actor"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Payload     map[string]any `json:"payload,omitempty"`
}
