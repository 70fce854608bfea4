package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// OpenShiftRequest apertura de turno.
type OpenShiftRequest struct {
	ShopID  string `json:"shop_id" validate:"required"`
	Comment string `json:"comment"`
}

// ShiftCommandRequest cuerpo opcional de pause/resume/close.
type ShiftCommandRequest struct {
	Comment string `json:"comment"`
}

// ShiftEventResponse entrada del log del turno.
type ShiftEventResponse struct {
	Type    string         `json:"type"`
	At      time.Time      `json:"at"`
	Actor   ActorResponse  `json:"actor"`
	Comment string         `json:"comment,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ShiftStatisticsResponse agregados del turno con los promedios ya calculados.
type ShiftStatisticsResponse struct {
	OrdersCount            int             `json:"orders_count"`
	DeliveredOrdersCount   int             `json:"delivered_orders_count"`
	CanceledOrdersCount    int             `json:"canceled_orders_count"`
	DeclinedOrdersCount    int             `json:"declined_orders_count"`
	TotalIncome            decimal.Decimal `json:"total_income"`
	AverageAssemblySeconds int64           `json:"average_assembly_seconds"`
	AverageDeliverySeconds int64           `json:"average_delivery_seconds"`
}

// ShiftResponse salida de un turno.
type ShiftResponse struct {
	ID         string                  `json:"id"`
	ShopID     string                  `json:"shop_id"`
	Status     string                  `json:"status"`
	OpenedBy   ActorResponse           `json:"opened_by"`
	ClosedBy   *ActorResponse          `json:"closed_by,omitempty"`
	OpenedAt   time.Time               `json:"opened_at"`
	ClosedAt   *time.Time              `json:"closed_at,omitempty"`
	Events     []ShiftEventResponse    `json:"events"`
	Statistics ShiftStatisticsResponse `json:"statistics"`
}

// ShiftFromEntity convierte el turno del dominio.
func ShiftFromEntity(s *entity.Shift) ShiftResponse {
	events := make([]ShiftEventResponse, 0, len(s.Events))
	for _, e := range s.Events {
		events = append(events, ShiftEventResponse{
			Type:    string(e.Type),
			At:      e.At.UTC(),
			Actor:   actorResponse(e.Actor),
			Comment: e.Comment,
			Payload: e.Payload,
		})
	}
	st := s.Statistics
	return ShiftResponse{
		ID:       s.ID,
		ShopID:   s.ShopID,
		Status:   string(s.Status),
		OpenedBy: actorResponse(s.OpenedBy),
		ClosedBy: actorPtr(s.ClosedBy),
		OpenedAt: s.OpenedAt.UTC(),
		ClosedAt: timePtr(s.ClosedAt),
		Events:   events,
		Statistics: ShiftStatisticsResponse{
			OrdersCount:            st.OrdersCount,
			DeliveredOrdersCount:   st.DeliveredOrdersCount,
			CanceledOrdersCount:    st.CanceledOrdersCount,
			DeclinedOrdersCount:    st.DeclinedOrdersCount,
			TotalIncome:            st.TotalIncome,
			AverageAssemblySeconds: int64(st.AverageAssemblyDuration().Seconds()),
			AverageDeliverySeconds: int64(st.AverageDeliveryDuration().Seconds()),
		},
	}
}
