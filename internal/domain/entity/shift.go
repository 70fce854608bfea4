package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShiftStatus estado del turno de trabajo de una tienda.
type ShiftStatus string

const (
	ShiftStatusOpen      ShiftStatus = "OPEN"
	ShiftStatusPaused    ShiftStatus = "PAUSED"
	ShiftStatusClosing   ShiftStatus = "CLOSING"
	ShiftStatusClosed    ShiftStatus = "CLOSED"
	ShiftStatusAbandoned ShiftStatus = "ABANDONED"
)

// IsTerminal CLOSED y ABANDONED no admiten más transiciones.
func (s ShiftStatus) IsTerminal() bool {
	return s == ShiftStatusClosed || s == ShiftStatusAbandoned
}

// ShiftEventType tipo de evento registrado en el log del turno.
type ShiftEventType string

const (
	ShiftEventOpen         ShiftEventType = "OPEN"
	ShiftEventPause        ShiftEventType = "PAUSE"
	ShiftEventResume       ShiftEventType = "RESUME"
	ShiftEventStartClosing ShiftEventType = "START_CLOSING"
	ShiftEventClose        ShiftEventType = "CLOSE"
	ShiftEventForceClose   ShiftEventType = "FORCE_CLOSE"
)

// DefaultMaxShiftEvents tope del log de eventos por turno.
const DefaultMaxShiftEvents = 200

// ShiftEvent registro inmutable de una transición.
type ShiftEvent struct {
	Type    ShiftEventType
	At      time.Time
	Actor   Actor
	Comment string
	Payload map[string]any
}

// ShiftStatistics agregados del turno. Los promedios se derivan de sumas y conteos.
type ShiftStatistics struct {
	OrdersCount          int
	DeliveredOrdersCount int
	CanceledOrdersCount  int
	DeclinedOrdersCount  int
	TotalIncome          decimal.Decimal
	AssemblyCount        int
	TotalAssemblySeconds int64
	DeliveryCount        int
	TotalDeliverySeconds int64
}

// AverageAssemblyDuration tiempo medio de armado de pedidos.
func (s ShiftStatistics) AverageAssemblyDuration() time.Duration {
	if s.AssemblyCount == 0 {
		return 0
	}
	return time.Duration(s.TotalAssemblySeconds/int64(s.AssemblyCount)) * time.Second
}

// AverageDeliveryDuration tiempo medio desde entrega al courier hasta la entrega al cliente.
func (s ShiftStatistics) AverageDeliveryDuration() time.Duration {
	if s.DeliveryCount == 0 {
		return 0
	}
	return time.Duration(s.TotalDeliverySeconds/int64(s.DeliveryCount)) * time.Second
}

// ShiftStatisticsDelta incremento aplicado atómicamente sobre ShiftStatistics.
type ShiftStatisticsDelta struct {
	Orders          int
	Delivered       int
	Canceled        int
	Declined        int
	Income          decimal.Decimal
	AssemblySeconds int64
	Assemblies      int
	DeliverySeconds int64
	Deliveries      int
}

// Apply suma el delta a las estadísticas.
func (s ShiftStatistics) Apply(d ShiftStatisticsDelta) ShiftStatistics {
	s.OrdersCount += d.Orders
	s.DeliveredOrdersCount += d.Delivered
	s.CanceledOrdersCount += d.Canceled
	s.DeclinedOrdersCount += d.Declined
	s.TotalIncome = s.TotalIncome.Add(d.Income)
	s.AssemblyCount += d.Assemblies
	s.TotalAssemblySeconds += d.AssemblySeconds
	s.DeliveryCount += d.Deliveries
	s.TotalDeliverySeconds += d.DeliverySeconds
	return s
}

// Shift turno de trabajo de una tienda.
type Shift struct {
	ID         string
	ShopID     string
	Status     ShiftStatus
	OpenedBy   Actor
	ClosedBy   *Actor
	OpenedAt   time.Time
	ClosedAt   *time.Time
	Events     []ShiftEvent
	Statistics ShiftStatistics
	UpdatedAt  time.Time
}

// LastEvent devuelve el último evento del log (nil si está vacío).
func (s *Shift) LastEvent() *ShiftEvent {
	if len(s.Events) == 0 {
		return nil
	}
	return &s.Events[len(s.Events)-1]
}

// CountEvents cuenta los eventos de un tipo.
func (s *Shift) CountEvents(t ShiftEventType) int {
	n := 0
	for _, e := range s.Events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// TrimEvents conserva solo los max eventos más recientes.
func TrimEvents(events []ShiftEvent, max int) []ShiftEvent {
	if max <= 0 || len(events) <= max {
		return events
	}
	return append([]ShiftEvent(nil), events[len(events)-max:]...)
}
