package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var _ repository.ShiftRepository = (*ShiftRepo)(nil)

// ShiftRepo turnos con el log de eventos en JSONB y las estadísticas en columnas
// (los incrementos son aritmética SQL, sin leer-modificar-escribir).
type ShiftRepo struct {
	q Querier
}

// NewShiftRepository construye el adaptador de turnos.
func NewShiftRepository(q Querier) *ShiftRepo {
	return &ShiftRepo{q: q}
}

const shiftColumns = `id, shop_id, status, opened_by, closed_by, opened_at, closed_at, events,
	orders_count, delivered_orders_count, canceled_orders_count, declined_orders_count, total_income,
	assembly_count, total_assembly_seconds, delivery_count, total_delivery_seconds, updated_at`

func scanShift(row interface{ Scan(...any) error }) (*entity.Shift, error) {
	var (
		s                          entity.Shift
		openedBy, closedBy, events []byte
	)
	st := &s.Statistics
	err := row.Scan(&s.ID, &s.ShopID, &s.Status, &openedBy, &closedBy, &s.OpenedAt, &s.ClosedAt, &events,
		&st.OrdersCount, &st.DeliveredOrdersCount, &st.CanceledOrdersCount, &st.DeclinedOrdersCount, &st.TotalIncome,
		&st.AssemblyCount, &st.TotalAssemblySeconds, &st.DeliveryCount, &st.TotalDeliverySeconds, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(openedBy, &s.OpenedBy); err != nil {
		return nil, fmt.Errorf("decodificar opened_by: %w", err)
	}
	if s.ClosedBy, err = actorFromJSON(closedBy); err != nil {
		return nil, err
	}
	if len(events) > 0 {
		if err := json.Unmarshal(events, &s.Events); err != nil {
			return nil, fmt.Errorf("decodificar eventos del turno: %w", err)
		}
	}
	return &s, nil
}

// Create persiste un turno. El índice único parcial por tienda impide dos turnos no terminales.
func (r *ShiftRepo) Create(ctx context.Context, shift *entity.Shift) error {
	openedBy, err := toJSON(shift.OpenedBy)
	if err != nil {
		return err
	}
	events, err := toJSON(shift.Events)
	if err != nil {
		return err
	}
	st := shift.Statistics
	query := `
		INSERT INTO shifts (id, shop_id, status, opened_by, opened_at, events,
			orders_count, delivered_orders_count, canceled_orders_count, declined_orders_count, total_income,
			assembly_count, total_assembly_seconds, delivery_count, total_delivery_seconds, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = r.q.Exec(ctx, query, shift.ID, shift.ShopID, shift.Status, openedBy, shift.OpenedAt, events,
		st.OrdersCount, st.DeliveredOrdersCount, st.CanceledOrdersCount, st.DeclinedOrdersCount, st.TotalIncome,
		st.AssemblyCount, st.TotalAssemblySeconds, st.DeliveryCount, st.TotalDeliverySeconds, shift.UpdatedAt)
	if err != nil {
		return insertErr("turno", shift.ID, err)
	}
	return nil
}

// GetByID obtiene un turno por ID.
func (r *ShiftRepo) GetByID(ctx context.Context, id string) (*entity.Shift, error) {
	s, err := scanShift(r.q.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id))
	return noRows(s, err, "shift")
}

// List turnos del más reciente al más antiguo.
func (r *ShiftRepo) List(ctx context.Context, filter repository.ShiftFilter, page repository.Page) ([]*entity.Shift, error) {
	limit, offset := limitOffset(page)
	query := `
		SELECT ` + shiftColumns + ` FROM shifts
		WHERE ($1::text IS NULL OR shop_id = $1) AND ($2::text IS NULL OR status = $2)
		ORDER BY opened_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, nullable(filter.ShopID), nullable(string(filter.Status)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CompareAndSetStatus bloquea la fila solo si el estado es el esperado; el recorte del log
// se calcula con la fila bloqueada y se escribe en la misma transacción.
func (r *ShiftRepo) CompareAndSetStatus(ctx context.Context, upd repository.ShiftStatusUpdate) (bool, error) {
	var raw []byte
	err := r.q.QueryRow(ctx,
		`SELECT events FROM shifts WHERE id = $1 AND status = $2 FOR UPDATE`,
		upd.ShiftID, upd.Expected).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock shift: %w", err)
	}
	var events []entity.ShiftEvent
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &events); err != nil {
			return false, fmt.Errorf("decodificar eventos del turno: %w", err)
		}
	}
	payload, err := toJSONEvents(entity.TrimEvents(append(events, upd.Event), upd.MaxEvents))
	if err != nil {
		return false, err
	}
	closedBy, err := actorJSON(upd.ClosedBy)
	if err != nil {
		return false, err
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE shifts SET status = $3, events = $4,
			closed_by = COALESCE($5::jsonb, closed_by), closed_at = COALESCE($6, closed_at), updated_at = $7
		WHERE id = $1 AND status = $2`,
		upd.ShiftID, upd.Expected, upd.Target, payload, closedBy, upd.ClosedAt, upd.Event.At)
	if err != nil {
		return false, fmt.Errorf("update shift status: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func toJSONEvents(events []entity.ShiftEvent) ([]byte, error) {
	if events == nil {
		events = []entity.ShiftEvent{}
	}
	return toJSON(events)
}

// IncrementStatistics suma el delta de forma atómica.
func (r *ShiftRepo) IncrementStatistics(ctx context.Context, shiftID string, d entity.ShiftStatisticsDelta) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE shifts SET
			orders_count = orders_count + $2,
			delivered_orders_count = delivered_orders_count + $3,
			canceled_orders_count = canceled_orders_count + $4,
			declined_orders_count = declined_orders_count + $5,
			total_income = total_income + $6,
			assembly_count = assembly_count + $7,
			total_assembly_seconds = total_assembly_seconds + $8,
			delivery_count = delivery_count + $9,
			total_delivery_seconds = total_delivery_seconds + $10
		WHERE id = $1`,
		shiftID, d.Orders, d.Delivered, d.Canceled, d.Declined, d.Income,
		d.Assemblies, d.AssemblySeconds, d.Deliveries, d.DeliverySeconds)
	if err != nil {
		return fmt.Errorf("increment shift statistics: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: turno %s", domain.ErrNotFound, shiftID)
	}
	return nil
}
