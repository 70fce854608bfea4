package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var (
	_ repository.ShopAccountRepository      = (*ShopAccountRepo)(nil)
	_ repository.SettlementPeriodRepository = (*SettlementPeriodRepo)(nil)
	_ repository.SellerAccountRepository    = (*SellerAccountRepo)(nil)
	_ repository.PlatformAccountRepository  = (*PlatformAccountRepo)(nil)
	_ repository.WithdrawalRepository       = (*WithdrawalRepo)(nil)
)

// ─── ShopAccount ──────────────────────────────────────────────────────────────

// ShopAccountRepo cuentas de liquidación por tienda.
type ShopAccountRepo struct {
	q Querier
}

// NewShopAccountRepository construye el adaptador.
func NewShopAccountRepository(q Querier) *ShopAccountRepo {
	return &ShopAccountRepo{q: q}
}

const shopAccountColumns = `id, shop_id, seller_account_id, commission_percent, COALESCE(current_period_id, ''), created_at, updated_at`

func scanShopAccount(row pgx.Row) (*entity.ShopAccount, error) {
	var a entity.ShopAccount
	err := row.Scan(&a.ID, &a.ShopID, &a.SellerAccountID, &a.CommissionPercent, &a.CurrentPeriodID, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

// Create persiste la cuenta (una por tienda).
func (r *ShopAccountRepo) Create(ctx context.Context, a *entity.ShopAccount) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO shop_accounts (id, shop_id, seller_account_id, commission_percent, current_period_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.ShopID, a.SellerAccountID, a.CommissionPercent, nullable(a.CurrentPeriodID), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return insertErr("cuenta de tienda", a.ID, err)
	}
	return nil
}

// GetByID obtiene la cuenta por ID.
func (r *ShopAccountRepo) GetByID(ctx context.Context, id string) (*entity.ShopAccount, error) {
	a, err := scanShopAccount(r.q.QueryRow(ctx, `SELECT `+shopAccountColumns+` FROM shop_accounts WHERE id = $1`, id))
	return noRows(a, err, "shop account")
}

// GetByShopID obtiene la cuenta de una tienda.
func (r *ShopAccountRepo) GetByShopID(ctx context.Context, shopID string) (*entity.ShopAccount, error) {
	a, err := scanShopAccount(r.q.QueryRow(ctx, `SELECT `+shopAccountColumns+` FROM shop_accounts WHERE shop_id = $1`, shopID))
	return noRows(a, err, "shop account by shop")
}

// SetCurrentPeriod apunta la cuenta a su periodo activo.
func (r *ShopAccountRepo) SetCurrentPeriod(ctx context.Context, accountID, periodID string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE shop_accounts SET current_period_id = $2, updated_at = now() WHERE id = $1`, accountID, periodID)
	if err != nil {
		return fmt.Errorf("set current period: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: cuenta de tienda %s", domain.ErrNotFound, accountID)
	}
	return nil
}

// ─── SettlementPeriod ─────────────────────────────────────────────────────────

// SettlementPeriodRepo periodos y asientos. El índice único parcial garantiza un solo ACTIVE por cuenta.
type SettlementPeriodRepo struct {
	q Querier
}

// NewSettlementPeriodRepository construye el adaptador.
func NewSettlementPeriodRepository(q Querier) *SettlementPeriodRepo {
	return &SettlementPeriodRepo{q: q}
}

const periodColumns = `id, shop_account_id, number, status, order_income, commission, refunds, penalties,
	released_amount, started_at, closed_at, released_at, approved_by, approve_comment, updated_at`

func scanPeriod(row interface{ Scan(...any) error }) (*entity.SettlementPeriod, error) {
	var (
		p          entity.SettlementPeriod
		approvedBy []byte
	)
	err := row.Scan(&p.ID, &p.ShopAccountID, &p.Number, &p.Status,
		&p.Totals.OrderIncome, &p.Totals.Commission, &p.Totals.Refunds, &p.Totals.Penalties,
		&p.ReleasedAmount, &p.StartedAt, &p.ClosedAt, &p.ReleasedAt, &approvedBy, &p.ApproveComment, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.ApprovedBy, err = actorFromJSON(approvedBy); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un periodo.
func (r *SettlementPeriodRepo) Create(ctx context.Context, p *entity.SettlementPeriod) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO settlement_periods (id, shop_account_id, number, status, order_income, commission, refunds, penalties,
			released_amount, started_at, approve_comment, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.ShopAccountID, p.Number, p.Status, p.Totals.OrderIncome, p.Totals.Commission, p.Totals.Refunds,
		p.Totals.Penalties, p.ReleasedAmount, p.StartedAt, p.ApproveComment, p.UpdatedAt)
	if err != nil {
		return insertErr("periodo", p.ID, err)
	}
	return nil
}

// GetByID obtiene un periodo.
func (r *SettlementPeriodRepo) GetByID(ctx context.Context, id string) (*entity.SettlementPeriod, error) {
	p, err := scanPeriod(r.q.QueryRow(ctx, `SELECT `+periodColumns+` FROM settlement_periods WHERE id = $1`, id))
	return noRows(p, err, "settlement period")
}

// GetByIDForUpdate SELECT ... FOR UPDATE; AddTransaction concurrente espera al commit de esta tx.
func (r *SettlementPeriodRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.SettlementPeriod, error) {
	p, err := scanPeriod(r.q.QueryRow(ctx, `SELECT `+periodColumns+` FROM settlement_periods WHERE id = $1 FOR UPDATE`, id))
	return noRows(p, err, "settlement period")
}

// GetActiveByShopAccount periodo ACTIVE de la cuenta (nil si no hay).
func (r *SettlementPeriodRepo) GetActiveByShopAccount(ctx context.Context, shopAccountID string) (*entity.SettlementPeriod, error) {
	p, err := scanPeriod(r.q.QueryRow(ctx,
		`SELECT `+periodColumns+` FROM settlement_periods WHERE shop_account_id = $1 AND status = $2`,
		shopAccountID, entity.PeriodStatusActive))
	return noRows(p, err, "active settlement period")
}

// List periodos del más nuevo al más antiguo.
func (r *SettlementPeriodRepo) List(ctx context.Context, filter repository.SettlementPeriodFilter, page repository.Page) ([]*entity.SettlementPeriod, error) {
	limit, offset := limitOffset(page)
	rows, err := r.q.Query(ctx, `
		SELECT `+periodColumns+` FROM settlement_periods
		WHERE ($1::text IS NULL OR shop_account_id = $1) AND ($2::text IS NULL OR status = $2)
		ORDER BY number DESC LIMIT $3 OFFSET $4`,
		nullable(filter.ShopAccountID), nullable(string(filter.Status)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list settlement periods: %w", err)
	}
	defer rows.Close()
	var list []*entity.SettlementPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement period: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// CompareAndSetStatus transición condicional; los campos nil conservan su valor.
func (r *SettlementPeriodRepo) CompareAndSetStatus(ctx context.Context, upd repository.PeriodStatusUpdate) (bool, error) {
	approvedBy, err := actorJSON(upd.ApprovedBy)
	if err != nil {
		return false, err
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE settlement_periods SET
			status = $3,
			released_amount = COALESCE($4, released_amount),
			closed_at = COALESCE($5, closed_at),
			released_at = COALESCE($6, released_at),
			approved_by = COALESCE($7::jsonb, approved_by),
			approve_comment = CASE WHEN $8::text = '' THEN approve_comment ELSE $8::text END,
			updated_at = now()
		WHERE id = $1 AND status = $2`,
		upd.PeriodID, upd.Expected, upd.Target, upd.ReleasedAmount, upd.ClosedAt, upd.ReleasedAt, approvedBy, upd.ApproveComment)
	if err != nil {
		return false, fmt.Errorf("update settlement period status: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// totalsColumn columna acumulada por tipo de asiento (lista cerrada, nunca entrada del usuario).
func totalsColumn(kind entity.SettlementTransactionType) (string, error) {
	switch kind {
	case entity.SettlementOrderIncome:
		return "order_income", nil
	case entity.SettlementCommission:
		return "commission", nil
	case entity.SettlementOrderRefund:
		return "refunds", nil
	case entity.SettlementPenalty:
		return "penalties", nil
	}
	return "", fmt.Errorf("%w: tipo de asiento %q", domain.ErrValidation, kind)
}

// AddTransaction acumula el importe en el periodo ACTIVE y registra el asiento.
func (r *SettlementPeriodRepo) AddTransaction(ctx context.Context, tx *entity.SettlementTransaction) error {
	col, err := totalsColumn(tx.Type)
	if err != nil {
		return err
	}
	cmd, err := r.q.Exec(ctx,
		`UPDATE settlement_periods SET `+col+` = `+col+` + $2, updated_at = now() WHERE id = $1 AND status = $3`,
		tx.PeriodID, tx.Amount, entity.PeriodStatusActive)
	if err != nil {
		return fmt.Errorf("accumulate settlement totals: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		var status entity.PeriodStatus
		err := r.q.QueryRow(ctx, `SELECT status FROM settlement_periods WHERE id = $1`, tx.PeriodID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: periodo %s", domain.ErrNotFound, tx.PeriodID)
		}
		if err != nil {
			return fmt.Errorf("read settlement period: %w", err)
		}
		return fmt.Errorf("%w: el periodo %s no está activo", domain.ErrInvariant, tx.PeriodID)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO settlement_transactions (id, period_id, shop_account_id, type, amount, order_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.ID, tx.PeriodID, tx.ShopAccountID, tx.Type, tx.Amount, nullable(tx.OrderID), tx.Description, tx.CreatedAt)
	if err != nil {
		return insertErr("asiento", tx.ID, err)
	}
	return nil
}

// ListTransactions asientos del periodo en orden de registro.
func (r *SettlementPeriodRepo) ListTransactions(ctx context.Context, periodID string, page repository.Page) ([]*entity.SettlementTransaction, error) {
	limit, offset := limitOffset(page)
	rows, err := r.q.Query(ctx, `
		SELECT id, period_id, shop_account_id, type, amount, COALESCE(order_id, ''), description, created_at
		FROM settlement_transactions WHERE period_id = $1 ORDER BY seq LIMIT $2 OFFSET $3`, periodID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list settlement transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.SettlementTransaction
	for rows.Next() {
		var t entity.SettlementTransaction
		if err := rows.Scan(&t.ID, &t.PeriodID, &t.ShopAccountID, &t.Type, &t.Amount, &t.OrderID, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan settlement transaction: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// ─── SellerAccount ────────────────────────────────────────────────────────────

// SellerAccountRepo cuentas de vendedor. balance tiene CHECK (>= 0).
type SellerAccountRepo struct {
	q Querier
}

// NewSellerAccountRepository construye el adaptador.
func NewSellerAccountRepository(q Querier) *SellerAccountRepo {
	return &SellerAccountRepo{q: q}
}

// Create persiste la cuenta del vendedor.
func (r *SellerAccountRepo) Create(ctx context.Context, a *entity.SellerAccount) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO seller_accounts (id, seller_id, balance, total_earned, total_withdrawn, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.SellerID, a.Balance, a.TotalEarned, a.TotalWithdrawn, a.UpdatedAt)
	if err != nil {
		return insertErr("cuenta de vendedor", a.ID, err)
	}
	return nil
}

// GetByID obtiene la cuenta del vendedor.
func (r *SellerAccountRepo) GetByID(ctx context.Context, id string) (*entity.SellerAccount, error) {
	var a entity.SellerAccount
	err := r.q.QueryRow(ctx, `
		SELECT id, seller_id, balance, total_earned, total_withdrawn, updated_at
		FROM seller_accounts WHERE id = $1`, id).
		Scan(&a.ID, &a.SellerID, &a.Balance, &a.TotalEarned, &a.TotalWithdrawn, &a.UpdatedAt)
	return noRows(&a, err, "seller account")
}

// AdjustBalance los créditos suman a total_earned y los débitos a total_withdrawn.
func (r *SellerAccountRepo) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE seller_accounts SET
			balance = balance + $2,
			total_earned = total_earned + GREATEST($2, 0),
			total_withdrawn = total_withdrawn + GREATEST(-$2, 0),
			updated_at = now()
		WHERE id = $1 AND balance + $2 >= 0`, accountID, delta)
	if err != nil {
		return fmt.Errorf("adjust seller balance: %w", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var balance decimal.Decimal
	err = r.q.QueryRow(ctx, `SELECT balance FROM seller_accounts WHERE id = $1`, accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: cuenta de vendedor %s", domain.ErrNotFound, accountID)
	}
	if err != nil {
		return fmt.Errorf("read seller balance: %w", err)
	}
	return fmt.Errorf("%w: saldo disponible %s", domain.ErrInsufficientFunds, balance)
}

// ─── PlatformAccount ──────────────────────────────────────────────────────────

// PlatformAccountRepo libro único de la plataforma (fila id = 'platform').
type PlatformAccountRepo struct {
	q Querier
}

// NewPlatformAccountRepository construye el adaptador.
func NewPlatformAccountRepository(q Querier) *PlatformAccountRepo {
	return &PlatformAccountRepo{q: q}
}

const platformAccountID = "platform"

// Get lee el libro de la plataforma.
func (r *PlatformAccountRepo) Get(ctx context.Context) (*entity.PlatformAccount, error) {
	var a entity.PlatformAccount
	err := r.q.QueryRow(ctx, `
		SELECT id, balance, total_commission, total_payouts, total_refunds, total_penalties, updated_at
		FROM platform_account WHERE id = $1`, platformAccountID).
		Scan(&a.ID, &a.Balance, &a.TotalCommission, &a.TotalPayouts, &a.TotalRefunds, &a.TotalPenalties, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &entity.PlatformAccount{ID: platformAccountID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get platform account: %w", err)
	}
	return &a, nil
}

// CreateTransaction bloquea la fila, aplica el asiento y lo registra.
func (r *PlatformAccountRepo) CreateTransaction(ctx context.Context, tx *entity.PlatformTransaction) error {
	var a entity.PlatformAccount
	err := r.q.QueryRow(ctx, `
		INSERT INTO platform_account (id) VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING id, balance, total_commission, total_payouts, total_refunds, total_penalties`, platformAccountID).
		Scan(&a.ID, &a.Balance, &a.TotalCommission, &a.TotalPayouts, &a.TotalRefunds, &a.TotalPenalties)
	if err != nil {
		return fmt.Errorf("lock platform account: %w", err)
	}
	next := a.Apply(tx.Type, tx.Amount)
	_, err = r.q.Exec(ctx, `
		UPDATE platform_account SET balance = $2, total_commission = $3, total_payouts = $4,
			total_refunds = $5, total_penalties = $6, updated_at = $7
		WHERE id = $1`,
		platformAccountID, next.Balance, next.TotalCommission, next.TotalPayouts, next.TotalRefunds, next.TotalPenalties, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("update platform account: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO platform_transactions (id, type, amount, shop_account_id, order_id, reference_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.ID, tx.Type, tx.Amount, nullable(tx.ShopAccountID), nullable(tx.OrderID), nullable(tx.ReferenceID), tx.Description, tx.CreatedAt)
	if err != nil {
		return insertErr("asiento de plataforma", tx.ID, err)
	}
	return nil
}

// ListTransactions asientos de la plataforma en orden de registro.
func (r *PlatformAccountRepo) ListTransactions(ctx context.Context, page repository.Page) ([]*entity.PlatformTransaction, error) {
	limit, offset := limitOffset(page)
	rows, err := r.q.Query(ctx, `
		SELECT id, type, amount, COALESCE(shop_account_id, ''), COALESCE(order_id, ''), COALESCE(reference_id, ''), description, created_at
		FROM platform_transactions ORDER BY seq LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list platform transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.PlatformTransaction
	for rows.Next() {
		var t entity.PlatformTransaction
		if err := rows.Scan(&t.ID, &t.Type, &t.Amount, &t.ShopAccountID, &t.OrderID, &t.ReferenceID, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan platform transaction: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// ─── Withdrawal ───────────────────────────────────────────────────────────────

// WithdrawalRepo solicitudes de retiro.
type WithdrawalRepo struct {
	q Querier
}

// NewWithdrawalRepository construye el adaptador.
func NewWithdrawalRepository(q Querier) *WithdrawalRepo {
	return &WithdrawalRepo{q: q}
}

const withdrawalColumns = `id, seller_account_id, amount, status, requested_by, processed_by, comment, created_at, processed_at`

func scanWithdrawal(row interface{ Scan(...any) error }) (*entity.Withdrawal, error) {
	var (
		w                        entity.Withdrawal
		requestedBy, processedBy []byte
	)
	err := row.Scan(&w.ID, &w.SellerAccountID, &w.Amount, &w.Status, &requestedBy, &processedBy, &w.Comment, &w.CreatedAt, &w.ProcessedAt)
	if err != nil {
		return nil, err
	}
	requester, err := actorFromJSON(requestedBy)
	if err != nil {
		return nil, err
	}
	if requester != nil {
		w.RequestedBy = *requester
	}
	if w.ProcessedBy, err = actorFromJSON(processedBy); err != nil {
		return nil, err
	}
	return &w, nil
}

// Create persiste la solicitud.
func (r *WithdrawalRepo) Create(ctx context.Context, w *entity.Withdrawal) error {
	requestedBy, err := toJSON(w.RequestedBy)
	if err != nil {
		return err
	}
	processedBy, err := actorJSON(w.ProcessedBy)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO withdrawals (id, seller_account_id, amount, status, requested_by, processed_by, comment, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.ID, w.SellerAccountID, w.Amount, w.Status, requestedBy, processedBy, w.Comment, w.CreatedAt, w.ProcessedAt)
	if err != nil {
		return insertErr("retiro", w.ID, err)
	}
	return nil
}

// GetByID obtiene la solicitud.
func (r *WithdrawalRepo) GetByID(ctx context.Context, id string) (*entity.Withdrawal, error) {
	w, err := scanWithdrawal(r.q.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
	return noRows(w, err, "withdrawal")
}

// List solicitudes de la más reciente a la más antigua.
func (r *WithdrawalRepo) List(ctx context.Context, filter repository.WithdrawalFilter, page repository.Page) ([]*entity.Withdrawal, error) {
	limit, offset := limitOffset(page)
	rows, err := r.q.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals
		WHERE ($1::text IS NULL OR seller_account_id = $1) AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		nullable(filter.SellerAccountID), nullable(string(filter.Status)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()
	var list []*entity.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// UpdateIfStatus persiste la resolución solo si el estado almacenado es expected.
func (r *WithdrawalRepo) UpdateIfStatus(ctx context.Context, w *entity.Withdrawal, expected entity.WithdrawalStatus) (bool, error) {
	processedBy, err := actorJSON(w.ProcessedBy)
	if err != nil {
		return false, err
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE withdrawals SET status = $3, processed_by = $4, comment = $5, processed_at = $6
		WHERE id = $1 AND status = $2`,
		w.ID, expected, w.Status, processedBy, w.Comment, w.ProcessedAt)
	if err != nil {
		return false, fmt.Errorf("update withdrawal: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}
