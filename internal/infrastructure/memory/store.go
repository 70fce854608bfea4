package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var _ ports.TxRunner = (*Store)(nil)

// Store implementación en memoria de todos los puertos. Las transacciones se serializan:
// Run trabaja sobre una copia del estado y solo la publica si fn no devuelve error.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore construye un store vacío con la cuenta de plataforma inicializada.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn con repositorios atados a una copia del estado y hace Commit o Rollback.
func (s *Store) Run(ctx context.Context, fn func(repository.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(work.stores()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// View ejecuta fn en modo lectura sobre el estado confirmado.
func (s *Store) View(fn func(repository.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st.clone().stores())
}

type state struct {
	shops        map[string]*entity.Shop
	shifts       map[string]*entity.Shift
	shopProducts map[string]*entity.ShopProduct
	movements    []*entity.StockMovement
	writeOffs    map[string]*entity.WriteOff
	receivings   map[string]*entity.Receiving
	transfers    map[string]*entity.Transfer
	audits       map[string]*entity.InventoryAudit
	counters     map[string]int64
	carts        map[string]*entity.Cart
	customers    map[string]*entity.Customer
	orders       map[string]*entity.Order
	shopAccounts map[string]*entity.ShopAccount
	periods      map[string]*entity.SettlementPeriod
	periodTxs    []*entity.SettlementTransaction
	sellers      map[string]*entity.SellerAccount
	platform     *entity.PlatformAccount
	platformTxs  []*entity.PlatformTransaction
	withdrawals  map[string]*entity.Withdrawal
}

func newState() *state {
	return &state{
		shops:        map[string]*entity.Shop{},
		shifts:       map[string]*entity.Shift{},
		shopProducts: map[string]*entity.ShopProduct{},
		writeOffs:    map[string]*entity.WriteOff{},
		receivings:   map[string]*entity.Receiving{},
		transfers:    map[string]*entity.Transfer{},
		audits:       map[string]*entity.InventoryAudit{},
		counters:     map[string]int64{},
		carts:        map[string]*entity.Cart{},
		customers:    map[string]*entity.Customer{},
		orders:       map[string]*entity.Order{},
		shopAccounts: map[string]*entity.ShopAccount{},
		periods:      map[string]*entity.SettlementPeriod{},
		sellers:      map[string]*entity.SellerAccount{},
		platform:     &entity.PlatformAccount{ID: "platform"},
		withdrawals:  map[string]*entity.Withdrawal{},
	}
}

func (s *state) clone() *state {
	c := &state{
		shops:        cloneMap(s.shops, cloneShop),
		shifts:       cloneMap(s.shifts, cloneShift),
		shopProducts: cloneMap(s.shopProducts, cloneShopProduct),
		movements:    append([]*entity.StockMovement(nil), s.movements...),
		writeOffs:    cloneMap(s.writeOffs, cloneWriteOff),
		receivings:   cloneMap(s.receivings, cloneReceiving),
		transfers:    cloneMap(s.transfers, cloneTransfer),
		audits:       cloneMap(s.audits, cloneAudit),
		counters:     make(map[string]int64, len(s.counters)),
		carts:        cloneMap(s.carts, cloneCart),
		customers:    cloneMap(s.customers, clonePtr[entity.Customer]),
		orders:       cloneMap(s.orders, cloneOrder),
		shopAccounts: cloneMap(s.shopAccounts, clonePtr[entity.ShopAccount]),
		periods:      cloneMap(s.periods, clonePeriod),
		periodTxs:    append([]*entity.SettlementTransaction(nil), s.periodTxs...),
		sellers:      cloneMap(s.sellers, clonePtr[entity.SellerAccount]),
		platform:     clonePtr(s.platform),
		platformTxs:  append([]*entity.PlatformTransaction(nil), s.platformTxs...),
		withdrawals:  cloneMap(s.withdrawals, cloneWithdrawal),
	}
	for k, v := range s.counters {
		c.counters[k] = v
	}
	return c
}

func (s *state) stores() repository.Stores {
	return repository.Stores{
		Shops:        &shopRepo{s: s},
		Shifts:       &shiftRepo{s: s},
		ShopProducts: &shopProductRepo{s: s},
		Movements:    &movementRepo{s: s},
		WriteOffs:    &writeOffRepo{s: s},
		Receivings:   &receivingRepo{s: s},
		Transfers:    &transferRepo{s: s},
		Audits:       &auditRepo{s: s},
		Counters:     &counterRepo{s: s},
		Carts:        &cartRepo{s: s},
		Customers:    &customerRepo{s: s},
		Orders:       &orderRepo{s: s},
		ShopAccounts: &shopAccountRepo{s: s},
		Periods:      &periodRepo{s: s},
		Sellers:      &sellerRepo{s: s},
		Platform:     &platformRepo{s: s},
		Withdrawals:  &withdrawalRepo{s: s},
	}
}
