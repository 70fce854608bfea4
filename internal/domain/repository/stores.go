package repository

// Stores agrupa los repositorios atados a una misma transacción (unidad de trabajo).
type Stores struct {
	Shops        ShopRepository
	Shifts       ShiftRepository
	ShopProducts ShopProductRepository
	Movements    StockMovementRepository
	WriteOffs    WriteOffRepository
	Receivings   ReceivingRepository
	Transfers    TransferRepository
	Audits       InventoryAuditRepository
	Counters     DocumentCounterRepository
	Carts        CartRepository
	Customers    CustomerRepository
	Orders       OrderRepository
	ShopAccounts ShopAccountRepository
	Periods      SettlementPeriodRepository
	Sellers      SellerAccountRepository
	Platform     PlatformAccountRepository
	Withdrawals  WithdrawalRepository
}
