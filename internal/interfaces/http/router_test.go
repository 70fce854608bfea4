package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-api/internal/application/dto"
	"github.com/jhoicas/marketplace-api/internal/application/finance"
	"github.com/jhoicas/marketplace-api/internal/application/inventory"
	"github.com/jhoicas/marketplace-api/internal/application/order"
	"github.com/jhoicas/marketplace-api/internal/application/shift"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/marketplace-api/internal/interfaces/http"
	"github.com/jhoicas/marketplace-api/pkg/metrics"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type testAPI struct {
	app   *fiber.App
	store *memory.Store
}

// newTestAPI arma la API completa sobre el store en memoria con una tienda, dos productos y un cliente.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	events := &memory.EventRecorder{}
	log := zerolog.Nop()

	fin := finance.NewUseCase(store, events, log, finance.Config{})
	require.NoError(t, store.Run(ctx, func(s repository.Stores) error {
		return s.Sellers.Create(ctx, &entity.SellerAccount{ID: "sa-1", SellerID: "seller-1"})
	}))
	account, err := fin.OpenShopAccount(ctx, finance.OpenShopAccountInput{ShopID: "shop-1", SellerAccountID: "sa-1", CommissionPercent: d("10")})
	require.NoError(t, err)

	require.NoError(t, store.Run(ctx, func(s repository.Stores) error {
		if err := s.Shops.Create(ctx, &entity.Shop{
			ID: "shop-1", SellerID: "seller-1", ShopAccountID: account.ID, Name: "Centro",
			Status: entity.ShopStatusClosed, MinOrderSum: d("500"), DeliveryPrice: d("99"),
		}); err != nil {
			return err
		}
		if err := s.Shops.Create(ctx, &entity.Shop{ID: "shop-2", SellerID: "seller-2", Name: "Norte", Status: entity.ShopStatusClosed}); err != nil {
			return err
		}
		for _, p := range []*entity.ShopProduct{
			{ID: "sp-apple", ShopID: "shop-1", ProductID: "apple", Name: "Manzana", Price: d("180"), StockQuantity: d("10"), Status: entity.ShopProductActive},
			{ID: "sp-pear", ShopID: "shop-1", ProductID: "pear", Name: "Pera", Price: d("120"), StockQuantity: d("3"), Status: entity.ShopProductActive},
		} {
			if err := s.ShopProducts.Create(ctx, p); err != nil {
				return err
			}
		}
		return s.Customers.Create(ctx, &entity.Customer{ID: "cust-1", Name: "Ana", BonusPoints: d("100")})
	}))

	ledger := inventory.NewStockLedger()
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ShiftUC:     shift.NewUseCase(store, events, log, shift.Config{}),
		InventoryUC: inventory.NewUseCase(store, events, ledger, log, inventory.Config{}),
		OrderUC:     order.NewUseCase(store, events, ledger, fin, log, order.Config{}),
		FinanceUC:   fin,
		Metrics:     metrics.NewServerMetrics("test"),
		Log:         log,
		ServiceName: "marketplace-test",
		JWTSecret:   testJWTSecret,
	})
	return &testAPI{app: app, store: store}
}

// call envía la petición con el token del usuario y decodifica la respuesta en out (si no es nil).
func (a *testAPI) call(t *testing.T, method, path, userID, role string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", tokenFor(t, userID, role))
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) openShift(t *testing.T) dto.ShiftResponse {
	t.Helper()
	var sh dto.ShiftResponse
	status := a.call(t, http.MethodPost, "/api/shifts", "emp-1", entity.RoleEmployee, dto.OpenShiftRequest{ShopID: "shop-1"}, &sh)
	require.Equal(t, http.StatusCreated, status)
	return sh
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo del pedido
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_FlujoCompletoDelPedido(t *testing.T) {
	api := newTestAPI(t)
	sh := api.openShift(t)
	assert.Equal(t, "OPEN", sh.Status)

	var cart dto.CartResponse
	status := api.call(t, http.MethodPut, "/api/cart/items", "cust-1", entity.RoleCustomer,
		dto.SetCartItemRequest{ShopID: "shop-1", ShopProductID: "sp-apple", Quantity: d("3")}, &cart)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, cart.ReadyToOrder)
	assert.True(t, d("540").Equal(cart.Total))

	var o dto.OrderResponse
	status = api.call(t, http.MethodPost, "/api/orders", "cust-1", entity.RoleCustomer,
		dto.CheckoutRequest{ShopID: "shop-1", DeliveryAddress: "Calle 1"}, &o)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "PENDING", o.Status)
	assert.Equal(t, sh.ID, o.ShiftID)

	base := "/api/orders/" + o.ID
	require.Equal(t, http.StatusOK, api.call(t, http.MethodPost, base+"/accept", "emp-1", entity.RoleEmployee, nil, &o))
	assert.Equal(t, "ASSEMBLING", o.Status)

	status = api.call(t, http.MethodPost, base+"/complete-assembly", "emp-1", entity.RoleEmployee,
		dto.CompleteAssemblyRequest{ActualQuantities: map[string]decimal.Decimal{"sp-apple": d("3")}}, &o)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "AWAITING_COURIER", o.Status)

	require.Equal(t, http.StatusOK, api.call(t, http.MethodPost, base+"/hand-to-courier", "emp-1", entity.RoleEmployee, nil, &o))
	require.Equal(t, http.StatusOK, api.call(t, http.MethodPost, base+"/deliver", "emp-1", entity.RoleEmployee, nil, &o))
	assert.Equal(t, "DELIVERED", o.Status)

	status = api.call(t, http.MethodPost, base+"/rating", "cust-1", entity.RoleCustomer, dto.RatingRequest{Value: 5}, &o)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, o.Rating)
	assert.Equal(t, 5, o.Rating.Value)

	var platform dto.PlatformAccountResponse
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/finance/platform", "adm-1", entity.RoleAdmin, nil, &platform))
	assert.True(t, d("54").Equal(platform.TotalCommission), "comisión 10%% de 540, obtuvo %s", platform.TotalCommission)

	var movements dto.ListResponse[dto.StockMovementResponse]
	status = api.call(t, http.MethodGet, "/api/inventory/movements?shop_product_id=sp-apple", "emp-1", entity.RoleEmployee, nil, &movements)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, movements.Items, 1)
	assert.Equal(t, "ORDER_RESERVATION", movements.Items[0].Type)
	assert.True(t, d("7").Equal(movements.Items[0].BalanceAfter))
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_CheckoutSinStockDevuelveFaltante(t *testing.T) {
	api := newTestAPI(t)
	api.openShift(t)

	require.Equal(t, http.StatusOK, api.call(t, http.MethodPut, "/api/cart/items", "cust-1", entity.RoleCustomer,
		dto.SetCartItemRequest{ShopID: "shop-1", ShopProductID: "sp-pear", Quantity: d("5")}, nil))

	var errResp dto.ErrorResponse
	status := api.call(t, http.MethodPost, "/api/orders", "cust-1", entity.RoleCustomer,
		dto.CheckoutRequest{ShopID: "shop-1", DeliveryAddress: "Calle 1"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Code)
	require.NotNil(t, errResp.Details)
	assert.Equal(t, "sp-pear", errResp.Details.ProductID)
	assert.Equal(t, "2", errResp.Details.Shortfall)
}

func TestRouter_CheckoutSinTurnoEsInvariante(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusOK, api.call(t, http.MethodPut, "/api/cart/items", "cust-1", entity.RoleCustomer,
		dto.SetCartItemRequest{ShopID: "shop-1", ShopProductID: "sp-apple", Quantity: d("3")}, nil))

	var errResp dto.ErrorResponse
	status := api.call(t, http.MethodPost, "/api/orders", "cust-1", entity.RoleCustomer,
		dto.CheckoutRequest{ShopID: "shop-1"}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVARIANT", errResp.Code)
}

func TestRouter_PedidoInexistente404(t *testing.T) {
	api := newTestAPI(t)
	var errResp dto.ErrorResponse
	status := api.call(t, http.MethodGet, "/api/orders/nope", "emp-1", entity.RoleEmployee, nil, &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errResp.Code)
}

func TestRouter_TransicionInvalida409(t *testing.T) {
	api := newTestAPI(t)
	api.openShift(t)
	require.Equal(t, http.StatusOK, api.call(t, http.MethodPut, "/api/cart/items", "cust-1", entity.RoleCustomer,
		dto.SetCartItemRequest{ShopID: "shop-1", ShopProductID: "sp-apple", Quantity: d("3")}, nil))
	var o dto.OrderResponse
	require.Equal(t, http.StatusCreated, api.call(t, http.MethodPost, "/api/orders", "cust-1", entity.RoleCustomer,
		dto.CheckoutRequest{ShopID: "shop-1"}, &o))

	var errResp dto.ErrorResponse
	status := api.call(t, http.MethodPost, "/api/orders/"+o.ID+"/deliver", "emp-1", entity.RoleEmployee, nil, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errResp.Code)
}

func TestRouter_CuerpoInvalido400(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/shifts", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenFor(t, "emp-1", entity.RoleEmployee))
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "INVALID_BODY")
}

// ──────────────────────────────────────────────────────────────────────────────
// Autorización por rol y por tienda
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_ClienteNoAbreTurno(t *testing.T) {
	api := newTestAPI(t)
	status := api.call(t, http.MethodPost, "/api/shifts", "cust-1", entity.RoleCustomer, dto.OpenShiftRequest{ShopID: "shop-1"}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRouter_VendedorSoloVeSusTiendas(t *testing.T) {
	api := newTestAPI(t)
	api.openShift(t)

	var list dto.ListResponse[dto.ShiftResponse]
	status := api.call(t, http.MethodGet, "/api/shops/shop-1/shifts", "seller-1", entity.RoleSeller, nil, &list)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list.Items, 1)

	assert.Equal(t, http.StatusForbidden, api.call(t, http.MethodGet, "/api/shops/shop-2/shifts", "seller-1", entity.RoleSeller, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.call(t, http.MethodGet, "/api/shops/nope/shifts", "seller-1", entity.RoleSeller, nil, nil))
	assert.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/shops/shop-2/shifts", "adm-1", entity.RoleAdmin, nil, nil))
}

func TestRouter_ClienteSoloVeSusPedidos(t *testing.T) {
	api := newTestAPI(t)
	api.openShift(t)
	require.Equal(t, http.StatusOK, api.call(t, http.MethodPut, "/api/cart/items", "cust-1", entity.RoleCustomer,
		dto.SetCartItemRequest{ShopID: "shop-1", ShopProductID: "sp-apple", Quantity: d("3")}, nil))
	var o dto.OrderResponse
	require.Equal(t, http.StatusCreated, api.call(t, http.MethodPost, "/api/orders", "cust-1", entity.RoleCustomer,
		dto.CheckoutRequest{ShopID: "shop-1"}, &o))

	assert.Equal(t, http.StatusForbidden, api.call(t, http.MethodGet, "/api/orders/"+o.ID, "cust-2", entity.RoleCustomer, nil, nil))

	var list dto.ListResponse[dto.OrderResponse]
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/orders?customer_id=cust-1", "cust-2", entity.RoleCustomer, nil, &list))
	assert.Empty(t, list.Items)
}

// ──────────────────────────────────────────────────────────────────────────────
// Inventario y finanzas vía HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_BajaConfirmadaDescuentaStock(t *testing.T) {
	api := newTestAPI(t)

	var wo dto.WriteOffResponse
	status := api.call(t, http.MethodPost, "/api/inventory/write-offs", "emp-1", entity.RoleEmployee, dto.CreateWriteOffRequest{
		ShopID: "shop-1", Reason: "merma",
		Items: []dto.WriteOffItemRequest{{ShopProductID: "sp-apple", Quantity: d("2")}},
	}, &wo)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "DRAFT", wo.Status)

	require.Equal(t, http.StatusOK, api.call(t, http.MethodPost, "/api/inventory/write-offs/"+wo.ID+"/confirm", "emp-1", entity.RoleEmployee, nil, &wo))
	assert.Equal(t, "CONFIRMED", wo.Status)

	var verify map[string]bool
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/inventory/products/sp-apple/verify", "emp-1", entity.RoleEmployee, nil, &verify))
	assert.True(t, verify["balanced"])
}

func TestRouter_RetiroSinSaldoEsInvariante(t *testing.T) {
	api := newTestAPI(t)

	var errResp dto.ErrorResponse
	status := api.call(t, http.MethodPost, "/api/finance/withdrawals", "seller-1", entity.RoleSeller,
		dto.CreateWithdrawalRequest{SellerAccountID: "sa-1", Amount: d("10")}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVARIANT", errResp.Code)

	assert.Equal(t, http.StatusForbidden, api.call(t, http.MethodPost, "/api/finance/withdrawals", "adm-1", entity.RoleAdmin,
		dto.CreateWithdrawalRequest{SellerAccountID: "sa-1", Amount: d("10")}, nil))

	var list dto.ListResponse[dto.WithdrawalResponse]
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/api/finance/withdrawals", "adm-1", entity.RoleAdmin, nil, &list))
	assert.Empty(t, list.Items)
}

// ──────────────────────────────────────────────────────────────────────────────
// Health y métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_HealthYMetricas(t *testing.T) {
	api := newTestAPI(t)

	var health map[string]string
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, "/health", "", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `marketplace_test_http_requests_total{handler="/health",status="200"} 1`)
}
