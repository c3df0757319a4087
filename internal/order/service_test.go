package order

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pc_shop/internal/metrics"
	"github.com/Skotchmaster/pc_shop/internal/models"
	"github.com/Skotchmaster/pc_shop/pkg/db"
)

func newTestService(t *testing.T) *OrderService {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := db.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, gdb.AutoMigrate(&models.Order{}))

	return &OrderService{Repo: &GormRepo{DB: gdb}, Metrics: metrics.New()}
}

func sampleOrder() *models.Order {
	return &models.Order{
		CustomerName:  "Maria Silva",
		CustomerEmail: "maria@example.com",
		CustomerCPF:   "123.456.789-09",
		Items:         []models.OrderItem{{ID: uuid.New(), Name: "SSD Kingston 1TB", Price: 399.9, Quantity: 1}},
		Total:         399.9,
		PaymentMethod: models.PaymentMethodPix,
		PaymentStatus: models.PaymentStatusCompleted,
		PixData:       &models.OrderPixData{TransactionID: "tx-1", QRCode: "000201", Status: models.PaymentStatusCompleted},
	}
}

func TestOrderService_CreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	got, err := svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", got.CustomerName)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.PixData)
	assert.Equal(t, "tx-1", got.PixData.TransactionID)

	_, err = svc.GetOrder(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_Validation(t *testing.T) {
	svc := newTestService(t)

	o := sampleOrder()
	o.Items = nil
	_, err := svc.CreateOrder(context.Background(), o)
	require.ErrorIs(t, err, ErrValidation)

	o = sampleOrder()
	o.CustomerEmail = ""
	_, err = svc.CreateOrder(context.Background(), o)
	require.ErrorIs(t, err, ErrValidation)
}

func TestOrderHTTP_ConfirmationAndList(t *testing.T) {
	svc := newTestService(t)
	h := &OrderHTTP{Svc: svc}
	e := echo.New()

	created, err := svc.CreateOrder(context.Background(), sampleOrder())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/checkout/success?orderId="+created.ID.String(), nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Confirmation(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID.String())

	req = httptest.NewRequest(http.MethodGet, "/checkout/success?orderId="+uuid.NewString(), nil)
	err = h.Confirmation(e.NewContext(req, httptest.NewRecorder()))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.ListOrders(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}
