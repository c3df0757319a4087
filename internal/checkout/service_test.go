package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pc_shop/internal/cart"
	"github.com/Skotchmaster/pc_shop/internal/catalog"
	"github.com/Skotchmaster/pc_shop/internal/metrics"
	"github.com/Skotchmaster/pc_shop/internal/models"
	"github.com/Skotchmaster/pc_shop/internal/order"
	"github.com/Skotchmaster/pc_shop/internal/pix"
	"github.com/Skotchmaster/pc_shop/pkg/db"
	"github.com/Skotchmaster/pc_shop/pkg/kvstore"
)

type stubCatalog map[uuid.UUID]models.Product

func (s stubCatalog) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

var cpuID = uuid.MustParse("5b9c1f3a-7d2e-4c8b-9a1f-0e6d2c4b8a10")

// capturingPix records the completion callback so the test decides when the
// charge settles.
type capturingPix struct {
	mu        sync.Mutex
	callbacks []pix.CompletionFunc
	requests  []pix.ChargeRequest
}

func (p *capturingPix) Generate(_ context.Context, req pix.ChargeRequest, onComplete pix.CompletionFunc) (*models.PixCharge, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, onComplete)
	p.requests = append(p.requests, req)
	return &models.PixCharge{
		TransactionID: fmt.Sprintf("tx-%d", len(p.callbacks)),
		Status:        models.PaymentStatusPending,
		Amount:        req.Amount,
		QRCode:        "000201-test",
		Source:        models.PixSourceFallback,
		Calendar:      models.PixCalendar{Expiration: pix.FallbackExpiration},
	}, nil
}

func (p *capturingPix) settle(ctx context.Context, i int) {
	p.mu.Lock()
	cb := p.callbacks[i]
	p.mu.Unlock()
	cb(ctx, pix.Result{Method: "pix", Status: models.PaymentStatusCompleted, TransactionID: fmt.Sprintf("tx-%d", i+1), QRCode: "000201-test"})
}

type fixture struct {
	svc   *CheckoutService
	carts *cart.CartService
	gdb   *gorm.DB
	pix   *capturingPix
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := db.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, gdb.AutoMigrate(models.All()...))

	store := kvstore.NewMemoryStore()
	m := metrics.New()
	carts := &cart.CartService{
		Store:    store,
		Products: stubCatalog{cpuID: {ID: cpuID, Name: "Processador Intel Core i5-12400F", Price: 899.99}},
		Metrics:  m,
	}
	p := &capturingPix{}
	svc := &CheckoutService{
		Store:   store,
		Carts:   carts,
		Orders:  &order.OrderService{Repo: &order.GormRepo{DB: gdb}, Metrics: m},
		Pix:     p,
		Metrics: m,
	}
	return &fixture{svc: svc, carts: carts, gdb: gdb, pix: p}
}

func (f *fixture) filledCart(t *testing.T) string {
	t.Helper()
	cartID := uuid.NewString()
	_, err := f.carts.AddItem(context.Background(), cartID, cpuID, 2)
	require.NoError(t, err)
	return cartID
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.gdb.Model(&models.Order{}).Count(&n).Error)
	return n
}

var validCustomer = Customer{Name: "Maria Silva", Email: "maria@example.com", CPF: "12345678909"}

func TestStatus_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Status(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestSubmitCustomer_RequiresAllFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.filledCart(t)

	tests := []struct {
		name string
		in   Customer
	}{
		{name: "missing name", in: Customer{Email: "a@b.c", CPF: "12345678909"}},
		{name: "blank email", in: Customer{Name: "Ana", Email: "   ", CPF: "12345678909"}},
		{name: "missing cpf", in: Customer{Name: "Ana", Email: "a@b.c"}},
		{name: "all empty", in: Customer{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitCustomer(ctx, cartID, tt.in)
			require.ErrorIs(t, err, ErrValidation)

			sess, _, err := f.svc.Status(ctx, cartID)
			require.NoError(t, err)
			assert.Equal(t, StepCollectingIdentity, sess.Step)
		})
	}

	_, _, err := f.svc.StartPix(ctx, cartID, Payer{Name: "Ana", CPF: "12345678909"})
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestSubmitCustomer_FormatsCPFAndAdvances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.filledCart(t)

	sess, err := f.svc.SubmitCustomer(ctx, cartID, validCustomer)
	require.NoError(t, err)
	assert.Equal(t, StepCollectingPayment, sess.Step)
	assert.Equal(t, "123.456.789-09", sess.Customer.CPF)

	edited := validCustomer
	edited.Name = "Maria S. Souza"
	sess, err = f.svc.SubmitCustomer(ctx, cartID, edited)
	require.NoError(t, err)
	assert.Equal(t, "Maria S. Souza", sess.Customer.Name)
}

func TestSubmitCustomer_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SubmitCustomer(context.Background(), uuid.NewString(), validCustomer)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestStartPix_ValidatesPayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.filledCart(t)
	_, err := f.svc.SubmitCustomer(ctx, cartID, validCustomer)
	require.NoError(t, err)

	_, _, err = f.svc.StartPix(ctx, cartID, Payer{Name: "", CPF: "12345678909"})
	require.ErrorIs(t, err, ErrValidation)
	_, _, err = f.svc.StartPix(ctx, cartID, Payer{Name: "Maria", CPF: "123.456"})
	require.ErrorIs(t, err, ErrValidation)

	charge, sess, err := f.svc.StartPix(ctx, cartID, Payer{Name: "Maria", CPF: "123.456.789-09"})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", sess.PixTransactionID)
	assert.InDelta(t, 1799.98, charge.Amount, 0.001)
	assert.Equal(t, cartID, f.pix.requests[0].Reference)
}

func TestCompletePayment_ClearsCartAndAppendsOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.filledCart(t)

	_, err := f.svc.SubmitCustomer(ctx, cartID, validCustomer)
	require.NoError(t, err)
	_, _, err = f.svc.StartPix(ctx, cartID, Payer{Name: "Maria", CPF: "12345678909"})
	require.NoError(t, err)
	require.Zero(t, f.orderCount(t))

	f.pix.settle(ctx, 0)

	assert.EqualValues(t, 1, f.orderCount(t))
	c, err := f.carts.GetCart(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Empty(t, c.Totals)

	sess, _, err := f.svc.Status(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, StepCompleted, sess.Step)

	var o models.Order
	require.NoError(t, f.gdb.First(&o, "id = ?", sess.OrderID).Error)
	assert.Equal(t, "123.456.789-09", o.CustomerCPF)
	assert.InDelta(t, 1799.98, o.Total, 0.001)
	assert.Equal(t, models.PaymentMethodPix, o.PaymentMethod)
	assert.Equal(t, models.PaymentStatusCompleted, o.PaymentStatus)
	require.Len(t, o.Items, 1)
	assert.EqualValues(t, 2, o.Items[0].Quantity)

	route, err := f.svc.CompletePayment(ctx, cartID, pix.Result{Method: "pix", Status: "completed", TransactionID: "tx-1"})
	require.NoError(t, err)
	assert.Equal(t, "/checkout/success?orderId="+sess.OrderID.String(), route)
	assert.EqualValues(t, 1, f.orderCount(t))
}

func TestStatus_RefilledCartStartsNewSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.filledCart(t)

	_, err := f.svc.SubmitCustomer(ctx, cartID, validCustomer)
	require.NoError(t, err)
	_, _, err = f.svc.StartPix(ctx, cartID, Payer{Name: "Maria", CPF: "12345678909"})
	require.NoError(t, err)
	f.pix.settle(ctx, 0)

	sess, _, err := f.svc.Status(ctx, cartID)
	require.NoError(t, err)
	require.Equal(t, StepCompleted, sess.Step)

	_, err = f.carts.AddItem(ctx, cartID, cpuID, 1)
	require.NoError(t, err)

	sess, c, err := f.svc.Status(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, StepCollectingIdentity, sess.Step)
	assert.Empty(t, sess.Customer.Name)
	assert.Empty(t, sess.PixTransactionID)
	assert.Equal(t, uuid.Nil, sess.OrderID)
	assert.InDelta(t, 899.99, c.Total(), 0.001)
}

func TestCompletePayment_IgnoresSupersededCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.filledCart(t)

	_, err := f.svc.SubmitCustomer(ctx, cartID, validCustomer)
	require.NoError(t, err)
	_, _, err = f.svc.StartPix(ctx, cartID, Payer{Name: "Maria", CPF: "12345678909"})
	require.NoError(t, err)
	_, sess, err := f.svc.StartPix(ctx, cartID, Payer{Name: "Maria", CPF: "12345678909"})
	require.NoError(t, err)
	require.Equal(t, "tx-2", sess.PixTransactionID)

	// tx-1 was replaced by tx-2 before it settled.
	f.pix.settle(ctx, 0)
	assert.Zero(t, f.orderCount(t))

	f.pix.settle(ctx, 1)
	require.EqualValues(t, 1, f.orderCount(t))
	first, _, err := f.svc.Status(ctx, cartID)
	require.NoError(t, err)
	require.Equal(t, StepCompleted, first.Step)

	_, err = f.carts.AddItem(ctx, cartID, cpuID, 1)
	require.NoError(t, err)
	_, err = f.svc.SubmitCustomer(ctx, cartID, validCustomer)
	require.NoError(t, err)

	route, err := f.svc.CompletePayment(ctx, cartID, pix.Result{Method: "pix", Status: models.PaymentStatusCompleted, TransactionID: "tx-1"})
	require.NoError(t, err)
	assert.Empty(t, route)
	assert.EqualValues(t, 1, f.orderCount(t))

	sess, c, err := f.svc.Status(ctx, cartID)
	require.NoError(t, err)
	assert.Equal(t, StepCollectingPayment, sess.Step)
	assert.Len(t, c.Items, 1)
}

// deleteFailingStore keeps carts from being cleared.
type deleteFailingStore struct {
	kvstore.Store
}

func (deleteFailingStore) Delete(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestCompletePayment_RecordsOrderWhenCartClearFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cartID := f.filledCart(t)

	store := deleteFailingStore{Store: f.svc.Store}
	f.svc.Store = store
	f.carts.Store = store

	_, err := f.svc.SubmitCustomer(ctx, cartID, validCustomer)
	require.NoError(t, err)
	_, _, err = f.svc.StartPix(ctx, cartID, Payer{Name: "Maria", CPF: "12345678909"})
	require.NoError(t, err)

	res := pix.Result{Method: "pix", Status: models.PaymentStatusCompleted, TransactionID: "tx-1"}
	route, err := f.svc.CompletePayment(ctx, cartID, res)
	require.NoError(t, err)
	require.NotEmpty(t, route)

	again, err := f.svc.CompletePayment(ctx, cartID, res)
	require.NoError(t, err)
	assert.Equal(t, route, again)
	assert.EqualValues(t, 1, f.orderCount(t))
}

func TestCompletePayment_BeforeIdentityIsRejected(t *testing.T) {
	f := newFixture(t)
	cartID := f.filledCart(t)

	_, err := f.svc.CompletePayment(context.Background(), cartID, pix.Result{Method: "pix", Status: "completed"})
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Zero(t, f.orderCount(t))
}

func TestCheckout_WithSimulator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sim := &pix.Simulator{Repo: &pix.GormRepo{DB: f.gdb}, CompletionDelay: 30 * time.Millisecond}
	t.Cleanup(sim.Close)
	f.svc.Pix = sim

	cartID := f.filledCart(t)
	_, err := f.svc.SubmitCustomer(ctx, cartID, validCustomer)
	require.NoError(t, err)
	charge, _, err := f.svc.StartPix(ctx, cartID, Payer{Name: "Maria Silva", CPF: "12345678909"})
	require.NoError(t, err)
	assert.Equal(t, models.PixSourceFallback, charge.Source)

	require.Eventually(t, func() bool { return f.orderCount(t) == 1 }, 2*time.Second, 10*time.Millisecond)

	var o models.Order
	require.NoError(t, f.gdb.First(&o).Error)
	require.NotNil(t, o.PixData)
	assert.Equal(t, charge.TransactionID, o.PixData.TransactionID)
	assert.Equal(t, charge.QRCode, o.PixData.QRCode)
}

func TestFormatCPF(t *testing.T) {
	assert.Equal(t, "123.456.789-09", FormatCPF("12345678909"))
	assert.Equal(t, "123.456.789-09", FormatCPF("123.456.789-09"))
	assert.Equal(t, "1234", FormatCPF(" 1234 "))
}

func TestCheckoutHTTP_Flow(t *testing.T) {
	f := newFixture(t)
	h := &CheckoutHTTP{Svc: f.svc}
	e := echo.New()
	cartID := f.filledCart(t)

	call := func(method, path, body string, fn echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("cartID")
		c.SetParamValues(cartID)
		return rec, fn(c)
	}

	_, err := call(http.MethodPost, "/checkout/"+cartID+"/pix", `{"name":"Maria","cpf":"12345678909"}`, h.StartPix)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusConflict, he.Code)

	_, err = call(http.MethodPost, "/checkout/"+cartID+"/customer", `{"name":"Maria","email":"","cpf":"12345678909"}`, h.SubmitCustomer)
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	rec, err := call(http.MethodPost, "/checkout/"+cartID+"/customer", `{"name":"Maria","email":"m@x.com","cpf":"12345678909"}`, h.SubmitCustomer)
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"step":"collecting_payment"`)

	rec, err = call(http.MethodPost, "/checkout/"+cartID+"/pix", `{"name":"Maria","cpf":"12345678909"}`, h.StartPix)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"countdown":"05:00"`)

	rec, err = call(http.MethodGet, "/checkout/"+cartID, "", h.GetStatus)
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"total":1799.98`)
}
