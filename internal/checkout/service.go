package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/pc_shop/internal/cart"
	"github.com/Skotchmaster/pc_shop/internal/metrics"
	"github.com/Skotchmaster/pc_shop/internal/models"
	"github.com/Skotchmaster/pc_shop/internal/mykafka"
	"github.com/Skotchmaster/pc_shop/internal/order"
	"github.com/Skotchmaster/pc_shop/internal/pix"
	"github.com/Skotchmaster/pc_shop/pkg/kvstore"
	"github.com/Skotchmaster/pc_shop/pkg/logging"
)

var (
	ErrValidation        = errors.New("validation")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrIllegalTransition = errors.New("illegal checkout transition")
)

const keyPrefix = "checkout:"

type PixIssuer interface {
	Generate(ctx context.Context, req pix.ChargeRequest, onComplete pix.CompletionFunc) (*models.PixCharge, error)
}

// CheckoutService walks a cart through identity, payment and completion.
// A session is keyed by the cart id and lives next to the cart in the store.
type CheckoutService struct {
	Store   kvstore.Store
	Carts   *cart.CartService
	Orders  *order.OrderService
	Pix     PixIssuer
	Events  mykafka.Publisher
	Metrics *metrics.Metrics
	TTL     time.Duration

	mu sync.Mutex
}

// Status returns the session for cartID, starting one if needed. A completed
// session is kept until the cart is filled again.
func (s *CheckoutService) Status(ctx context.Context, cartID string) (*Session, *cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, c, err := s.open(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	if sess.Step != StepCompleted && c.Empty() {
		return nil, nil, ErrEmptyCart
	}
	return sess, c, nil
}

func (s *CheckoutService) SubmitCustomer(ctx context.Context, cartID string, in Customer) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, c, err := s.open(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}
	if sess.Step == StepCompleted {
		return nil, fmt.Errorf("session already completed: %w", ErrIllegalTransition)
	}

	cust := Customer{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		CPF:   strings.TrimSpace(in.CPF),
	}
	if !cust.complete() {
		return nil, fmt.Errorf("name, email and cpf are required: %w", ErrValidation)
	}
	cust.CPF = FormatCPF(cust.CPF)

	sess.Customer = cust
	sess.Step = StepCollectingPayment
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.countStep(sess.Step)
	return sess, nil
}

type Payer struct {
	Name string
	CPF  string
}

// StartPix issues a PIX charge for the cart total. The charge settles on its
// own and completes the checkout through CompletePayment.
func (s *CheckoutService) StartPix(ctx context.Context, cartID string, payer Payer) (*models.PixCharge, *Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, c, err := s.open(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	if sess.Step != StepCollectingPayment {
		return nil, nil, fmt.Errorf("pix from %s: %w", sess.Step, ErrIllegalTransition)
	}
	if c.Empty() {
		return nil, nil, ErrEmptyCart
	}

	name := strings.TrimSpace(payer.Name)
	if name == "" {
		return nil, nil, fmt.Errorf("payer name is required: %w", ErrValidation)
	}
	if len(pix.OnlyDigits(payer.CPF)) != 11 {
		return nil, nil, fmt.Errorf("payer cpf must have 11 digits: %w", ErrValidation)
	}

	charge, err := s.Pix.Generate(ctx, pix.ChargeRequest{
		Amount:    c.Total(),
		PayerName: name,
		PayerCPF:  payer.CPF,
		Reference: cartID,
	}, func(ctx context.Context, res pix.Result) {
		if _, err := s.CompletePayment(ctx, cartID, res); err != nil {
			logging.FromContext(ctx).Error("complete_payment_error", "cart_id", cartID, "error", err)
		}
	})
	if err != nil {
		if errors.Is(err, pix.ErrValidation) {
			return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, nil, err
	}

	sess.PixTransactionID = charge.TransactionID
	if err := s.save(ctx, sess); err != nil {
		return nil, nil, err
	}
	return charge, sess, nil
}

type orderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"orderID"`
	Total         float64   `json:"total"`
	Items         int       `json:"items"`
	PaymentMethod string    `json:"paymentMethod"`
	TransactionID string    `json:"transactionID"`
	At            time.Time `json:"at"`
}

// CompletePayment turns the cart into an order, clears the cart and returns
// the confirmation route. Completing an already completed session returns the
// route of the order created the first time. A result for any charge other
// than the session's current one is ignored and yields an empty route.
func (s *CheckoutService) CompletePayment(ctx context.Context, cartID string, res pix.Result) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(ctx, cartID)
	if err != nil {
		return "", err
	}
	if sess.Step == StepCompleted {
		return ConfirmationRoute(sess.OrderID), nil
	}
	if res.TransactionID != sess.PixTransactionID {
		logging.FromContext(ctx).Warn("stale_pix_completion", "cart_id", cartID,
			"transaction_id", res.TransactionID, "current_transaction_id", sess.PixTransactionID)
		return "", nil
	}
	if sess.Step != StepCollectingPayment {
		return "", fmt.Errorf("complete from %s: %w", sess.Step, ErrIllegalTransition)
	}

	c, err := s.Carts.GetCart(ctx, cartID)
	if err != nil {
		return "", err
	}
	if c.Empty() {
		return "", ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, models.OrderItem{ID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}

	created, err := s.Orders.CreateOrder(ctx, &models.Order{
		CustomerName:  sess.Customer.Name,
		CustomerEmail: sess.Customer.Email,
		CustomerCPF:   sess.Customer.CPF,
		Items:         items,
		Total:         c.Total(),
		PaymentMethod: res.Method,
		PaymentStatus: res.Status,
		PixData: &models.OrderPixData{
			TransactionID: res.TransactionID,
			QRCode:        res.QRCode,
			Status:        res.Status,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}

	sess.Step = StepCompleted
	sess.OrderID = created.ID
	if err := s.save(ctx, sess); err != nil {
		return "", err
	}
	s.countStep(sess.Step)

	if err := s.Carts.Clear(ctx, cartID); err != nil {
		logging.FromContext(ctx).Error("clear_cart_error", "cart_id", cartID, "order_id", created.ID, "error", err)
	}

	if s.Events != nil {
		ev := orderEvent{
			Type:          "order_created",
			OrderID:       created.ID.String(),
			Total:         created.Total,
			Items:         len(created.Items),
			PaymentMethod: created.PaymentMethod,
			TransactionID: res.TransactionID,
			At:            time.Now().UTC(),
		}
		if err := s.Events.PublishEvent(ctx, mykafka.TopicOrderEvents, ev.OrderID, ev); err != nil {
			logging.FromContext(ctx).Warn("publish_event_error", "type", ev.Type, "error", err)
		}
	}

	logging.FromContext(ctx).Info("checkout_completed", "cart_id", cartID, "order_id", created.ID, "total", created.Total)
	return ConfirmationRoute(created.ID), nil
}

// open loads the session and cart. A completed session whose cart has been
// filled again is replaced by a fresh one.
func (s *CheckoutService) open(ctx context.Context, cartID string) (*Session, *cart.Cart, error) {
	c, err := s.Carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.load(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	if sess.Step == StepCompleted && !c.Empty() {
		sess = newSession(cartID)
	}
	return sess, c, nil
}

func (s *CheckoutService) load(ctx context.Context, cartID string) (*Session, error) {
	var sess Session
	err := s.Store.Get(ctx, keyPrefix+cartID, &sess)
	if errors.Is(err, kvstore.ErrMiss) {
		return newSession(cartID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}
	return &sess, nil
}

func (s *CheckoutService) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	if err := s.Store.Set(ctx, keyPrefix+sess.CartID, sess, s.TTL); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

func (s *CheckoutService) countStep(step Step) {
	if s.Metrics != nil {
		s.Metrics.CheckoutSteps.WithLabelValues(string(step)).Inc()
	}
}
