package pix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pc_shop/internal/metrics"
	"github.com/Skotchmaster/pc_shop/internal/models"
	"github.com/Skotchmaster/pc_shop/internal/mykafka"
	"github.com/Skotchmaster/pc_shop/pkg/logging"
)

const (
	DefaultCompletionDelay = 30 * time.Second
	callbackTimeout        = 10 * time.Second
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("pix charge not found")
	ErrClosed     = errors.New("pix simulator is closed")
)

type ConfigSource interface {
	Get(ctx context.Context) (*models.PixConfig, error)
}

type ChargeRequest struct {
	Amount    float64
	PayerName string
	PayerCPF  string
	Reference string
}

// Result is what the completion callback receives once a charge is settled.
type Result struct {
	Method        string `json:"method"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	QRCode        string `json:"qrcode"`
}

type CompletionFunc func(ctx context.Context, res Result)

// Simulator issues PIX charges and settles every one of them locally after
// CompletionDelay, whether the QR code came from the provider or the fallback.
type Simulator struct {
	Config          ConfigSource
	Provider        Provider
	Repo            *GormRepo
	Events          mykafka.Publisher
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	CompletionDelay time.Duration

	now func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

func (s *Simulator) Generate(ctx context.Context, req ChargeRequest, onComplete CompletionFunc) (*models.PixCharge, error) {
	l := logging.FromContext(ctx).With("component", "pix.simulator")

	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", ErrValidation)
	}
	doc := OnlyDigits(req.PayerCPF)
	name := strings.TrimSpace(req.PayerName)
	externalID := uuid.NewString()

	charge := s.fromProvider(ctx, l, req.Amount, name, doc, externalID)
	if charge == nil {
		charge = s.fallback(req.Amount, name, doc, externalID)
	}
	charge.Reference = req.Reference
	charge.Status = models.PaymentStatusPending
	charge.CompletedAt = nil

	err := s.Repo.CreateCharge(ctx, charge)
	if err != nil && charge.Source == models.PixSourceProvider {
		// e.g. the provider reused a transaction id we already stored
		l.Warn("pix_charge_save_error", "reason", "using fallback", "transaction_id", charge.TransactionID, "error", err)
		charge = s.fallback(req.Amount, name, doc, externalID)
		charge.Reference = req.Reference
		charge.Status = models.PaymentStatusPending
		err = s.Repo.CreateCharge(ctx, charge)
	}
	if err != nil {
		return nil, fmt.Errorf("save pix charge: %w", err)
	}
	if s.Metrics != nil {
		s.Metrics.PixCharges.WithLabelValues(charge.Source).Inc()
	}
	s.publish(ctx, "pix_charge_created", charge)

	if err := s.schedule(charge.TransactionID, charge.QRCode, onComplete); err != nil {
		return nil, err
	}

	l.Info("pix_charge_created", "transaction_id", charge.TransactionID, "source", charge.Source, "amount", charge.Amount)
	return charge, nil
}

// fromProvider returns nil whenever the charge must be fabricated locally:
// no usable config, or any provider failure.
func (s *Simulator) fromProvider(ctx context.Context, l *slog.Logger, amount float64, name, doc, externalID string) *models.PixCharge {
	if s.Config == nil || s.Provider == nil {
		return nil
	}
	cfg, err := s.Config.Get(ctx)
	if err != nil {
		l.Warn("pix_config_error", "reason", "using fallback", "error", err)
		return nil
	}
	if !cfg.Usable() {
		l.Debug("pix_provider_skipped", "reason", "config inactive or incomplete")
		return nil
	}

	charge, err := s.Provider.CreateQRCode(ctx, cfg, ProviderRequest{
		Amount:        amount,
		ExternalID:    externalID,
		PayerQuestion: "Pagamento PC Shop - Pedido " + externalID[len(externalID)-8:],
		Payer:         models.PixDebtor{Name: name, Document: doc},
	})
	if err != nil {
		l.Warn("pix_provider_error", "reason", "using fallback", "error", err)
		return nil
	}

	charge.Source = models.PixSourceProvider
	if charge.ExternalID == "" {
		charge.ExternalID = externalID
	}
	if charge.Amount == 0 {
		charge.Amount = amount
	}
	if charge.Calendar.Expiration <= 0 {
		charge.Calendar.Expiration = FallbackExpiration
	}
	if charge.Calendar.DueDate.IsZero() {
		charge.Calendar.DueDate = s.clock().Add(time.Duration(charge.Calendar.Expiration) * time.Second)
	}
	if charge.Debtor.Name == "" {
		charge.Debtor = models.PixDebtor{Name: name, Document: doc}
	}
	return charge
}

func (s *Simulator) fallback(amount float64, name, doc, externalID string) *models.PixCharge {
	return &models.PixCharge{
		TransactionID: uuid.NewString(),
		ExternalID:    externalID,
		Amount:        amount,
		Calendar: models.PixCalendar{
			Expiration: FallbackExpiration,
			DueDate:    s.clock().Add(FallbackExpiration * time.Second),
		},
		Debtor: models.PixDebtor{Name: name, Document: doc},
		QRCode: FallbackPayload(uuid.New(), amount, name),
		Source: models.PixSourceFallback,
	}
}

func (s *Simulator) schedule(txID, qrcode string, onComplete CompletionFunc) error {
	delay := s.CompletionDelay
	if delay <= 0 {
		delay = DefaultCompletionDelay
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.timers == nil {
		s.timers = make(map[string]*time.Timer)
	}

	s.wg.Add(1)
	s.timers[txID] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.complete(txID, qrcode, onComplete)
	})
	return nil
}

func (s *Simulator) complete(txID, qrcode string, onComplete CompletionFunc) {
	s.mu.Lock()
	delete(s.timers, txID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()
	l := s.logger().With("component", "pix.simulator", "transaction_id", txID)
	ctx = logging.IntoContext(ctx, l)

	changed, err := s.Repo.MarkCompleted(ctx, txID, s.clock())
	if err != nil {
		l.Error("pix_complete_error", "error", err)
	}
	if changed {
		if s.Metrics != nil {
			s.Metrics.PixCompletions.Inc()
		}
		s.publish(ctx, "pix_charge_completed", &models.PixCharge{TransactionID: txID, Status: models.PaymentStatusCompleted})
	}

	if onComplete != nil {
		onComplete(ctx, Result{
			Method:        models.PaymentMethodPix,
			Status:        models.PaymentStatusCompleted,
			TransactionID: txID,
			QRCode:        qrcode,
		})
	}
}

// Charge returns the stored charge together with the seconds left until it
// expires.
func (s *Simulator) Charge(ctx context.Context, txID string) (*ChargeView, error) {
	charge, err := s.Repo.GetCharge(ctx, txID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("charge %s: %w", txID, ErrNotFound)
		}
		return nil, err
	}
	return newChargeView(charge, s.clock()), nil
}

// Close stops every pending completion timer and waits for callbacks that
// already started.
func (s *Simulator) Close() {
	s.mu.Lock()
	s.closed = true
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Simulator) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

type paymentEvent struct {
	Type          string    `json:"type"`
	TransactionID string    `json:"transactionID"`
	Reference     string    `json:"reference,omitempty"`
	Source        string    `json:"source,omitempty"`
	Amount        float64   `json:"amount,omitempty"`
	At            time.Time `json:"at"`
}

func (s *Simulator) publish(ctx context.Context, kind string, charge *models.PixCharge) {
	if s.Events == nil {
		return
	}
	ev := paymentEvent{
		Type:          kind,
		TransactionID: charge.TransactionID,
		Reference:     charge.Reference,
		Source:        charge.Source,
		Amount:        charge.Amount,
		At:            s.clock().UTC(),
	}
	if err := s.Events.PublishEvent(ctx, mykafka.TopicPaymentEvents, charge.TransactionID, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "type", kind, "error", err)
	}
}

func (s *Simulator) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func (s *Simulator) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

type ChargeView struct {
	*models.PixCharge
	TimeLeft  int    `json:"time_left"`
	Countdown string `json:"countdown"`
}

func newChargeView(charge *models.PixCharge, now time.Time) *ChargeView {
	left := int(charge.Calendar.DueDate.Sub(now).Seconds())
	if left < 0 || charge.Status == models.PaymentStatusCompleted {
		left = 0
	}
	return &ChargeView{PixCharge: charge, TimeLeft: left, Countdown: FormatCountdown(left)}
}

// FormatCountdown renders seconds as mm:ss.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
