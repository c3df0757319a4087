package pix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Skotchmaster/pc_shop/internal/models"
)

const DefaultProviderURL = "https://api.pixupbr.com/v2/pix/qrcode"

var ErrProviderResponse = errors.New("pix provider: unusable response")

type ProviderRequest struct {
	Amount        float64          `json:"amount"`
	ExternalID    string           `json:"external_id"`
	PayerQuestion string           `json:"payerQuestion"`
	Payer         models.PixDebtor `json:"payer"`
}

// Provider issues QR charges at the external PIX gateway.
type Provider interface {
	CreateQRCode(ctx context.Context, creds *models.PixConfig, req ProviderRequest) (*models.PixCharge, error)
}

// HTTPProvider talks to the gateway over HTTP with Basic auth. Calls are
// never retried; a tripped breaker short-circuits straight to the fallback.
type HTTPProvider struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*models.PixCharge]
}

func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	if url == "" {
		url = DefaultProviderURL
	}
	return &HTTPProvider{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*models.PixCharge](gobreaker.Settings{
			Name:        "pix-provider",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (p *HTTPProvider) CreateQRCode(ctx context.Context, creds *models.PixConfig, req ProviderRequest) (*models.PixCharge, error) {
	return p.breaker.Execute(func() (*models.PixCharge, error) {
		return p.do(ctx, creds, req)
	})
}

func (p *HTTPProvider) do(ctx context.Context, creds *models.PixConfig, req ProviderRequest) (*models.PixCharge, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(creds.ClientID, creds.ClientSecret)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pix provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("pix provider returned status %d", resp.StatusCode)
	}

	var charge models.PixCharge
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, fmt.Errorf("decode pix provider response: %w", err)
	}
	if charge.TransactionID == "" || charge.QRCode == "" {
		return nil, ErrProviderResponse
	}
	return &charge, nil
}
