package models

import "time"

const (
	PixSourceProvider = "provider"
	PixSourceFallback = "fallback"
)

type PixCalendar struct {
	Expiration int       `json:"expiration"`
	DueDate    time.Time `json:"dueDate"`
}

type PixDebtor struct {
	Name     string `json:"name"`
	Document string `json:"document"`
}

// PixCharge is a generated PIX QR charge. Status only ever moves from pending
// to completed, and only by the local completion timer.
type PixCharge struct {
	TransactionID string      `gorm:"primaryKey"                 json:"transactionId"`
	ExternalID    string      `gorm:"index"                      json:"external_id"`
	Status        string      `gorm:"not null"                   json:"status"`
	Amount        float64     `gorm:"not null"                   json:"amount"`
	Calendar      PixCalendar `gorm:"type:text;serializer:json"  json:"calendar"`
	Debtor        PixDebtor   `gorm:"type:text;serializer:json"  json:"debtor"`
	QRCode        string      `gorm:"type:text"                  json:"qrcode"`
	Source        string      `gorm:"not null"                   json:"source"`
	Reference     string      `gorm:"index"                      json:"reference"`
	CompletedAt   *time.Time  `                                  json:"completed_at,omitempty"`
	CreatedAt     time.Time   `                                  json:"created_at"`
}

func (PixCharge) TableName() string {
	return "pix_charges"
}

// PixConfig holds the provider credentials. There is a single row with ID 1.
type PixConfig struct {
	ID           uint      `gorm:"primaryKey"       json:"-"`
	IsActive     bool      `gorm:"default:false"    json:"isActive"`
	ClientID     string    `                        json:"clientId"`
	ClientSecret string    `                        json:"clientSecret"`
	UpdatedAt    time.Time `                        json:"updated_at"`
}

func (PixConfig) TableName() string {
	return "pix_configs"
}

// Usable reports whether the provider path may be attempted.
func (c *PixConfig) Usable() bool {
	return c != nil && c.IsActive && c.ClientID != "" && c.ClientSecret != ""
}

func All() []any {
	return []any{&Product{}, &Order{}, &PixCharge{}, &PixConfig{}}
}
