package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentMethodPix = "pix"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

type OrderItem struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Quantity uint      `json:"quantity"`
}

type OrderPixData struct {
	TransactionID string `json:"transaction_id"`
	QRCode        string `json:"qrcode"`
	Status        string `json:"status"`
}

type Order struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey"        json:"id"`
	CustomerName  string        `gorm:"not null"                    json:"customer_name"`
	CustomerEmail string        `gorm:"not null"                    json:"customer_email"`
	CustomerCPF   string        `gorm:"not null"                    json:"customer_cpf"`
	Items         []OrderItem   `gorm:"type:text;serializer:json"   json:"items"`
	Total         float64       `gorm:"not null"                    json:"total"`
	PaymentMethod string        `gorm:"not null"                    json:"payment_method"`
	PaymentStatus string        `gorm:"not null"                    json:"payment_status"`
	PixData       *OrderPixData `gorm:"type:text;serializer:json"   json:"pix_data,omitempty"`
	CreatedAt     time.Time     `gorm:"index"                       json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}
