package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Spec is one loosely typed specification group, e.g.
// {"Especificações Gerais": ["6 núcleos", "12 threads"]}.
type Spec map[string]any

type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Name         string    `gorm:"not null"                      json:"name"`
	Category     string    `gorm:"index"                         json:"category"`
	Manufacturer string    `                                     json:"manufacturer"`
	Model        string    `                                     json:"model"`
	Price        float64   `gorm:"not null"                      json:"price"`
	Image        string    `                                     json:"img"`
	Image2       string    `                                     json:"img2"`
	Slug         string    `gorm:"index"                         json:"slug"`
	Warranty     string    `                                     json:"warranty"`
	Promo        bool      `gorm:"default:false"                 json:"promo"`
	Featured     bool      `gorm:"default:false"                 json:"featured"`
	Specs        []Spec    `gorm:"type:text;serializer:json"     json:"specs"`
	Tags         []string  `gorm:"type:text;serializer:json"     json:"tags"`
	CreatedAt    time.Time `                                     json:"created_at"`
	UpdatedAt    time.Time `                                     json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string {
	return "products"
}
