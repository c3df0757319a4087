package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/pc_shop/internal/models"
)

// ProductRequest is the full editable product form. Create and update both
// take every field; there is no partial update.
type ProductRequest struct {
	Name         string        `json:"name"`
	Category     string        `json:"category"`
	Manufacturer string        `json:"manufacturer"`
	Model        string        `json:"model"`
	Price        float64       `json:"price"`
	Image        string        `json:"img"`
	Image2       string        `json:"img2"`
	Slug         string        `json:"slug"`
	Warranty     string        `json:"warranty"`
	Promo        bool          `json:"promo"`
	Featured     bool          `json:"featured"`
	Specs        []models.Spec `json:"specs"`
	Tags         []string      `json:"tags"`
}

type ProductFilter struct {
	Category string
	Tag      string
	Promo    *bool
	Featured *bool
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
}

type PixPayerRequest struct {
	Name string `json:"name"`
	CPF  string `json:"cpf"`
}

type PixConfigRequest struct {
	IsActive     bool   `json:"isActive"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
