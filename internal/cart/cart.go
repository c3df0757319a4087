package cart

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Image     string    `json:"img"`
	Price     float64   `json:"price"`
	Quantity  uint      `json:"quantity"`
}

// PriceTotal is one entry of the price-total list kept next to the items.
type PriceTotal struct {
	ProductID uuid.UUID `json:"product_id"`
	Value     float64   `json:"valor_total"`
}

// Cart holds the items and, separately, the per-line totals the cart total is
// computed from. Both lists are written by the same operations but Total never
// looks at Items.
type Cart struct {
	ID        string       `json:"id"`
	Items     []Item       `json:"items"`
	Totals    []PriceTotal `json:"totals"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (c *Cart) Total() float64 {
	var sum float64
	for _, t := range c.Totals {
		sum += t.Value
	}
	return roundCents(sum)
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

func (c *Cart) itemIndex(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) setTotal(productID uuid.UUID, value float64) {
	for i := range c.Totals {
		if c.Totals[i].ProductID == productID {
			c.Totals[i].Value = value
			return
		}
	}
	c.Totals = append(c.Totals, PriceTotal{ProductID: productID, Value: value})
}

func (c *Cart) dropTotal(productID uuid.UUID) {
	for i := range c.Totals {
		if c.Totals[i].ProductID == productID {
			c.Totals = append(c.Totals[:i], c.Totals[i+1:]...)
			return
		}
	}
}

// View is the cart as returned to clients, with the computed total.
type View struct {
	*Cart
	Total float64 `json:"total"`
}

func NewView(c *Cart) View {
	return View{Cart: c, Total: c.Total()}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
