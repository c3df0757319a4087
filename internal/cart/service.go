package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/pc_shop/internal/catalog"
	"github.com/Skotchmaster/pc_shop/internal/metrics"
	"github.com/Skotchmaster/pc_shop/internal/models"
	"github.com/Skotchmaster/pc_shop/pkg/kvstore"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

const keyPrefix = "cart:"

// MaxQuantity bounds the units of a single product held in one cart.
const MaxQuantity = 999

type ProductLookup interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type CartService struct {
	Store    kvstore.Store
	Products ProductLookup
	TTL      time.Duration
	Metrics  *metrics.Metrics

	mu sync.Mutex
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*Cart, error) {
	if err := checkID(cartID); err != nil {
		return nil, err
	}
	return s.load(ctx, cartID)
}

// AddItem puts quantity units of a catalog product in the cart. A quantity
// below one counts as one.
func (s *CartService) AddItem(ctx context.Context, cartID string, productID uuid.UUID, quantity int) (*Cart, error) {
	if err := checkID(cartID); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product id must be not nil: %w", ErrValidation)
	}
	if quantity < 1 {
		quantity = 1
	}
	if quantity > MaxQuantity {
		return nil, fmt.Errorf("at most %d units per product: %w", MaxQuantity, ErrValidation)
	}

	prod, err := s.Products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	i := c.itemIndex(productID)
	if i < 0 {
		c.Items = append(c.Items, Item{
			ProductID: prod.ID,
			Name:      prod.Name,
			Image:     prod.Image,
			Price:     prod.Price,
		})
		i = len(c.Items) - 1
	}
	if int(c.Items[i].Quantity)+quantity > MaxQuantity {
		return nil, fmt.Errorf("at most %d units per product: %w", MaxQuantity, ErrValidation)
	}
	c.Items[i].Quantity += uint(quantity)
	c.setTotal(productID, roundCents(c.Items[i].Price*float64(c.Items[i].Quantity)))

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.count("add")
	return c, nil
}

func (s *CartService) RemoveItem(ctx context.Context, cartID string, productID uuid.UUID) (*Cart, error) {
	if err := checkID(cartID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	i := c.itemIndex(productID)
	if i < 0 {
		return nil, fmt.Errorf("product %s not in cart: %w", productID, ErrNotFound)
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.dropTotal(productID)

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.count("remove")
	return c, nil
}

// Clear empties both the items and the price-total list.
func (s *CartService) Clear(ctx context.Context, cartID string) error {
	if err := checkID(cartID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Store.Delete(ctx, keyPrefix+cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.count("clear")
	return nil
}

func (s *CartService) load(ctx context.Context, cartID string) (*Cart, error) {
	var c Cart
	err := s.Store.Get(ctx, keyPrefix+cartID, &c)
	if errors.Is(err, kvstore.ErrMiss) {
		return &Cart{ID: cartID, Items: []Item{}, Totals: []PriceTotal{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	if c.Totals == nil {
		c.Totals = []PriceTotal{}
	}
	return &c, nil
}

func (s *CartService) save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = time.Now().UTC()
	if err := s.Store.Set(ctx, keyPrefix+c.ID, c, s.TTL); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *CartService) count(op string) {
	if s.Metrics != nil {
		s.Metrics.CartOperations.WithLabelValues(op).Inc()
	}
}

func checkID(cartID string) error {
	if strings.TrimSpace(cartID) == "" {
		return fmt.Errorf("cart id is required: %w", ErrValidation)
	}
	if _, err := uuid.Parse(cartID); err != nil {
		return fmt.Errorf("cart id must be a uuid: %w", ErrValidation)
	}
	return nil
}
