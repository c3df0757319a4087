package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pc_shop/internal/catalog"
	"github.com/Skotchmaster/pc_shop/internal/models"
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

var (
	cpuID = uuid.MustParse("7f0d5c2e-2b7a-4f0e-9b7d-1c2f7b1e0a01")
	ssdID = uuid.MustParse("7f0d5c2e-2b7a-4f0e-9b7d-1c2f7b1e0a02")
)

func testCatalog() stubCatalog {
	return stubCatalog{
		cpuID: {ID: cpuID, Name: "Processador Intel Core i5-12400F", Price: 899.99, Image: "/images/cpu/i5-1.jpg"},
		ssdID: {ID: ssdID, Name: "SSD Kingston 1TB", Price: 399.90},
	}
}

func stores(t *testing.T) map[string]kvstore.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]kvstore.Store{
		"redis":  kvstore.NewRedisStore(client, "storefront:"),
		"memory": kvstore.NewMemoryStore(),
	}
}

func TestCartService_AddRemoveClear(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			svc := &CartService{Store: store, Products: testCatalog(), TTL: time.Hour}
			ctx := context.Background()
			cartID := uuid.NewString()

			c, err := svc.GetCart(ctx, cartID)
			require.NoError(t, err)
			assert.True(t, c.Empty())
			assert.Zero(t, c.Total())

			_, err = svc.AddItem(ctx, cartID, cpuID, 1)
			require.NoError(t, err)
			_, err = svc.AddItem(ctx, cartID, cpuID, 0)
			require.NoError(t, err)
			c, err = svc.AddItem(ctx, cartID, ssdID, 1)
			require.NoError(t, err)

			require.Len(t, c.Items, 2)
			assert.EqualValues(t, 2, c.Items[0].Quantity)
			require.Len(t, c.Totals, 2)
			assert.InDelta(t, 2199.88, c.Total(), 0.001)

			c, err = svc.RemoveItem(ctx, cartID, cpuID)
			require.NoError(t, err)
			require.Len(t, c.Items, 1)
			require.Len(t, c.Totals, 1)
			assert.InDelta(t, 399.90, c.Total(), 0.001)

			_, err = svc.RemoveItem(ctx, cartID, cpuID)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, svc.Clear(ctx, cartID))
			c, err = svc.GetCart(ctx, cartID)
			require.NoError(t, err)
			assert.Empty(t, c.Items)
			assert.Empty(t, c.Totals)
		})
	}
}

func TestCartService_Validation(t *testing.T) {
	svc := &CartService{Store: kvstore.NewMemoryStore(), Products: testCatalog()}
	ctx := context.Background()

	_, err := svc.GetCart(ctx, "not-a-uuid")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddItem(ctx, uuid.NewString(), uuid.Nil, 1)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddItem(ctx, uuid.NewString(), uuid.New(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_AddItemQuantityBounds(t *testing.T) {
	svc := &CartService{Store: kvstore.NewMemoryStore(), Products: testCatalog()}
	ctx := context.Background()
	cartID := uuid.NewString()

	c, err := svc.AddItem(ctx, cartID, ssdID, -3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.Items[0].Quantity)

	_, err = svc.AddItem(ctx, cartID, ssdID, MaxQuantity)
	require.ErrorIs(t, err, ErrValidation)

	c, err = svc.AddItem(ctx, cartID, ssdID, MaxQuantity-1)
	require.NoError(t, err)
	assert.EqualValues(t, MaxQuantity, c.Items[0].Quantity)

	_, err = svc.AddItem(ctx, uuid.NewString(), ssdID, int(^uint(0)>>1))
	require.ErrorIs(t, err, ErrValidation)

	c, err = svc.GetCart(ctx, cartID)
	require.NoError(t, err)
	assert.EqualValues(t, MaxQuantity, c.Items[0].Quantity)
}

func TestCart_TotalComesFromPriceTotals(t *testing.T) {
	c := &Cart{
		Items:  []Item{{ProductID: cpuID, Price: 899.99, Quantity: 3}},
		Totals: []PriceTotal{{ProductID: cpuID, Value: 100}},
	}
	assert.Equal(t, 100.0, c.Total())
	assert.Equal(t, 100.0, NewView(c).Total)
}
