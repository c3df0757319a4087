package catalog

import (
	"context"

	"github.com/Skotchmaster/pc_shop/internal/models"
	"github.com/Skotchmaster/pc_shop/internal/transport"
)

func exampleProducts() []transport.ProductRequest {
	return []transport.ProductRequest{
		{
			Name:         "Processador Intel Core i5-12400F",
			Category:     "processador",
			Manufacturer: "Intel",
			Model:        "i5-12400F",
			Price:        899.99,
			Image:        "/images/cpu/i5-1.jpg",
			Image2:       "/images/cpu/i5-2.jpg",
			Warranty:     "3 anos",
			Promo:        false,
			Featured:     true,
			Specs: []models.Spec{
				{"Especificações Gerais": []any{"6 núcleos", "12 threads", "2.5 GHz base"}},
			},
			Tags: []string{"intel", "processador", "gaming"},
		},
	}
}

// Seed inserts the example catalog when the products table is empty and
// reports how many products were created.
func (s *CatalogService) Seed(ctx context.Context) (int, error) {
	n, err := s.Repo.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	created := 0
	for _, req := range exampleProducts() {
		if _, err := s.CreateProduct(ctx, req); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
