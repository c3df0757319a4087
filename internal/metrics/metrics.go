package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	ProductMutations *prometheus.CounterVec
	CartOperations   *prometheus.CounterVec
	CheckoutSteps    *prometheus.CounterVec
	PixCharges       *prometheus.CounterVec
	PixCompletions   prometheus.Counter
	OrdersCreated    prometheus.Counter
	OrdersTotalBRL   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		ProductMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "product_mutations_total",
			Help:      "Catalog mutations by operation.",
		}, []string{"op"}),
		CartOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_operations_total",
			Help:      "Cart operations by kind.",
		}, []string{"op"}),
		CheckoutSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_steps_total",
			Help:      "Checkout step transitions by target step.",
		}, []string{"step"}),
		PixCharges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "pix_charges_total",
			Help:      "Generated PIX charges by path (provider or fallback).",
		}, []string{"source"}),
		PixCompletions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "pix_completions_total",
			Help:      "PIX charges flipped to completed by the local timer.",
		}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_created_total",
			Help:      "Orders appended at checkout completion.",
		}),
		OrdersTotalBRL: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_amount_brl_total",
			Help:      "Sum of order totals in BRL.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ProductMutations,
		m.CartOperations,
		m.CheckoutSteps,
		m.PixCharges,
		m.PixCompletions,
		m.OrdersCreated,
		m.OrdersTotalBRL,
	)
	return m
}

func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
