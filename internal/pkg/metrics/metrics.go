package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the signup flow counters.
type Metrics struct {
	registry     *prometheus.Registry
	checkouts    *prometheus.CounterVec
	webhooks     *prometheus.CounterVec
	provisioning *prometheus.CounterVec
}

// New registers the counters on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "suede",
			Name:      "checkout_sessions_total",
			Help:      "Checkout session requests by plan, period, trial and result.",
		}, []string{"plan", "period", "trial", "result"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "suede",
			Name:      "webhook_events_total",
			Help:      "Stripe webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		provisioning: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "suede",
			Name:      "provisioning_attempts_total",
			Help:      "Account provisioning attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.checkouts,
		m.webhooks,
		m.provisioning,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) CheckoutCreated(plan, period string, trial bool) {
	m.checkouts.WithLabelValues(plan, period, strconv.FormatBool(trial), "created").Inc()
}

func (m *Metrics) CheckoutFailed(reason string) {
	m.checkouts.WithLabelValues("", "", "", reason).Inc()
}

func (m *Metrics) WebhookReceived(eventType string, outcome string) {
	m.webhooks.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) ProvisioningResult(result string) {
	m.provisioning.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
