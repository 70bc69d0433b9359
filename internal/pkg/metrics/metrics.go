package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loanportal"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	onboardingRedirects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gatekeeper",
			Name:      "redirects_total",
			Help:      "Requests redirected to an onboarding step.",
		},
		[]string{"step"},
	)

	gatekeeperErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gatekeeper",
			Name:      "errors_total",
			Help:      "Onboarding checks that failed and let the request through.",
		},
	)

	emails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "messages_total",
			Help:      "Outbound emails by kind and delivery result.",
		},
		[]string{"kind", "result"},
	)

	loanDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loans",
			Name:      "decisions_total",
			Help:      "Staff decisions applied to loans and withdrawals.",
		},
		[]string{"entity", "action"},
	)

	withdrawalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "withdrawals",
			Name:      "requests_total",
			Help:      "Withdrawal submissions by outcome.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		onboardingRedirects,
		gatekeeperErrors,
		emails,
		loanDecisions,
		withdrawalRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry as a fiber route
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency per route template
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		if path == "" || (path == "/" && c.Path() != "/") {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Method())
		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// RecordRedirect counts a gatekeeper redirect to the given step
func RecordRedirect(step string) {
	onboardingRedirects.WithLabelValues(step).Inc()
}

// RecordGatekeeperError counts a swallowed onboarding check failure
func RecordGatekeeperError() {
	gatekeeperErrors.Inc()
}

// RecordEmail counts an email delivery attempt
func RecordEmail(kind, result string) {
	emails.WithLabelValues(kind, result).Inc()
}

// RecordDecision counts a staff decision
func RecordDecision(entity, action string) {
	loanDecisions.WithLabelValues(entity, action).Inc()
}

// RecordWithdrawal counts a withdrawal submission outcome
func RecordWithdrawal(result string) {
	withdrawalRequests.WithLabelValues(result).Inc()
}
