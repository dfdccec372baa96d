package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts failed Redis commands by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marketplace_redis_errors_total",
	Help: "Total number of failed Redis commands",
}, []string{"command"})

// RateLimitRejections counts requests rejected by the submission rate limiter.
var RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "marketplace_rate_limit_rejections_total",
	Help: "Requests rejected by the rate limiter",
}, []string{"resource"})

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// InitMetrics builds the HTTP metrics collector for the service.
// Collectors register once per process; later calls return the same instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.NewWithRegistry(prometheus.DefaultRegisterer, serviceName, "http", "", nil)
	})
	return promInstance
}

// MetricsMiddleware records request counts and latencies. The /metrics route itself is skipped.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	handler := prom.Middleware
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		return handler(c)
	}
}
