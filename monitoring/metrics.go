package monitoring

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	ordersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total order allocations per event and result",
		},
		[]string{"event_id", "status"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Total tickets issued per event",
		},
		[]string{"event_id"},
	)

	ticketValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_validations_total",
			Help: "Total ticket validation attempts per event and outcome",
		},
		[]string{"event_id", "outcome"},
	)

	allocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_allocation_duration_seconds",
			Help:    "Duration of order allocations",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"status"},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
	)

	redisPoolStats = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "redis_pool_connections",
			Help: "Redis connection pool statistics",
		},
		[]string{"stat"},
	)
)

// TrackAllocation counts one allocation attempt.
func TrackAllocation(eventID, status string) {
	ordersCreated.WithLabelValues(eventID, status).Inc()
}

// TrackTicketsIssued counts tickets created by a successful allocation.
func TrackTicketsIssued(eventID string, count int) {
	ticketsIssued.WithLabelValues(eventID).Add(float64(count))
}

// TrackValidation counts one redemption attempt by outcome.
func TrackValidation(eventID, outcome string) {
	ticketValidations.WithLabelValues(eventID, outcome).Inc()
}

// ObserveAllocation records how long an allocation took.
func ObserveAllocation(status string, duration time.Duration) {
	allocationDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// Monitor periodically samples process and Redis pool health.
type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	return &Monitor{redis: redisClient}
}

func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect()
		}
	}
}

func (m *Monitor) collect() {
	goroutineCount.Set(float64(runtime.NumGoroutine()))

	if m.redis != nil {
		stats := m.redis.PoolStats()
		redisPoolStats.WithLabelValues("hits").Set(float64(stats.Hits))
		redisPoolStats.WithLabelValues("misses").Set(float64(stats.Misses))
		redisPoolStats.WithLabelValues("total_conns").Set(float64(stats.TotalConns))
		redisPoolStats.WithLabelValues("idle_conns").Set(float64(stats.IdleConns))
	}
}
