// Package metrics registers gateway-level Prometheus collectors that do not
// belong to any one request path.
package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes the gateway's database pool statistics as
// Prometheus gauges under gateway_db_pool_*.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	gauges := []struct {
		name string
		help string
		read func(*pgxpool.Stat) int32
	}{
		{"acquired_conns", "Connections currently acquired from the pool", (*pgxpool.Stat).AcquiredConns},
		{"idle_conns", "Idle connections in the pool", (*pgxpool.Stat).IdleConns},
		{"total_conns", "Total connections in the pool", (*pgxpool.Stat).TotalConns},
		{"max_conns", "Configured connection ceiling", (*pgxpool.Stat).MaxConns},
	}

	for _, g := range gauges {
		read := g.read
		prometheus.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "gateway",
			Subsystem: "db_pool",
			Name:      g.name,
			Help:      g.help,
		}, func() float64 {
			return float64(read(pool.Stat()))
		}))
	}
}
