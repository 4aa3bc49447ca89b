package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// poolStatsCollector exports pgxpool connection statistics as Prometheus metrics.
type poolStatsCollector struct {
	pool    *pgxpool.Pool
	service string

	acquiredConns *prometheus.Desc
	idleConns     *prometheus.Desc
	totalConns    *prometheus.Desc
	maxConns      *prometheus.Desc
	acquireCount  *prometheus.Desc
	emptyAcquires *prometheus.Desc
}

// RegisterPoolMetrics registers a collector exposing pool statistics under
// db_pool_* metric names, labeled with the service name.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	labels := []string{"service"}
	c := &poolStatsCollector{
		pool:    pool,
		service: service,
		acquiredConns: prometheus.NewDesc(
			"db_pool_acquired_connections", "Number of currently acquired connections", labels, nil),
		idleConns: prometheus.NewDesc(
			"db_pool_idle_connections", "Number of currently idle connections", labels, nil),
		totalConns: prometheus.NewDesc(
			"db_pool_total_connections", "Total number of connections in the pool", labels, nil),
		maxConns: prometheus.NewDesc(
			"db_pool_max_connections", "Maximum number of connections allowed", labels, nil),
		acquireCount: prometheus.NewDesc(
			"db_pool_acquire_count_total", "Cumulative number of successful acquires", labels, nil),
		emptyAcquires: prometheus.NewDesc(
			"db_pool_empty_acquire_count_total", "Cumulative number of acquires that waited for a connection", labels, nil),
	}
	prometheus.MustRegister(c)
}

func (c *poolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.totalConns
	ch <- c.maxConns
	ch <- c.acquireCount
	ch <- c.emptyAcquires
}

func (c *poolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(stats.AcquiredConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(stats.IdleConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(stats.TotalConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(stats.MaxConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(stats.AcquireCount()), c.service)
	ch <- prometheus.MustNewConstMetric(c.emptyAcquires, prometheus.CounterValue, float64(stats.EmptyAcquireCount()), c.service)
}
