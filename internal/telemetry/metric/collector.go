package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CountFunc returns the number of stored records of one kind.
type CountFunc func(ctx context.Context) (int, error)

// StoreCollector reports the number of stored tokens per kind at scrape
// time. Stored counts include expired tokens not yet swept.
type StoreCollector struct {
	desc    *prometheus.Desc
	sources map[string]CountFunc
	timeout time.Duration
}

// NewStoreCollector creates a collector over the given kind -> count sources.
func NewStoreCollector(sources map[string]CountFunc) *StoreCollector {
	return &StoreCollector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "tokens", "stored"),
			"Tokens currently held by the store, by kind.",
			[]string{"kind"}, nil,
		),
		sources: sources,
		timeout: 5 * time.Second,
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector. Kinds whose count fails are
// omitted from the scrape.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	for kind, count := range c.sources {
		n, err := count(ctx)
		if err != nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), kind)
	}
}
