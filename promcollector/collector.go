// Package promcollector exports table metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, err := promcollector.New(promcollector.WithRegisterer(reg))
//	if err != nil {
//		return err
//	}
//	tbl, err := cqltable.NewPlainTable(ctx, session, "docs", cqltable.WithMetricsCollector(mc))
package promcollector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/cqltable"
)

// Option configures a Collector.
type Option func(*options)

type options struct {
	namespace   string
	registerer  prometheus.Registerer
	constLabels prometheus.Labels
	buckets     []float64
}

// WithNamespace sets the metric namespace. Defaults to "cqltable".
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithRegisterer selects the registry. Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithConstLabels attaches fixed labels, e.g. the table name.
func WithConstLabels(l prometheus.Labels) Option {
	return func(o *options) { o.constLabels = l }
}

// WithBuckets sets the latency histogram buckets.
func WithBuckets(b []float64) Option {
	return func(o *options) { o.buckets = b }
}

// Collector implements cqltable.MetricsCollector with Prometheus metrics.
type Collector struct {
	latency *prometheus.HistogramVec
	ops     *prometheus.CounterVec
	rows    *prometheus.CounterVec
}

var _ cqltable.MetricsCollector = (*Collector)(nil)

// New creates and registers a Collector.
func New(optFns ...Option) (*Collector, error) {
	o := options{
		namespace:  "cqltable",
		registerer: prometheus.DefaultRegisterer,
		buckets:    prometheus.DefBuckets,
	}
	for _, fn := range optFns {
		fn(&o)
	}

	c := &Collector{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   o.namespace,
			Name:        "operation_latency_seconds",
			Help:        "Latency of table operations",
			Buckets:     o.buckets,
			ConstLabels: o.constLabels,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "operations_total",
			Help:        "Total table operations",
			ConstLabels: o.constLabels,
		}, []string{"op", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "rows_total",
			Help:        "Rows returned by reads and removed by deletes",
			ConstLabels: o.constLabels,
		}, []string{"op"}),
	}
	for _, m := range []prometheus.Collector{c.latency, c.ops, c.rows} {
		if err := o.registerer.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.latency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, s).Inc()
}

// RecordWrite implements cqltable.MetricsCollector.
func (c *Collector) RecordWrite(d time.Duration, err error) {
	c.observe("write", d, err)
}

// RecordRead implements cqltable.MetricsCollector.
func (c *Collector) RecordRead(rows int, d time.Duration, err error) {
	c.observe("read", d, err)
	c.rows.WithLabelValues("read").Add(float64(rows))
}

// RecordSearch implements cqltable.MetricsCollector.
func (c *Collector) RecordSearch(_ int, d time.Duration, err error) {
	c.observe("search", d, err)
}

// RecordDelete implements cqltable.MetricsCollector.
func (c *Collector) RecordDelete(count int, d time.Duration, err error) {
	c.observe("delete", d, err)
	c.rows.WithLabelValues("delete").Add(float64(count))
}

// RecordPrepare implements cqltable.MetricsCollector.
func (c *Collector) RecordPrepare(d time.Duration, err error) {
	c.observe("prepare", d, err)
}
