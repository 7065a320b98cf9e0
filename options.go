package cqltable

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/hupe1980/cqltable/codec"
	"github.com/hupe1980/cqltable/cql"
	"github.com/hupe1980/cqltable/metadata"
)

const (
	defaultKeyType           = "TEXT"
	defaultClusteringOrder   = "ASC"
	defaultDeleteBatchSize   = 20
	defaultDeleteConcurrency = 16
)

type options struct {
	keyspace         string
	ttl              int
	skipProvisioning bool
	asyncSetup       bool
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	resolver         *Resolver

	rowIDType        []string
	partitionIDType  []string
	primaryKeyType   []string
	numPartitionKeys int
	partitionID      any
	hasPartitionID   bool
	clusteringOrder  []string

	metadataIndexing metadata.IndexingPolicy

	vectorDimension    int
	similarityFunction string
	sourceModel        string

	keys             []string
	bodyIndexOptions []cql.IndexOption

	legacyANNFallback bool
	deleteConcurrency int
	deleteLimiter     *rate.Limiter
}

// Option configures table construction.
type Option func(*options)

// WithKeyspace sets the keyspace holding the table.
func WithKeyspace(keyspace string) Option {
	return func(o *options) {
		o.keyspace = keyspace
	}
}

// WithResolver supplies the default session and keyspace used when the
// constructor receives a nil session or no WithKeyspace option.
func WithResolver(r *Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithTTL sets the default time-to-live in seconds applied to every write.
// Zero disables it.
func WithTTL(seconds int) Option {
	return func(o *options) {
		o.ttl = seconds
	}
}

// WithSkipProvisioning disables CREATE TABLE/INDEX statements at construction.
// Use it for instances that only read an already provisioned table.
func WithSkipProvisioning() Option {
	return func(o *options) {
		o.skipProvisioning = true
	}
}

// WithAsyncSetup runs schema provisioning in the background.
//
// Until it completes, blocking and *Async calls fail with ErrSetupNotFinished
// while *Await calls wait for it.
func WithAsyncSetup() Option {
	return func(o *options) {
		o.asyncSetup = true
	}
}

// WithCodec configures the codec used for key_desc, key_vals and
// attributes_blob. If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &cqltable.BasicMetricsCollector{}
//	t, _ := cqltable.NewPlainTable(ctx, session, "docs", cqltable.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithRowIDType sets the CQL types of the row identifier. More than one
// type spreads the identifier over row_id_0..row_id_{n-1}.
func WithRowIDType(types ...string) Option {
	return func(o *options) {
		o.rowIDType = types
	}
}

// WithPartitionIDType sets the CQL types of the partition key of clustered
// tables. More than one type spreads it over partition_id_0..partition_id_{n-1}.
func WithPartitionIDType(types ...string) Option {
	return func(o *options) {
		o.partitionIDType = types
	}
}

// WithPrimaryKeyType describes the whole primary key as one flat type list,
// split into partition and row-id types according to the table shape.
func WithPrimaryKeyType(types ...string) Option {
	return func(o *options) {
		o.primaryKeyType = types
	}
}

// WithNumPartitionKeys sets how many leading WithPrimaryKeyType entries form
// the partition key. Only valid on clustered tables.
func WithNumPartitionKeys(n int) Option {
	return func(o *options) {
		o.numPartitionKeys = n
	}
}

// WithPartitionID binds a default partition used when a call omits partition_id.
func WithPartitionID(id any) Option {
	return func(o *options) {
		o.partitionID = id
		o.hasPartitionID = true
	}
}

// WithClusteringOrder sets the direction of the clustering columns.
// A single value applies to every clustering column.
func WithClusteringOrder(orders ...string) Option {
	return func(o *options) {
		o.clusteringOrder = orders
	}
}

// WithMetadataIndexing sets which metadata fields are queryable.
// The default indexes every field.
func WithMetadataIndexing(p metadata.IndexingPolicy) Option {
	return func(o *options) {
		o.metadataIndexing = p
	}
}

// WithVectorDimension sets the dimension of the vector column.
func WithVectorDimension(dim int) Option {
	return func(o *options) {
		o.vectorDimension = dim
	}
}

// WithSimilarityFunction sets the similarity function of the vector index
// (cosine, dot_product, euclidean).
func WithSimilarityFunction(fn string) Option {
	return func(o *options) {
		o.similarityFunction = fn
	}
}

// WithSourceModel sets the source_model option of the vector index.
func WithSourceModel(model string) Option {
	return func(o *options) {
		o.sourceModel = model
	}
}

// WithKeys sets the logical key columns of an elastic-key table.
func WithKeys(keys ...string) Option {
	return func(o *options) {
		o.keys = keys
	}
}

// WithBodyIndexOptions creates an analyzer index on body_blob with the
// given options, enabling BodySearch terms.
//
//	cqltable.WithBodyIndexOptions(cql.IndexOption{Key: "index_analyzer", Value: "STANDARD"})
func WithBodyIndexOptions(opts ...cql.IndexOption) Option {
	return func(o *options) {
		o.bodyIndexOptions = opts
	}
}

// WithLegacyANNFallback retries a similarity search once with the older
// "WHERE ... vector ANN OF ?" syntax when the store rejects the current one
// as invalid.
func WithLegacyANNFallback(enabled bool) Option {
	return func(o *options) {
		o.legacyANNFallback = enabled
	}
}

// WithDeleteConcurrency bounds the in-flight deletes of FindAndDeleteEntries.
func WithDeleteConcurrency(n int) Option {
	return func(o *options) {
		o.deleteConcurrency = n
	}
}

// WithDeleteRateLimit throttles the deletes of FindAndDeleteEntries.
func WithDeleteRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.deleteLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:             codec.Default,
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
		metadataIndexing:  metadata.IndexAll(),
		deleteConcurrency: defaultDeleteConcurrency,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.resolver != nil && o.keyspace == "" {
		o.keyspace = o.resolver.Keyspace()
	}
	if o.deleteConcurrency <= 0 {
		o.deleteConcurrency = defaultDeleteConcurrency
	}
	return o
}

// CallOption configures a single table call.
type CallOption func(*callOptions)

type callOptions struct {
	ttl       *int
	meta      metadata.Document
	hasMeta   bool
	body      []string
	threshold *float64
}

// TTL overrides the table TTL for one write.
func TTL(seconds int) CallOption {
	return func(c *callOptions) {
		c.ttl = &seconds
	}
}

// Metadata attaches a metadata document. On writes it replaces the stored
// metadata, on reads it adds an equality condition per field.
func Metadata(doc metadata.Document) CallOption {
	return func(c *callOptions) {
		c.meta = doc
		c.hasMeta = true
	}
}

// MetadataMap is Metadata for an untyped map.
func MetadataMap(m map[string]any) CallOption {
	return Metadata(metadata.DocumentFromAny(m))
}

// BodySearch adds one analyzer match on body_blob per term.
func BodySearch(terms ...string) CallOption {
	return func(c *callOptions) {
		c.body = append(c.body, terms...)
	}
}

// Threshold discards MetricANNSearch results failing the metric threshold.
func Threshold(t float64) CallOption {
	return func(c *callOptions) {
		c.threshold = &t
	}
}

func applyCallOptions(optFns []CallOption) callOptions {
	var c callOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&c)
		}
	}
	return c
}
