// Package distance provides the client-side similarity metrics used to
// re-rank vector search candidates.
//
// # Supported Metrics
//
//   - MetricCosine ("cos"): cosine similarity, higher is closer
//   - MetricDot ("dot"): dot product, higher is closer
//   - MetricL1 ("l1"): Manhattan distance, lower is closer
//   - MetricL2 ("l2"): Euclidean distance, lower is closer
//   - MetricMax ("max"): Chebyshev distance, lower is closer
//
// # Usage
//
//	m, _ := distance.ParseMetric("cos")
//	fn, _ := distance.Provider(m)
//	score := fn(a, b)
//	ok := m.Passes(score, 0.8)
package distance
