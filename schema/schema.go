// Package schema defines the domain types shared across cqscope: events,
// segments, hysteresis metrics, percentile thresholds and classification
// results. It deliberately has no third-party dependencies so every other
// layer can import it.
package schema
