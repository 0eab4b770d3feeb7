// Package queue persists deferred-migration records for the out-of-process
// executor.
//
// The production implementation stores records in a NATS JetStream KeyValue
// bucket keyed by account id. Keying by account makes a newer balance pass
// replace an older, not-yet-due record for the same account (last write
// wins), and the bucket TTL expires records that are never consumed. The
// Memory implementation backs tests and dry-run inspection.
package queue
