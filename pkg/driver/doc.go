// Package driver provides the graph store adapter consumed by the history
// engine.
//
// The engine only requires a narrow capability: run a single query, run a
// list of queries atomically within one transaction, and close. Rows come
// back as []map[string]any with native database values already converted to
// application values.
//
// Neo4jDriver is the concrete adapter; it also works against Memgraph, which
// speaks the same Bolt protocol. WithBreaker wraps any GraphDriver with a
// circuit breaker so a failing store sheds load instead of queueing callers.
package driver
