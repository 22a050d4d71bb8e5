// Package types defines the core data types for the chronograph temporal
// history engine.
//
// This package contains the fundamental types used throughout chronograph:
//   - Entity: Represents a graph node referenced by the history engine
//   - Version: An immutable point-in-time fact about an entity's content
//   - TemporalEdge: A relationship instance with a validity interval
//   - Checkpoint: A named, immutable snapshot of a subgraph
//
// # Temporal Model
//
// Every mutation to an entity or relationship is recorded as an immutable
// fact. Versions are append-only. Temporal edges carry a validity interval
// [ValidFrom, ValidTo); an edge whose ValidTo is nil is "open", and at most
// one open edge may exist per (from, to, type) identity at any time.
//
// # JSON Serialization
//
// All types are designed to be JSON-serializable with appropriate struct
// tags, so checkpoint exports round-trip through encoding/json unchanged.
package types
