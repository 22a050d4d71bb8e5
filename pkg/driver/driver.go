package driver

import (
	"context"
	"time"
)

// GraphProvider represents the type of graph database provider
type GraphProvider string

const (
	GraphProviderNeo4j    GraphProvider = "neo4j"
	GraphProviderMemgraph GraphProvider = "memgraph"
)

// Statement is one query plus its parameters, for transactional batches.
type Statement struct {
	Query  string
	Params map[string]any
}

// GraphDriver is the narrow store capability the history engine consumes.
// Run executes a single query; RunTransaction executes a list of statements
// all-or-nothing within one store transaction. Partial application of a
// transactional batch is a correctness bug, not a degraded outcome.
type GraphDriver interface {
	Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	RunTransaction(ctx context.Context, statements []Statement) ([][]map[string]any, error)
	Close(ctx context.Context) error
	Provider() GraphProvider
}

// GraphStats holds aggregate statistics about the graph.
type GraphStats struct {
	NodeCount   int64            `json:"node_count"`
	EdgeCount   int64            `json:"edge_count"`
	NodesByType map[string]int64 `json:"nodes_by_type"`
	EdgesByType map[string]int64 `json:"edges_by_type"`
	LastUpdated time.Time        `json:"last_updated"`
}
