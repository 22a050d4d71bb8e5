package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Neo4jDriver implements the GraphDriver interface for Neo4j databases.
// Memgraph speaks the same Bolt protocol and works unchanged.
type Neo4jDriver struct {
	client   neo4j.DriverWithContext
	database string
	provider GraphProvider
}

// NewNeo4jDriver creates a new Neo4j driver instance.
func NewNeo4jDriver(uri, username, password, database string) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jDriver{
		client:   client,
		database: database,
		provider: GraphProviderNeo4j,
	}, nil
}

// Run executes a single query and returns the converted result rows.
func (n *Neo4jDriver) Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records, ok := result.([]*db.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: got %T, expected []*db.Record", result)
	}
	return recordsToMaps(records), nil
}

// RunTransaction executes all statements within one managed write
// transaction. Either every statement commits or none do.
func (n *Neo4jDriver) RunTransaction(ctx context.Context, statements []Statement) ([][]map[string]any, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		all := make([][]*db.Record, 0, len(statements))
		for _, stmt := range statements {
			res, err := tx.Run(ctx, stmt.Query, stmt.Params)
			if err != nil {
				return nil, err
			}
			records, err := res.Collect(ctx)
			if err != nil {
				return nil, err
			}
			all = append(all, records)
		}
		return all, nil
	})
	if err != nil {
		return nil, err
	}

	batches, ok := result.([][]*db.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: got %T, expected [][]*db.Record", result)
	}

	rows := make([][]map[string]any, len(batches))
	for i, records := range batches {
		rows[i] = recordsToMaps(records)
	}
	return rows, nil
}

// Close releases the underlying connection pool.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// Provider returns the graph database provider.
func (n *Neo4jDriver) Provider() GraphProvider {
	return n.provider
}

// recordsToMaps converts driver records into plain key/value rows.
func recordsToMaps(records []*db.Record) []map[string]any {
	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = convertValue(record.Values[i])
		}
		rows = append(rows, row)
	}
	return rows
}

// convertValue maps Bolt values to application values. Nodes and
// relationships flatten to their property maps so callers never see dbtype
// structs.
func convertValue(v any) any {
	switch val := v.(type) {
	case dbtype.Node:
		props := make(map[string]any, len(val.Props)+1)
		for k, p := range val.Props {
			props[k] = convertValue(p)
		}
		props["_labels"] = val.Labels
		return props
	case dbtype.Relationship:
		props := make(map[string]any, len(val.Props)+1)
		for k, p := range val.Props {
			props[k] = convertValue(p)
		}
		props["_type"] = val.Type
		return props
	case dbtype.LocalDateTime:
		return val.Time()
	case dbtype.Date:
		return val.Time()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = convertValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = convertValue(item)
		}
		return out
	default:
		return v
	}
}
