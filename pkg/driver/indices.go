package driver

import (
	"context"
	"fmt"
	"time"
)

// RangeIndices returns the index creation queries the engine's lookups rely
// on. Safe to re-run; every statement carries IF NOT EXISTS.
func RangeIndices() []string {
	return []string{
		"CREATE INDEX entity_id IF NOT EXISTS FOR (n:Entity) ON (n.id)",
		"CREATE INDEX entity_type_index IF NOT EXISTS FOR (n:Entity) ON (n.entity_type)",
		"CREATE INDEX version_id IF NOT EXISTS FOR (n:Version) ON (n.id)",
		"CREATE INDEX version_entity_id IF NOT EXISTS FOR (n:Version) ON (n.entity_id)",
		"CREATE INDEX version_timestamp IF NOT EXISTS FOR (n:Version) ON (n.timestamp)",
		"CREATE INDEX version_change_set IF NOT EXISTS FOR (n:Version) ON (n.change_set_id)",
		"CREATE INDEX checkpoint_id IF NOT EXISTS FOR (n:Checkpoint) ON (n.id)",
		"CREATE INDEX checkpoint_timestamp IF NOT EXISTS FOR (n:Checkpoint) ON (n.timestamp)",
		"CREATE INDEX checkpoint_reason IF NOT EXISTS FOR (n:Checkpoint) ON (n.reason)",
		"CREATE INDEX relation_id IF NOT EXISTS FOR ()-[e:RELATES_TO]-() ON (e.id)",
		"CREATE INDEX relation_edge_type IF NOT EXISTS FOR ()-[e:RELATES_TO]-() ON (e.edge_type)",
		"CREATE INDEX relation_valid_from IF NOT EXISTS FOR ()-[e:RELATES_TO]-() ON (e.valid_from)",
		"CREATE INDEX relation_valid_to IF NOT EXISTS FOR ()-[e:RELATES_TO]-() ON (e.valid_to)",
		"CREATE INDEX relation_change_set IF NOT EXISTS FOR ()-[e:RELATES_TO]-() ON (e.change_set_id)",
	}
}

// CreateIndices creates the engine's indexes through any GraphDriver.
func CreateIndices(ctx context.Context, d GraphDriver) error {
	for _, query := range RangeIndices() {
		if _, err := d.Run(ctx, query, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// GetStats returns aggregate node and edge counts grouped by type.
func GetStats(ctx context.Context, d GraphDriver) (*GraphStats, error) {
	stats := &GraphStats{
		NodesByType: make(map[string]int64),
		EdgesByType: make(map[string]int64),
	}

	rows, err := d.Run(ctx, `
		MATCH (n:Entity)
		RETURN n.entity_type AS type, count(n) AS count
	`, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		nodeType, _ := AsString(row["type"])
		count, _ := AsInt64(row["count"])
		stats.NodesByType[nodeType] = count
		stats.NodeCount += count
	}

	rows, err = d.Run(ctx, `
		MATCH ()-[e:RELATES_TO]->()
		RETURN e.edge_type AS type, count(e) AS count
	`, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		edgeType, _ := AsString(row["type"])
		count, _ := AsInt64(row["count"])
		stats.EdgesByType[edgeType] = count
		stats.EdgeCount += count
	}

	stats.LastUpdated = time.Now().UTC()
	return stats, nil
}
