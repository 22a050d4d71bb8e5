package chronograph

import (
	"context"

	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/types"
)

// GetHistoryMetrics aggregates counts across the temporal stores: total
// versions and checkpoints, the per-checkpoint membership-count distribution
// (zero-member checkpoints count as 0, not excluded), and temporal edges
// split by lifecycle state.
func (c *Client) GetHistoryMetrics(ctx context.Context) (*types.HistoryMetrics, error) {
	metrics := &types.HistoryMetrics{}

	rows, err := c.driver.Run(ctx, `
		MATCH (v:Version)
		RETURN count(v) AS count
	`, nil)
	if err != nil {
		return nil, types.NewStoreError("count versions", err)
	}
	metrics.Versions = countRow(rows)

	rows, err = c.driver.Run(ctx, `
		MATCH (c:Checkpoint)
		OPTIONAL MATCH (c)-[m:INCLUDES]->()
		WITH c, count(m) AS members
		RETURN count(c) AS checkpoints,
		       avg(members) AS avg_members,
		       min(members) AS min_members,
		       max(members) AS max_members
	`, nil)
	if err != nil {
		return nil, types.NewStoreError("aggregate checkpoint membership", err)
	}
	if len(rows) > 0 {
		metrics.Checkpoints, _ = driver.AsInt(rows[0]["checkpoints"])
		if metrics.Checkpoints > 0 {
			avg, _ := driver.AsFloat64(rows[0]["avg_members"])
			minMembers, _ := driver.AsInt(rows[0]["min_members"])
			maxMembers, _ := driver.AsInt(rows[0]["max_members"])
			metrics.CheckpointMembers = types.MemberDistribution{
				Avg: avg,
				Min: minMembers,
				Max: maxMembers,
			}
		}
	}

	rows, err = c.driver.Run(ctx, `
		MATCH ()-[r:RELATES_TO]->()
		RETURN count(CASE WHEN r.valid_to IS NULL THEN 1 END) AS open,
		       count(CASE WHEN r.valid_to IS NOT NULL THEN 1 END) AS closed
	`, nil)
	if err != nil {
		return nil, types.NewStoreError("count temporal edges", err)
	}
	if len(rows) > 0 {
		metrics.TemporalEdges.Open, _ = driver.AsInt(rows[0]["open"])
		metrics.TemporalEdges.Closed, _ = driver.AsInt(rows[0]["closed"])
	}

	return metrics, nil
}

// GetGraphStats returns aggregate node and edge counts grouped by type.
func (c *Client) GetGraphStats(ctx context.Context) (*driver.GraphStats, error) {
	return driver.GetStats(ctx, c.driver)
}
