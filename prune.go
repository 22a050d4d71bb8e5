package chronograph

import (
	"context"
	"time"

	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/types"
)

// PruneHistory sweeps data older than the retention cutoff in three ordered
// phases: checkpoints first, then edges closed before the cutoff, then
// versions not pinned by any remaining checkpoint's membership. Deleting
// checkpoints first matters: once a checkpoint is gone its pinned versions
// become eligible within the same sweep.
//
// With DryRun set, the same selection predicates run as read-only counts and
// nothing mutates; counts for all three phases are returned either way. A
// non-positive retentionDays falls back to the configured default.
func (c *Client) PruneHistory(ctx context.Context, retentionDays int, opts *types.PruneOptions) (*types.PruneResult, error) {
	if opts == nil {
		opts = &types.PruneOptions{}
	}
	if retentionDays < 0 {
		return nil, &types.ValidationError{Field: "retention_days", Reason: "cannot be negative"}
	}
	if retentionDays == 0 {
		retentionDays = c.config.RetentionDays
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	result := &types.PruneResult{DryRun: opts.DryRun, Cutoff: cutoff}

	c.logger.Info("pruning history",
		"retention_days", retentionDays, "cutoff", cutoff, "dry_run", opts.DryRun)

	checkpointsDeleted, err := c.pruneCheckpoints(ctx, cutoff, opts.DryRun)
	if err != nil {
		return nil, err
	}
	result.CheckpointsDeleted = checkpointsDeleted

	edgesClosed, err := c.pruneClosedEdges(ctx, cutoff, opts.DryRun)
	if err != nil {
		return nil, err
	}
	result.EdgesClosed = edgesClosed

	var versionsDeleted int
	if opts.DryRun {
		versionsDeleted, err = c.versions.CountPrunable(ctx, cutoff)
	} else {
		versionsDeleted, err = c.versions.DeletePrunable(ctx, cutoff)
	}
	if err != nil {
		return nil, err
	}
	result.VersionsDeleted = versionsDeleted

	return result, nil
}

func (c *Client) pruneCheckpoints(ctx context.Context, cutoff time.Time, dryRun bool) (int, error) {
	if dryRun {
		rows, err := c.driver.Run(ctx, `
			MATCH (c:Checkpoint)
			WHERE c.timestamp < $cutoff
			RETURN count(c) AS count
		`, map[string]any{"cutoff": cutoff})
		if err != nil {
			return 0, types.NewStoreError("count prunable checkpoints", err)
		}
		return countRow(rows), nil
	}

	rows, err := c.driver.Run(ctx, `
		MATCH (c:Checkpoint)
		WHERE c.timestamp < $cutoff
		DETACH DELETE c
		RETURN count(c) AS count
	`, map[string]any{"cutoff": cutoff})
	if err != nil {
		return 0, types.NewStoreError("prune checkpoints", err)
	}
	return countRow(rows), nil
}

func (c *Client) pruneClosedEdges(ctx context.Context, cutoff time.Time, dryRun bool) (int, error) {
	if dryRun {
		rows, err := c.driver.Run(ctx, `
			MATCH ()-[r:RELATES_TO]->()
			WHERE r.valid_to IS NOT NULL AND r.valid_to < $cutoff
			RETURN count(r) AS count
		`, map[string]any{"cutoff": cutoff})
		if err != nil {
			return 0, types.NewStoreError("count prunable edges", err)
		}
		return countRow(rows), nil
	}

	rows, err := c.driver.Run(ctx, `
		MATCH ()-[r:RELATES_TO]->()
		WHERE r.valid_to IS NOT NULL AND r.valid_to < $cutoff
		DELETE r
		RETURN count(r) AS count
	`, map[string]any{"cutoff": cutoff})
	if err != nil {
		return 0, types.NewStoreError("prune closed edges", err)
	}
	return countRow(rows), nil
}

func countRow(rows []map[string]any) int {
	if len(rows) == 0 {
		return 0
	}
	count, _ := driver.AsInt(rows[0]["count"])
	return count
}
