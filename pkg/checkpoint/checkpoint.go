// Package checkpoint creates and manages named, immutable snapshots of
// subgraphs.
//
// A checkpoint is a Checkpoint node plus one INCLUDES edge per member entity,
// discovered by a bounded breadth-first expansion from the seed entities.
// Membership never changes after creation; a checkpoint disappears only
// through an explicit delete. While a checkpoint exists, the versions of its
// member entities are pinned against retention pruning.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/types"
)

// DefaultHops bounds the membership expansion when the caller gives none.
const DefaultHops = 2

// maxHops caps caller-supplied expansion depths.
const maxHops = 6

// Service creates, reads, exports, imports, and deletes checkpoints.
type Service struct {
	driver driver.GraphDriver
	logger *slog.Logger
}

// NewService creates a new checkpoint service.
func NewService(d driver.GraphDriver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{driver: d, logger: logger}
}

// Create expands the membership set from the seeds and persists the
// checkpoint node plus its membership edges in one transaction. The member
// count includes the seeds themselves.
func (s *Service) Create(ctx context.Context, seedEntities []string, opts *types.CreateCheckpointOptions) (*types.CreateCheckpointResult, error) {
	if len(seedEntities) == 0 {
		return nil, &types.ValidationError{Field: "seed_entities", Reason: "at least one seed is required"}
	}
	if opts == nil || opts.Reason == "" {
		return nil, &types.ValidationError{Field: "reason", Reason: "reason is required"}
	}

	hops := opts.Hops
	if hops <= 0 {
		hops = DefaultHops
	}
	if hops > maxHops {
		hops = maxHops
	}

	memberIDs, err := s.expandMembership(ctx, seedEntities, hops, opts.Window)
	if err != nil {
		return nil, err
	}

	checkpointID := uuid.New().String()
	metadataJSON := ""
	if len(opts.Metadata) > 0 {
		data, err := json.Marshal(opts.Metadata)
		if err != nil {
			return nil, &types.ValidationError{Field: "metadata", Reason: err.Error()}
		}
		metadataJSON = string(data)
	}

	statements := []driver.Statement{
		{
			Query: `
				CREATE (c:Checkpoint {id: $id, timestamp: $timestamp, reason: $reason,
				                      seed_entities: $seeds, imported: false,
				                      metadata_json: $metadata_json})
			`,
			Params: map[string]any{
				"id":            checkpointID,
				"timestamp":     time.Now().UTC(),
				"reason":        opts.Reason,
				"seeds":         seedEntities,
				"metadata_json": metadataJSON,
			},
		},
		{
			Query: `
				MATCH (c:Checkpoint {id: $id})
				UNWIND $member_ids AS member_id
				MATCH (e:Entity {id: member_id})
				CREATE (c)-[:INCLUDES]->(e)
			`,
			Params: map[string]any{
				"id":         checkpointID,
				"member_ids": memberIDs,
			},
		},
	}

	if _, err := s.driver.RunTransaction(ctx, statements); err != nil {
		return nil, types.NewStoreError("create checkpoint", err)
	}

	s.logger.Info("created checkpoint",
		"checkpoint_id", checkpointID, "reason", opts.Reason, "members", len(memberIDs))
	return &types.CreateCheckpointResult{
		CheckpointID: checkpointID,
		MemberCount:  len(memberIDs),
	}, nil
}

// expandMembership runs the bounded breadth-first expansion and returns the
// de-duplicated member ids, existing seeds included. A validity window, when
// supplied, keeps only expansion edges whose interval intersects it.
func (s *Service) expandMembership(ctx context.Context, seeds []string, hops int, window *types.TimeRange) ([]string, error) {
	var winSince, winUntil any
	if window != nil {
		if window.Since != nil {
			winSince = *window.Since
		}
		if window.Until != nil {
			winUntil = *window.Until
		}
	}

	query := fmt.Sprintf(`
		MATCH (s:Entity)
		WHERE s.id IN $seeds
		OPTIONAL MATCH path = (s)-[:RELATES_TO*1..%d]-(m:Entity)
		WHERE ALL(r IN relationships(path) WHERE
			($win_until IS NULL OR r.valid_from IS NULL OR r.valid_from <= $win_until)
			AND ($win_since IS NULL OR r.valid_to IS NULL OR r.valid_to > $win_since))
		WITH collect(DISTINCT s.id) AS seed_ids, collect(DISTINCT m.id) AS reached_ids
		UNWIND seed_ids + reached_ids AS member_id
		WITH DISTINCT member_id
		WHERE member_id IS NOT NULL
		RETURN collect(member_id) AS member_ids
	`, hops)

	rows, err := s.driver.Run(ctx, query, map[string]any{
		"seeds":     seeds,
		"win_since": winSince,
		"win_until": winUntil,
	})
	if err != nil {
		return nil, types.NewStoreError("expand checkpoint membership", err)
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	memberIDs, _ := driver.AsStringSlice(rows[0]["member_ids"])
	return memberIDs, nil
}

// List returns one page of checkpoints ordered by timestamp descending.
// Total is the full filtered count, computed by a separate count query, never
// the page length.
func (s *Service) List(ctx context.Context, opts *types.ListCheckpointsOptions) (*types.CheckpointPage, error) {
	if opts == nil {
		opts = &types.ListCheckpointsOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	filter := `
		WHERE ($reason IS NULL OR c.reason = $reason)
		  AND ($since IS NULL OR c.timestamp >= $since)
		  AND ($until IS NULL OR c.timestamp <= $until)
	`
	params := map[string]any{
		"reason": stringOrNil(opts.Reason),
		"since":  timeOrNil(opts.Since),
		"until":  timeOrNil(opts.Until),
	}

	countRows, err := s.driver.Run(ctx, "MATCH (c:Checkpoint)\n"+filter+"RETURN count(c) AS count", params)
	if err != nil {
		return nil, types.NewStoreError("count checkpoints", err)
	}
	total := 0
	if len(countRows) > 0 {
		total, _ = driver.AsInt(countRows[0]["count"])
	}

	pageParams := map[string]any{"limit": limit, "offset": offset}
	for k, v := range params {
		pageParams[k] = v
	}
	rows, err := s.driver.Run(ctx, `
		MATCH (c:Checkpoint)
	`+filter+`
		OPTIONAL MATCH (c)-[m:INCLUDES]->()
		WITH c, count(m) AS members
		RETURN c, members
		ORDER BY c.timestamp DESC
		SKIP $offset
		LIMIT $limit
	`, pageParams)
	if err != nil {
		return nil, types.NewStoreError("list checkpoints", err)
	}

	items := make([]*types.Checkpoint, 0, len(rows))
	for _, row := range rows {
		props, ok := driver.AsMap(row["c"])
		if !ok {
			continue
		}
		checkpoint := driver.CheckpointFromProps(props)
		checkpoint.MemberCount, _ = driver.AsInt(row["members"])
		items = append(items, checkpoint)
	}
	return &types.CheckpointPage{Items: items, Total: total}, nil
}

// Get retrieves one checkpoint. A missing id returns nil, not an error.
func (s *Service) Get(ctx context.Context, id string) (*types.Checkpoint, error) {
	rows, err := s.driver.Run(ctx, `
		MATCH (c:Checkpoint {id: $id})
		OPTIONAL MATCH (c)-[m:INCLUDES]->()
		WITH c, count(m) AS members
		RETURN c, members
	`, map[string]any{"id": id})
	if err != nil {
		return nil, types.NewStoreError("get checkpoint", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	props, ok := driver.AsMap(rows[0]["c"])
	if !ok {
		return nil, nil
	}
	checkpoint := driver.CheckpointFromProps(props)
	checkpoint.MemberCount, _ = driver.AsInt(rows[0]["members"])
	return checkpoint, nil
}

// GetMembers returns the checkpoint's membership set. A missing checkpoint
// returns an empty slice.
func (s *Service) GetMembers(ctx context.Context, id string) ([]*types.Entity, error) {
	rows, err := s.driver.Run(ctx, `
		MATCH (c:Checkpoint {id: $id})-[:INCLUDES]->(e:Entity)
		RETURN e
		ORDER BY e.id ASC
	`, map[string]any{"id": id})
	if err != nil {
		return nil, types.NewStoreError("get checkpoint members", err)
	}

	members := make([]*types.Entity, 0, len(rows))
	for _, row := range rows {
		if props, ok := driver.AsMap(row["e"]); ok {
			members = append(members, driver.EntityFromProps(props))
		}
	}
	return members, nil
}

// GetSummary bundles the checkpoint, its members, and composition stats:
// per-entity-type counts plus per-relationship-type counts among edges
// strictly between member entities. A missing id returns nil.
func (s *Service) GetSummary(ctx context.Context, id string) (*types.CheckpointSummary, error) {
	checkpoint, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if checkpoint == nil {
		return nil, nil
	}

	members, err := s.GetMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &types.CheckpointStats{
		EntityTypes:       make(map[string]int),
		RelationshipTypes: make(map[string]int),
	}
	for _, member := range members {
		stats.EntityTypes[member.Type]++
	}

	rows, err := s.driver.Run(ctx, `
		MATCH (c:Checkpoint {id: $id})-[:INCLUDES]->(a:Entity)
		MATCH (c)-[:INCLUDES]->(b:Entity)
		MATCH (a)-[r:RELATES_TO]->(b)
		RETURN r.edge_type AS edge_type, count(r) AS count
	`, map[string]any{"id": id})
	if err != nil {
		return nil, types.NewStoreError("get checkpoint stats", err)
	}
	for _, row := range rows {
		edgeType, _ := driver.AsString(row["edge_type"])
		count, _ := driver.AsInt(row["count"])
		stats.RelationshipTypes[edgeType] = count
	}

	return &types.CheckpointSummary{
		Checkpoint: checkpoint,
		Members:    members,
		Stats:      stats,
	}, nil
}

// Delete removes the checkpoint node and its membership edges. Member
// entities and their other relationships are untouched. A missing id is a
// no-op so that maintenance retries stay idempotent.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.driver.Run(ctx, `
		MATCH (c:Checkpoint {id: $id})
		DETACH DELETE c
	`, map[string]any{"id": id})
	if err != nil {
		return types.NewStoreError("delete checkpoint", err)
	}
	s.logger.Info("deleted checkpoint", "checkpoint_id", id)
	return nil
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
