package checkpoint

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/types"
)

// Export materializes the checkpoint's closed subgraph: the full membership
// plus every edge whose endpoints are both members. Edges leaving the
// membership set are excluded. A missing id returns nil.
func (s *Service) Export(ctx context.Context, id string) (*types.CheckpointExport, error) {
	checkpoint, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if checkpoint == nil {
		return nil, nil
	}

	entities, err := s.GetMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.driver.Run(ctx, `
		MATCH (c:Checkpoint {id: $id})-[:INCLUDES]->(a:Entity)
		MATCH (c)-[:INCLUDES]->(b:Entity)
		MATCH (a)-[r:RELATES_TO]->(b)
		RETURN r
		ORDER BY r.valid_from ASC
	`, map[string]any{"id": id})
	if err != nil {
		return nil, types.NewStoreError("export checkpoint", err)
	}

	relationships := make([]*types.TemporalEdge, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		props, ok := driver.AsMap(row["r"])
		if !ok {
			continue
		}
		edge := driver.EdgeFromProps(props)
		if edge.ID == "" || seen[edge.ID] {
			continue
		}
		seen[edge.ID] = true
		relationships = append(relationships, edge)
	}

	return &types.CheckpointExport{
		Checkpoint:    checkpoint,
		Entities:      entities,
		Relationships: relationships,
	}, nil
}

// Import reconciles an exported checkpoint back into the graph. Entities and
// relationships are merge-upserted (existing properties overwritten, not
// removed), a new Checkpoint node marked as imported is created unless the
// options request the original id, and membership edges are re-linked.
// Repeated identical imports merge rather than duplicate. The whole import
// commits as one transaction.
func (s *Service) Import(ctx context.Context, payload *types.CheckpointExport, opts *types.ImportOptions) (string, error) {
	if payload == nil || payload.Checkpoint == nil {
		return "", &types.ValidationError{Field: "payload", Reason: "checkpoint is required"}
	}
	if opts == nil {
		opts = &types.ImportOptions{}
	}

	checkpointID := uuid.New().String()
	if opts.UseOriginalID {
		checkpointID = payload.Checkpoint.ID
	}

	entities := make([]map[string]any, 0, len(payload.Entities))
	memberIDs := make([]string, 0, len(payload.Entities))
	for _, entity := range payload.Entities {
		if entity == nil || entity.ID == "" {
			return "", &types.NotFoundError{Resource: "entity", ID: "(missing id in import payload)"}
		}
		entities = append(entities, map[string]any{
			"id":    entity.ID,
			"props": driver.EntityToProps(entity),
		})
		memberIDs = append(memberIDs, entity.ID)
	}

	relationships := make([]map[string]any, 0, len(payload.Relationships))
	for _, edge := range payload.Relationships {
		if edge == nil {
			continue
		}
		if err := edge.Validate(); err != nil {
			return "", &types.ValidationError{Field: "relationships", Reason: err.Error()}
		}
		if edge.ID == "" {
			edge.ID = uuid.New().String()
		}
		relationships = append(relationships, map[string]any{
			"id":      edge.ID,
			"from_id": edge.FromID,
			"to_id":   edge.ToID,
			"props":   driver.EdgeToProps(edge),
		})
	}

	metadataJSON := ""
	if len(payload.Checkpoint.Metadata) > 0 {
		data, err := json.Marshal(payload.Checkpoint.Metadata)
		if err != nil {
			return "", &types.ValidationError{Field: "metadata", Reason: err.Error()}
		}
		metadataJSON = string(data)
	}

	statements := []driver.Statement{
		{
			Query: `
				UNWIND $entities AS ent
				MERGE (e:Entity {id: ent.id})
				SET e += ent.props
			`,
			Params: map[string]any{"entities": entities},
		},
		{
			Query: `
				UNWIND $relationships AS rel
				MATCH (a:Entity {id: rel.from_id})
				MATCH (b:Entity {id: rel.to_id})
				MERGE (a)-[r:RELATES_TO {id: rel.id}]->(b)
				SET r += rel.props
			`,
			Params: map[string]any{"relationships": relationships},
		},
		{
			Query: `
				MERGE (c:Checkpoint {id: $id})
				SET c.timestamp = $timestamp, c.reason = $reason,
				    c.seed_entities = $seeds, c.imported = true,
				    c.metadata_json = $metadata_json
			`,
			Params: map[string]any{
				"id":            checkpointID,
				"timestamp":     payload.Checkpoint.Timestamp,
				"reason":        payload.Checkpoint.Reason,
				"seeds":         payload.Checkpoint.SeedEntities,
				"metadata_json": metadataJSON,
			},
		},
		{
			Query: `
				MATCH (c:Checkpoint {id: $id})
				UNWIND $member_ids AS member_id
				MATCH (e:Entity {id: member_id})
				MERGE (c)-[:INCLUDES]->(e)
			`,
			Params: map[string]any{
				"id":         checkpointID,
				"member_ids": memberIDs,
			},
		},
	}

	if _, err := s.driver.RunTransaction(ctx, statements); err != nil {
		return "", types.NewStoreError("import checkpoint", err)
	}

	s.logger.Info("imported checkpoint",
		"checkpoint_id", checkpointID, "entities", len(entities), "relationships", len(relationships))
	return checkpointID, nil
}
