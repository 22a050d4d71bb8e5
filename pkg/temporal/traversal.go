package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/types"
)

// TraverseAt performs a bounded-depth expansion from startID, keeping only
// edges whose validity interval contains the options' Until instant. An edge
// still open at that instant qualifies; an absent ValidFrom is treated as the
// beginning of time. Nodes and edges are de-duplicated by id, set semantics.
func (s *Service) TraverseAt(ctx context.Context, startID string, opts *types.TraversalOptions) (*types.Subgraph, error) {
	if startID == "" {
		return nil, &types.ValidationError{Field: "start_id", Reason: "id is required"}
	}
	if opts == nil {
		opts = &types.TraversalOptions{}
	}

	until := opts.Until
	if until.IsZero() {
		until = time.Now().UTC()
	}
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultTraversalDepth
	}
	if depth > maxTraversalDepth {
		depth = maxTraversalDepth
	}

	start, err := s.getEntity(ctx, startID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return &types.Subgraph{Nodes: []*types.Entity{}, Edges: []*types.TemporalEdge{}}, nil
	}

	// Variable-length bounds cannot be parameterized in Cypher, so the depth
	// is interpolated. It is an int clamped above, never caller text.
	query := fmt.Sprintf(`
		MATCH (start:Entity {id: $start_id})
		MATCH path = (start)-[:RELATES_TO*1..%d]-(m:Entity)
		WHERE ALL(r IN relationships(path) WHERE
			(r.valid_from IS NULL OR r.valid_from <= $until)
			AND (r.valid_to IS NULL OR r.valid_to > $until)
			AND ($edge_types IS NULL OR r.edge_type IN $edge_types))
		  AND ALL(n IN nodes(path) WHERE $node_labels IS NULL OR n.entity_type IN $node_labels)
		RETURN [n IN nodes(path) | n] AS path_nodes,
		       [r IN relationships(path) | r] AS path_edges
	`, depth)

	rows, err := s.driver.Run(ctx, query, map[string]any{
		"start_id":    startID,
		"until":       until,
		"edge_types":  stringSliceOrNil(opts.RelationshipTypes),
		"node_labels": stringSliceOrNil(opts.NodeLabels),
	})
	if err != nil {
		return nil, types.NewStoreError("time travel traversal from "+startID, err)
	}

	nodesByID := map[string]*types.Entity{start.ID: start}
	edgesByID := map[string]*types.TemporalEdge{}
	var nodeOrder []string
	var edgeOrder []string
	nodeOrder = append(nodeOrder, start.ID)

	for _, row := range rows {
		pathNodes, _ := row["path_nodes"].([]any)
		for _, raw := range pathNodes {
			props, ok := driver.AsMap(raw)
			if !ok {
				continue
			}
			entity := driver.EntityFromProps(props)
			if entity.ID == "" || nodesByID[entity.ID] != nil {
				continue
			}
			nodesByID[entity.ID] = entity
			nodeOrder = append(nodeOrder, entity.ID)
		}

		pathEdges, _ := row["path_edges"].([]any)
		for _, raw := range pathEdges {
			props, ok := driver.AsMap(raw)
			if !ok {
				continue
			}
			edge := driver.EdgeFromProps(props)
			if edge.ID == "" || edgesByID[edge.ID] != nil {
				continue
			}
			edgesByID[edge.ID] = edge
			edgeOrder = append(edgeOrder, edge.ID)
		}
	}

	subgraph := &types.Subgraph{
		Nodes: make([]*types.Entity, 0, len(nodeOrder)),
		Edges: make([]*types.TemporalEdge, 0, len(edgeOrder)),
	}
	for _, id := range nodeOrder {
		subgraph.Nodes = append(subgraph.Nodes, nodesByID[id])
	}
	for _, id := range edgeOrder {
		subgraph.Edges = append(subgraph.Edges, edgesByID[id])
	}
	return subgraph, nil
}

func (s *Service) getEntity(ctx context.Context, id string) (*types.Entity, error) {
	rows, err := s.driver.Run(ctx, `
		MATCH (e:Entity {id: $id})
		RETURN e
	`, map[string]any{"id": id})
	if err != nil {
		return nil, types.NewStoreError("get entity", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	props, ok := driver.AsMap(rows[0]["e"])
	if !ok {
		return nil, nil
	}
	return driver.EntityFromProps(props), nil
}

func stringSliceOrNil(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return values
}
