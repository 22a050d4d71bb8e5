package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/chronograph/pkg/types"
)

func startRow(id string) []map[string]any {
	return []map[string]any{
		{"e": map[string]any{"id": id, "entity_type": "function"}},
	}
}

func TestTraverseAt(t *testing.T) {
	ctx := context.Background()
	until := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("missing start returns empty subgraph", func(t *testing.T) {
		service := NewService(&fakeDriver{}, nil)

		subgraph, err := service.TraverseAt(ctx, "ghost", &types.TraversalOptions{Until: until})
		require.NoError(t, err)
		assert.Empty(t, subgraph.Nodes)
		assert.Empty(t, subgraph.Edges)
	})

	t.Run("empty start id is rejected", func(t *testing.T) {
		service := NewService(&fakeDriver{}, nil)
		_, err := service.TraverseAt(ctx, "", nil)
		assert.True(t, types.IsValidation(err))
	})

	t.Run("collects and de-duplicates path nodes and edges", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{
			startRow("a"),
			{
				{
					"path_nodes": []any{
						map[string]any{"id": "a", "entity_type": "function"},
						map[string]any{"id": "b", "entity_type": "function"},
					},
					"path_edges": []any{
						map[string]any{"id": "r1", "edge_type": "CALLS", "from_id": "a", "to_id": "b", "valid_from": until.Add(-time.Hour)},
					},
				},
				{
					// A second path revisiting the same node and edge.
					"path_nodes": []any{
						map[string]any{"id": "a", "entity_type": "function"},
						map[string]any{"id": "b", "entity_type": "function"},
						map[string]any{"id": "c", "entity_type": "module"},
					},
					"path_edges": []any{
						map[string]any{"id": "r1", "edge_type": "CALLS", "from_id": "a", "to_id": "b", "valid_from": until.Add(-time.Hour)},
						map[string]any{"id": "r2", "edge_type": "IMPORTS", "from_id": "b", "to_id": "c", "valid_from": until.Add(-time.Minute)},
					},
				},
			},
		}}
		service := NewService(fake, nil)

		subgraph, err := service.TraverseAt(ctx, "a", &types.TraversalOptions{Until: until, MaxDepth: 2})
		require.NoError(t, err)

		require.Len(t, subgraph.Nodes, 3)
		assert.Equal(t, "a", subgraph.Nodes[0].ID)
		assert.Equal(t, "b", subgraph.Nodes[1].ID)
		assert.Equal(t, "c", subgraph.Nodes[2].ID)
		require.Len(t, subgraph.Edges, 2)
		assert.Equal(t, "r1", subgraph.Edges[0].ID)
		assert.Equal(t, "r2", subgraph.Edges[1].ID)
	})

	t.Run("depth is clamped and interpolated", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{startRow("a"), nil}}
		service := NewService(fake, nil)

		_, err := service.TraverseAt(ctx, "a", &types.TraversalOptions{Until: until, MaxDepth: 99})
		require.NoError(t, err)

		require.Len(t, fake.queries, 2)
		assert.Contains(t, fake.queries[1], "*1..10")
	})

	t.Run("excludes edges closed at the query instant", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{startRow("a"), nil}}
		service := NewService(fake, nil)

		_, err := service.TraverseAt(ctx, "a", &types.TraversalOptions{Until: until})
		require.NoError(t, err)

		// Validity is half-open, so the close instant is strictly compared.
		require.Len(t, fake.queries, 2)
		assert.Contains(t, fake.queries[1], "r.valid_to > $until")
		assert.NotContains(t, fake.queries[1], "r.valid_to >= $until")
	})

	t.Run("zero depth uses the default", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{startRow("a"), nil}}
		service := NewService(fake, nil)

		_, err := service.TraverseAt(ctx, "a", &types.TraversalOptions{Until: until})
		require.NoError(t, err)
		assert.Contains(t, fake.queries[1], "*1..3")
	})

	t.Run("filters ride as nullable parameters", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{startRow("a"), nil}}
		service := NewService(fake, nil)

		_, err := service.TraverseAt(ctx, "a", &types.TraversalOptions{
			Until:             until,
			RelationshipTypes: []string{"CALLS"},
		})
		require.NoError(t, err)

		params := fake.params[1]
		assert.Equal(t, []string{"CALLS"}, params["edge_types"])
		assert.Nil(t, params["node_labels"])
		assert.Equal(t, until, params["until"])
	})
}
