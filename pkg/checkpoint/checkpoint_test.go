package checkpoint

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver records queries and transactions and replays canned rows.
type fakeDriver struct {
	mu           sync.Mutex
	queries      []string
	params       []map[string]any
	transactions [][]driver.Statement
	rows         [][]map[string]any
	err          error
}

func (f *fakeDriver) Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.rows) == 0 {
		return nil, nil
	}
	rows := f.rows[0]
	f.rows = f.rows[1:]
	return rows, nil
}

func (f *fakeDriver) RunTransaction(ctx context.Context, statements []driver.Statement) ([][]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append(f.transactions, statements)
	if f.err != nil {
		return nil, f.err
	}
	return make([][]map[string]any, len(statements)), nil
}

func (f *fakeDriver) Close(ctx context.Context) error { return nil }

func (f *fakeDriver) Provider() driver.GraphProvider { return driver.GraphProviderNeo4j }

func membershipRow(ids ...string) []map[string]any {
	anyIDs := make([]any, len(ids))
	for i, id := range ids {
		anyIDs[i] = id
	}
	return []map[string]any{{"member_ids": anyIDs}}
}

func TestCreateCheckpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("expands membership and commits node plus edges together", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{
			membershipRow("seed-1", "e2", "e3"),
		}}
		service := NewService(fake, nil)

		result, err := service.Create(ctx, []string{"seed-1"}, &types.CreateCheckpointOptions{
			Reason: "pre-refactor",
			Hops:   2,
			Metadata: map[string]any{
				"ticket": "ENG-42",
			},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.CheckpointID)
		assert.Equal(t, 3, result.MemberCount)

		// Expansion is a single read before the transaction.
		require.Len(t, fake.queries, 1)
		assert.Contains(t, fake.queries[0], "*1..2")
		assert.Equal(t, []string{"seed-1"}, fake.params[0]["seeds"])

		require.Len(t, fake.transactions, 1)
		stmts := fake.transactions[0]
		require.Len(t, stmts, 2)
		assert.Contains(t, stmts[0].Query, "CREATE (c:Checkpoint")
		assert.Equal(t, "pre-refactor", stmts[0].Params["reason"])
		assert.Contains(t, stmts[0].Params["metadata_json"], "ENG-42")
		assert.Contains(t, stmts[1].Query, "CREATE (c)-[:INCLUDES]->(e)")
		assert.Equal(t, []string{"seed-1", "e2", "e3"}, stmts[1].Params["member_ids"])
	})

	t.Run("requires seeds and reason", func(t *testing.T) {
		service := NewService(&fakeDriver{}, nil)

		_, err := service.Create(ctx, nil, &types.CreateCheckpointOptions{Reason: "x"})
		assert.True(t, types.IsValidation(err))

		_, err = service.Create(ctx, []string{"s"}, nil)
		assert.True(t, types.IsValidation(err))

		_, err = service.Create(ctx, []string{"s"}, &types.CreateCheckpointOptions{})
		assert.True(t, types.IsValidation(err))
	})

	t.Run("hops are defaulted and capped", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{membershipRow("s")}}
		service := NewService(fake, nil)

		_, err := service.Create(ctx, []string{"s"}, &types.CreateCheckpointOptions{Reason: "r"})
		require.NoError(t, err)
		assert.Contains(t, fake.queries[0], "*1..2")

		fake = &fakeDriver{rows: [][]map[string]any{membershipRow("s")}}
		service = NewService(fake, nil)
		_, err = service.Create(ctx, []string{"s"}, &types.CreateCheckpointOptions{Reason: "r", Hops: 50})
		require.NoError(t, err)
		assert.Contains(t, fake.queries[0], "*1..6")
	})

	t.Run("window rides as nullable parameters", func(t *testing.T) {
		since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		fake := &fakeDriver{rows: [][]map[string]any{membershipRow("s")}}
		service := NewService(fake, nil)

		_, err := service.Create(ctx, []string{"s"}, &types.CreateCheckpointOptions{
			Reason: "r",
			Window: &types.TimeRange{Since: &since},
		})
		require.NoError(t, err)
		assert.Equal(t, since, fake.params[0]["win_since"])
		assert.Nil(t, fake.params[0]["win_until"])

		// Edges closed exactly at the window start are outside the window.
		assert.Contains(t, fake.queries[0], "r.valid_to > $win_since")
	})
}

func TestListCheckpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("total comes from a separate count query", func(t *testing.T) {
		ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		fake := &fakeDriver{rows: [][]map[string]any{
			{{"count": int64(42)}},
			{
				{"c": map[string]any{"id": "cp-2", "timestamp": ts, "reason": "b"}, "members": int64(5)},
				{"c": map[string]any{"id": "cp-1", "timestamp": ts.Add(-time.Hour), "reason": "a"}, "members": int64(0)},
			},
		}}
		service := NewService(fake, nil)

		page, err := service.List(ctx, &types.ListCheckpointsOptions{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 42, page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "cp-2", page.Items[0].ID)
		assert.Equal(t, 5, page.Items[0].MemberCount)
		assert.Equal(t, 0, page.Items[1].MemberCount)

		require.Len(t, fake.queries, 2)
		assert.Contains(t, fake.queries[0], "count(c)")
		assert.Contains(t, fake.queries[1], "ORDER BY c.timestamp DESC")
	})

	t.Run("filters ride as nullable parameters", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{
			{{"count": int64(0)}},
			nil,
		}}
		service := NewService(fake, nil)

		_, err := service.List(ctx, &types.ListCheckpointsOptions{Reason: "nightly"})
		require.NoError(t, err)
		assert.Equal(t, "nightly", fake.params[0]["reason"])
		assert.Nil(t, fake.params[0]["since"])
	})

	t.Run("limit defaults to 20", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{
			{{"count": int64(0)}},
			nil,
		}}
		service := NewService(fake, nil)

		_, err := service.List(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 20, fake.params[1]["limit"])
		assert.Equal(t, 0, fake.params[1]["offset"])
	})
}

func TestGetCheckpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("found with member count", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{{
			{"c": map[string]any{"id": "cp-1", "reason": "r", "seed_entities": []any{"s1"}}, "members": int64(4)},
		}}}
		service := NewService(fake, nil)

		cp, err := service.Get(ctx, "cp-1")
		require.NoError(t, err)
		require.NotNil(t, cp)
		assert.Equal(t, 4, cp.MemberCount)
		assert.Equal(t, []string{"s1"}, cp.SeedEntities)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		service := NewService(&fakeDriver{}, nil)
		cp, err := service.Get(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, cp)
	})
}

func TestGetSummary(t *testing.T) {
	ctx := context.Background()

	fake := &fakeDriver{rows: [][]map[string]any{
		// Get
		{{"c": map[string]any{"id": "cp-1", "reason": "r"}, "members": int64(3)}},
		// GetMembers
		{
			{"e": map[string]any{"id": "e1", "entity_type": "function"}},
			{"e": map[string]any{"id": "e2", "entity_type": "function"}},
			{"e": map[string]any{"id": "e3", "entity_type": "module"}},
		},
		// intra-membership edge counts
		{
			{"edge_type": "CALLS", "count": int64(2)},
			{"edge_type": "IMPORTS", "count": int64(1)},
		},
	}}
	service := NewService(fake, nil)

	summary, err := service.GetSummary(ctx, "cp-1")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Stats.EntityTypes["function"])
	assert.Equal(t, 1, summary.Stats.EntityTypes["module"])
	assert.Equal(t, 2, summary.Stats.RelationshipTypes["CALLS"])
	assert.Equal(t, 1, summary.Stats.RelationshipTypes["IMPORTS"])
	assert.Len(t, summary.Members, 3)
}

func TestDeleteCheckpoint(t *testing.T) {
	ctx := context.Background()
	fake := &fakeDriver{}
	service := NewService(fake, nil)

	require.NoError(t, service.Delete(ctx, "cp-1"))
	assert.Contains(t, fake.queries[0], "DETACH DELETE c")

	// Deleting a missing checkpoint is a no-op.
	assert.NoError(t, service.Delete(ctx, "ghost"))
}

func TestExportCheckpoint(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("bundles members and intra-membership edges", func(t *testing.T) {
		fake := &fakeDriver{rows: [][]map[string]any{
			{{"c": map[string]any{"id": "cp-1", "reason": "r", "timestamp": ts}, "members": int64(2)}},
			{
				{"e": map[string]any{"id": "e1", "entity_type": "function"}},
				{"e": map[string]any{"id": "e2", "entity_type": "function"}},
			},
			{
				{"r": map[string]any{"id": "r1", "edge_type": "CALLS", "from_id": "e1", "to_id": "e2", "valid_from": ts}},
				// Duplicate row from a second path.
				{"r": map[string]any{"id": "r1", "edge_type": "CALLS", "from_id": "e1", "to_id": "e2", "valid_from": ts}},
			},
		}}
		service := NewService(fake, nil)

		export, err := service.Export(ctx, "cp-1")
		require.NoError(t, err)
		require.NotNil(t, export)
		assert.Equal(t, "cp-1", export.Checkpoint.ID)
		assert.Len(t, export.Entities, 2)
		assert.Len(t, export.Relationships, 1)
	})

	t.Run("missing checkpoint returns nil", func(t *testing.T) {
		service := NewService(&fakeDriver{}, nil)
		export, err := service.Export(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, export)
	})
}

func TestImportCheckpoint(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	payload := func() *types.CheckpointExport {
		return &types.CheckpointExport{
			Checkpoint: &types.Checkpoint{
				ID:           "cp-orig",
				Timestamp:    ts,
				Reason:       "snapshot",
				SeedEntities: []string{"e1"},
			},
			Entities: []*types.Entity{
				{ID: "e1", Type: "function"},
				{ID: "e2", Type: "module"},
			},
			Relationships: []*types.TemporalEdge{
				{ID: "r1", Type: "CALLS", FromID: "e1", ToID: "e2", ValidFrom: ts},
			},
		}
	}

	t.Run("mints a new id by default", func(t *testing.T) {
		fake := &fakeDriver{}
		service := NewService(fake, nil)

		id, err := service.Import(ctx, payload(), nil)
		require.NoError(t, err)
		assert.NotEqual(t, "cp-orig", id)

		require.Len(t, fake.transactions, 1)
		stmts := fake.transactions[0]
		require.Len(t, stmts, 4)
		assert.Contains(t, stmts[0].Query, "MERGE (e:Entity {id: ent.id})")
		assert.Contains(t, stmts[1].Query, "MERGE (a)-[r:RELATES_TO {id: rel.id}]->(b)")
		assert.Contains(t, stmts[2].Query, "c.imported = true")
		assert.Contains(t, stmts[3].Query, "MERGE (c)-[:INCLUDES]->(e)")
	})

	t.Run("reuses the original id on request", func(t *testing.T) {
		service := NewService(&fakeDriver{}, nil)

		id, err := service.Import(ctx, payload(), &types.ImportOptions{UseOriginalID: true})
		require.NoError(t, err)
		assert.Equal(t, "cp-orig", id)
	})

	t.Run("rejects payload entities without ids", func(t *testing.T) {
		service := NewService(&fakeDriver{}, nil)

		bad := payload()
		bad.Entities = append(bad.Entities, &types.Entity{Type: "function"})
		_, err := service.Import(ctx, bad, nil)
		assert.True(t, types.IsNotFound(err))
	})

	t.Run("rejects inconsistent relationship intervals", func(t *testing.T) {
		service := NewService(&fakeDriver{}, nil)

		before := ts.Add(-time.Hour)
		bad := payload()
		bad.Relationships[0].ValidTo = &before
		_, err := service.Import(ctx, bad, nil)
		assert.True(t, types.IsValidation(err))
	})

	t.Run("rejects nil payload", func(t *testing.T) {
		service := NewService(&fakeDriver{}, nil)
		_, err := service.Import(ctx, nil, nil)
		assert.True(t, types.IsValidation(err))
	})
}
